package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudi/tesskit/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or check the effective configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := config.MarshalTOML(a.cfg)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check the configuration and that the engine initializes with it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				api, err := a.openAPI(a.cfg)
				if err != nil {
					return err
				}
				defer api.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (fingerprint %s)\n", a.cfg.Language, api.Config().Fingerprint()[:12])
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the default config directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), config.ConfigDir())
				return nil
			},
		},
	)
	return cmd
}
