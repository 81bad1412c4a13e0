package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLangsCmd(a *app) *cobra.Command {
	var loaded bool
	cmd := &cobra.Command{
		Use:   "langs",
		Short: "List languages available in the configured tessdata directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.openAPI(a.cfg)
			if err != nil {
				return err
			}
			defer api.Close()

			list := api.AvailableLanguages
			if loaded {
				list = api.LoadedLanguages
			}
			langs, err := list()
			if err != nil {
				return err
			}
			if dp, err := api.Datapath(); err == nil {
				if interactive(cmd.OutOrStdout()) {
					fmt.Fprintf(cmd.OutOrStdout(), "languages in %s:\n", dp)
				}
			}
			for _, l := range langs {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&loaded, "loaded", false, "list the languages loaded by the configured language string instead")
	return cmd
}
