package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newPagesCmd(a *app) *cobra.Command {
	var retryConfig string
	cmd := &cobra.Command{
		Use:   "pages <file>",
		Short: "Recognize every page of a multi-page image or an image list",
		Long: `Recognize every page of a multi-page TIFF, or of every image named in a
text file, and print the combined text. process.timeout_ms bounds the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.openAPI(a.cfg)
			if err != nil {
				return err
			}
			defer api.Close()
			text, err := api.ProcessPages(cmd.Context(), args[0], retryConfig, a.cfg.ProcessTimeout())
			if err != nil {
				return err
			}
			if _, err := io.WriteString(cmd.OutOrStdout(), text); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&retryConfig, "retry-config", "", "config file applied when a page fails")
	return cmd
}
