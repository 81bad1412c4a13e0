package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wudi/tesskit/ocr/gosseract"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the native engine version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.newAPI()
			if err != nil {
				return err
			}
			defer api.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "engine: %s\n", api.Version())
			if v := gosseract.Version(); v != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "gosseract: %s\n", v)
			}
			return nil
		},
	}
}
