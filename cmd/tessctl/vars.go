package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wudi/tesskit/tess"
)

func newVarsCmd(a *app) *cobra.Command {
	var get string
	cmd := &cobra.Command{
		Use:   "vars",
		Short: "Print engine variables after applying the configuration",
		Long: `Print every engine variable and its value once the configured languages
and variables are applied. With --get, print a single variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.openAPI(a.cfg)
			if err != nil {
				return err
			}
			defer api.Close()
			if get != "" {
				v, err := api.StringVariable(get)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			return printVariables(api, cmd)
		},
	}
	cmd.Flags().StringVar(&get, "get", "", "print only this variable")
	return cmd
}

func printVariables(api *tess.API, cmd *cobra.Command) error {
	dir, err := os.MkdirTemp("", "tessctl-vars-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "vars.txt")
	if err := api.PrintVariablesToFile(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
