// Config command prints the effective configuration.
package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc := toFileConfig(a.cfg)
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), fc)
			}
			data, err := marshalConfig(fc)
			if err != nil {
				return sysError(err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
