// Version command for the mirralism CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/mirralism"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mirralism version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "mirralism", mirralism.Version)
		},
	}
}
