// Init command for the mirralism CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the .mirralism directory, config and log database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, dir := range []string{a.layout.StateDir, a.cfg.QuarantineDir, a.cfg.ReportsDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return sysError(fmt.Errorf("init: %w", err))
				}
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			out := cmd.OutOrStdout()
			if a.flagJSON {
				return printJSON(out, map[string]string{
					"root":       a.cfg.ProjectRoot,
					"db":         a.cfg.DBPath,
					"quarantine": a.cfg.QuarantineDir,
					"reports":    a.cfg.ReportsDir,
				})
			}
			fmt.Fprintln(out, "MIRRALISM project initialized")
			fmt.Fprintln(out, "  root:      ", a.cfg.ProjectRoot)
			fmt.Fprintln(out, "  db:        ", a.cfg.DBPath)
			fmt.Fprintln(out, "  quarantine:", a.cfg.QuarantineDir)
			fmt.Fprintln(out, "  reports:   ", a.cfg.ReportsDir)
			return nil
		},
	}
}
