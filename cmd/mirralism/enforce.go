// Enforce command quarantines violating files.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/quarantine"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

type enforceOutput struct {
	Scan     *scanOutput          `json:"scan"`
	DryRun   bool                 `json:"dry_run"`
	Planned  []types.Violation    `json:"planned,omitempty"`
	Manifest *quarantine.Manifest `json:"manifest,omitempty"`
}

func newEnforceCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "enforce",
		Short: "Scan and move violating files into quarantine",
		Long: `Enforce scans the project tree and moves every file that violates a
quarantine rule into a timestamped folder under the quarantine directory.
Violations of report-only rules are listed but left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := a.runScan(cmd)
			if err != nil {
				return err
			}
			res := &enforceOutput{Scan: scan, DryRun: dryRun}

			var actionable []types.Violation
			for _, v := range scan.Violations {
				if v.Action == types.ActionQuarantine {
					actionable = append(actionable, v)
				}
			}

			if dryRun {
				res.Planned = actionable
			} else if len(actionable) > 0 {
				man, err := a.quarantine().Quarantine(cmd.Context(), actionable)
				if err != nil && !errors.Is(err, quarantine.ErrNothingToQuarantine) {
					return sysError(fmt.Errorf("quarantine: %w", err))
				}
				res.Manifest = man
				if man != nil {
					store, err := a.openStore()
					if err != nil {
						return err
					}
					defer store.Detach()
					if err := quarantine.LogEvents(store, man.Events()); err != nil {
						return sysError(fmt.Errorf("log quarantine events: %w", err))
					}
				}
			}

			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			printScan(out, scan)
			switch {
			case dryRun:
				fmt.Fprintf(out, "\nDry run: %d file(s) would be quarantined\n", len(actionable))
			case res.Manifest == nil:
				fmt.Fprintln(out, "\nNothing to quarantine")
			default:
				fmt.Fprintf(out, "\nQuarantined %d file(s) into %s\n", res.Manifest.Moved(), res.Manifest.Folder)
				for _, it := range res.Manifest.Failed() {
					fmt.Fprintf(out, "  failed: %s: %s\n", it.OriginalPath, it.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be quarantined without moving anything")
	return cmd
}
