// Audit command checks the tree for committed secrets and risky files.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/audit"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

func newAuditCmd(a *app) *cobra.Command {
	var writeReport bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Scan for secrets, world-writable files and .env files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auditor, err := audit.New(nil, a.logger)
			if err != nil {
				return sysError(err)
			}
			rep, err := auditor.Audit(cmd.Context(), a.cfg.ProjectRoot)
			if err != nil {
				return sysError(err)
			}
			if rep.Findings == nil {
				rep.Findings = []audit.Finding{}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()
			if _, err := store.AppendAudit(types.AuditRecord{
				Root:     rep.Root,
				Findings: len(rep.Findings),
				High:     rep.Count(audit.SeverityHigh),
				Score:    float64(rep.Score),
			}); err != nil {
				return sysError(fmt.Errorf("log audit: %w", err))
			}

			if writeReport {
				if err := a.writeReport(cmd.ErrOrStderr(), "audit", rep); err != nil {
					return err
				}
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), rep)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Audited %d files: score %d/100 (%d high, %d medium, %d low)\n",
				rep.FilesScanned, rep.Score,
				rep.Count(audit.SeverityHigh), rep.Count(audit.SeverityMedium), rep.Count(audit.SeverityLow))
			if len(rep.Findings) > 0 {
				tw := newTable(out)
				fmt.Fprintln(tw, "SEVERITY\tRULE\tLOCATION")
				for _, f := range rep.Findings {
					loc := f.Path
					if f.Line > 0 {
						loc = fmt.Sprintf("%s:%d", f.Path, f.Line)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Severity, f.RuleID, loc)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeReport, "report", false, "also write a JSON report to the reports directory")
	return cmd
}
