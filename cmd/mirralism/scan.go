// Scan command checks the project tree against the constraint rules.
package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/constraint"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// scanOutput is the JSON shape of scan and enforce results.
type scanOutput struct {
	ScanID     string            `json:"scan_id"`
	Root       string            `json:"root"`
	TotalFiles int               `json:"total_files"`
	Compliance float64           `json:"compliance"`
	BySeverity map[string]int    `json:"by_severity"`
	ByRule     map[string]int    `json:"by_rule"`
	Violations []types.Violation `json:"violations"`
}

func newScanCmd(a *app) *cobra.Command {
	var writeReport bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report files that violate the constraint rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.runScan(cmd)
			if err != nil {
				return err
			}
			if writeReport {
				if err := a.writeReport(cmd.ErrOrStderr(), "scan", out); err != nil {
					return err
				}
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printScan(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeReport, "report", false, "also write a JSON report to the reports directory")
	return cmd
}

// runScan scans the project and logs the scan and its violations.
func (a *app) runScan(cmd *cobra.Command) (*scanOutput, error) {
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}
	res, err := engine.Scan(cmd.Context(), a.cfg.ProjectRoot)
	if err != nil {
		return nil, sysError(err)
	}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer store.Detach()

	id, err := store.AppendScan(types.ScanRecord{
		Root:       res.Root,
		TotalFiles: res.TotalFiles,
		Violations: len(res.Violations),
		Compliance: res.Compliance(),
	}, res.Violations)
	if err != nil {
		return nil, sysError(fmt.Errorf("log scan: %w", err))
	}
	return toScanOutput(id, res), nil
}

func toScanOutput(id string, res *constraint.ScanResult) *scanOutput {
	v := res.Violations
	if v == nil {
		v = []types.Violation{}
	}
	return &scanOutput{
		ScanID:     id,
		Root:       res.Root,
		TotalFiles: res.TotalFiles,
		Compliance: res.Compliance(),
		BySeverity: res.BySeverity(),
		ByRule:     res.ByRule(),
		Violations: v,
	}
}

func printScan(w io.Writer, out *scanOutput) {
	fmt.Fprintf(w, "Scanned %d files under %s\n", out.TotalFiles, out.Root)
	fmt.Fprintf(w, "Compliance: %.1f%%\n", out.Compliance)
	if len(out.Violations) == 0 {
		fmt.Fprintln(w, "No violations")
		return
	}

	rules := make([]string, 0, len(out.ByRule))
	for r := range out.ByRule {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	fmt.Fprintf(w, "Violations: %d\n", len(out.Violations))
	for _, r := range rules {
		fmt.Fprintf(w, "  %-16s %d\n", r, out.ByRule[r])
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "\nSEVERITY\tRULE\tACTION\tPATH")
	for _, v := range out.Violations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Severity, v.RuleID, v.Action, v.Path)
	}
	tw.Flush()
}
