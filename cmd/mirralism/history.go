// History commands read the append-only logs.
package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/sqlite"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or export the logged scans, violations, scores and quarantine events",
	}
	cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 20, "maximum number of rows")

	withStore := func(fn func(cmd *cobra.Command, args []string, s *sqlite.Store) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Detach()
			return fn(cmd, args, s)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "scans",
		Short: "Recent scans with their compliance",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, s *sqlite.Store) error {
			rows, err := s.RecentScans(limit)
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), nonNil(rows))
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CREATED\tFILES\tVIOLATIONS\tCOMPLIANCE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", stamp(r.CreatedAt), r.TotalFiles, r.Violations, r.Compliance)
			}
			return tw.Flush()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "violations",
		Short: "Recent constraint violations",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, s *sqlite.Store) error {
			rows, err := s.RecentViolations(limit)
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), nonNil(rows))
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CREATED\tSEVERITY\tRULE\tPATH")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", stamp(r.CreatedAt), r.Severity, r.RuleID, r.Path)
			}
			return tw.Flush()
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "scores",
		Short: "Recent personality scores",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, s *sqlite.Store) error {
			rows, err := s.RecentScores(limit)
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), nonNil(rows))
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CREATED\tSCORE\tSOURCE\tEXCERPT")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%.3f\t%s\t%s\n", stamp(r.CreatedAt), r.Score, r.Source, r.Excerpt)
			}
			return tw.Flush()
		}),
	})

	var batch string
	qcmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Quarantine and restore events",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, _ []string, s *sqlite.Store) error {
			rows, err := s.QuarantineHistory(batch, limit)
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), nonNil(rows))
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CREATED\tOP\tRULE\tPATH\tERROR")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", stamp(r.CreatedAt), r.Operation, r.RuleID, r.OriginalPath, r.Error)
			}
			return tw.Flush()
		}),
	}
	qcmd.Flags().StringVar(&batch, "batch", "", "only events of this batch ID")
	cmd.AddCommand(qcmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "export <dir>",
		Short: "Write every log table to <dir>/<table>.jsonl",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, s *sqlite.Store) error {
			counts, err := s.ExportJSONL(args[0])
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			tables := make([]string, 0, len(counts))
			for t := range counts {
				tables = append(tables, t)
			}
			sort.Strings(tables)
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", t+".jsonl", counts[t])
			}
			return nil
		}),
	})

	return cmd
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

func stamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
