// Quarantine commands list, inspect and restore quarantine batches.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/quarantine"
)

func newQuarantineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Manage quarantine batches",
	}
	cmd.AddCommand(newQuarantineListCmd(a), newQuarantineShowCmd(a), newQuarantineRestoreCmd(a))
	return cmd
}

func newQuarantineListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List quarantine batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifests, err := a.quarantine().List()
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				if manifests == nil {
					manifests = []*quarantine.Manifest{}
				}
				return printJSON(cmd.OutOrStdout(), manifests)
			}
			if len(manifests) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No quarantine batches")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "FOLDER\tCREATED\tMOVED\tITEMS\tBATCH")
			for _, m := range manifests {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
					m.Folder, stamp(m.CreatedAt), m.Moved(), len(m.Items), m.BatchID)
			}
			return tw.Flush()
		},
	}
}

func newQuarantineShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch>",
		Short: "Show the items of one batch (folder name or batch ID)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			man, err := a.quarantine().Load(args[0])
			if err != nil {
				return batchError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), man)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Batch %s (%s)\n", man.Folder, man.BatchID)
			tw := newTable(out)
			fmt.Fprintln(tw, "STATUS\tRULE\tPATH\tERROR")
			for _, it := range man.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Status, it.RuleID, it.OriginalPath, it.Error)
			}
			return tw.Flush()
		},
	}
}

func newQuarantineRestoreCmd(a *app) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "restore <batch>",
		Short: "Move the files of a batch back to their original paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.quarantine().Restore(args[0], overwrite)
			if err != nil && res == nil {
				return batchError(err)
			}

			store, serr := a.openStore()
			if serr != nil {
				return serr
			}
			defer store.Detach()
			if lerr := quarantine.LogEvents(store, res.Events()); lerr != nil {
				return sysError(fmt.Errorf("log restore events: %w", lerr))
			}
			if err != nil {
				return sysError(err)
			}

			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Restored %d file(s) from %s\n", res.Restored(), res.Folder)
			for _, it := range res.Items {
				if it.Status != quarantine.StatusRestored {
					fmt.Fprintf(out, "  %s: %s %s\n", it.Status, it.OriginalPath, it.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace files that exist at the original path")
	return cmd
}

// batchError keeps unknown batches as user errors.
func batchError(err error) error {
	if errors.Is(err, quarantine.ErrBatchNotFound) {
		return err
	}
	return sysError(err)
}
