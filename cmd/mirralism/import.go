// Import commands bring external recordings into the journal log.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/journal"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import recordings into the journal log",
	}
	cmd.AddCommand(newImportSuperWhisperCmd(a))
	return cmd
}

func newImportSuperWhisperCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "superwhisper <dir>",
		Short: "Import SuperWhisper recording folders (each holding meta.json)",
		Long: `Import reads every folder under <dir> that holds a meta.json, repairs
missing or implausible timestamps from the folder's modification time, scores
the transcript and stores it. Recordings already imported are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			im := journal.NewImporter(store, a.scorer(), nil, a.logger)
			res, err := im.ImportDir(cmd.Context(), dir)
			if err != nil {
				if errors.Is(err, journal.ErrNoRecordings) {
					return err
				}
				return sysError(err)
			}

			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d, duplicates %d, skipped %d, repaired timestamps %d\n",
				res.Imported, res.Duplicates, res.Skipped, res.Repaired)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  error: %s: %s\n", e.Source, e.Error)
			}
			return nil
		},
	}
}
