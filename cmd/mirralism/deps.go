// Deps command lists the files that reference given paths or names.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/depscan"
)

func newDepsCmd(a *app) *cobra.Command {
	var (
		exts    []string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "deps <target>...",
		Short: "Find files that reference the given paths, modules or scripts",
		Long: `Deps scans text files under the project root for every target string and
lists the referencing lines. Run it before moving or deleting a file to see
what would break; targets nothing refers to are listed as unreferenced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := depscan.Scan(cmd.Context(), a.cfg.ProjectRoot, args, depscan.Options{
				Extensions: exts,
				SkipDirs:   a.cfg.Exclude,
				Workers:    workers,
				Logger:     a.logger,
			})
			if errors.Is(err, depscan.ErrInvalidTarget) {
				return err
			}
			if err != nil {
				return sysError(err)
			}
			if a.flagJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			for _, t := range args {
				refs := res.References[t]
				fmt.Fprintf(out, "%s: %d reference(s) in %d file(s)\n", t, len(refs), len(res.Files(t)))
				for _, r := range refs {
					fmt.Fprintf(out, "  %s:%d: %s\n", r.Path, r.Line, r.Text)
				}
			}
			if un := res.Unreferenced(); len(un) > 0 {
				fmt.Fprintf(out, "Unreferenced: %v\n", un)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exts, "ext", nil, "file extensions to scan (default: .py,.go,.md,.json,.yaml,.yml,.sh,.toml,.txt)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent file readers (default: GOMAXPROCS)")
	return cmd
}
