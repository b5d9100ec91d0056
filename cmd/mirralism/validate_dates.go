// Validate-dates command flags impossible and future dates in documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/constraint"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/paths"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/timestamp"
)

func newValidateDatesCmd(a *app) *cobra.Command {
	var (
		maxFutureDays int
		globs         []string
	)
	cmd := &cobra.Command{
		Use:   "validate-dates [paths...]",
		Short: "Report invalid or future dates in markdown and text files",
		Long: `Validate-dates looks for YYYY-MM-DD, YYYY/MM/DD and YYYY年M月D日 dates and
reports the ones that are not calendar dates or lie more than --max-future-days
in the future. Paths may be files or directories; the default is the project
root. The command exits 1 when any issue is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := timestamp.Validator{Now: time.Now(), MaxFutureDays: maxFutureDays}
			if len(args) == 0 {
				args = []string{a.cfg.ProjectRoot}
			}

			var issues []timestamp.Issue
			for _, arg := range args {
				found, err := a.validatePath(cmd, v, arg, globs)
				if err != nil {
					return err
				}
				issues = append(issues, found...)
			}

			if a.flagJSON {
				if err := printJSON(cmd.OutOrStdout(), nonNil(issues)); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, is := range issues {
					fmt.Fprintf(out, "%s:%d: %s %q: %s\n", is.Path, is.Line, is.Kind, is.Text, is.Detail)
				}
				if len(issues) == 0 {
					fmt.Fprintln(out, "No date issues")
				}
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d date issue(s) found", len(issues))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxFutureDays, "max-future-days", 1, "days in the future a date may lie before it is flagged")
	cmd.Flags().StringSliceVar(&globs, "glob", timestamp.DefaultDocGlobs, "file name globs to check inside directories")
	return cmd
}

func (a *app) validatePath(cmd *cobra.Command, v timestamp.Validator, p string, globs []string) ([]timestamp.Issue, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, sysError(err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("validate-dates: %w", err)
	}
	if info.IsDir() {
		issues, err := v.ValidateFiles(cmd.Context(), abs, globs, constraint.DefaultExclude)
		if err != nil {
			return nil, sysError(err)
		}
		return issues, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, sysError(fmt.Errorf("validate-dates: %w", err))
	}
	rel, err := paths.Rel(a.cfg.ProjectRoot, abs)
	if err != nil {
		rel = filepath.ToSlash(abs)
	}
	issues := v.ValidateText(string(data))
	for i := range issues {
		issues[i].Path = rel
	}
	return issues, nil
}
