// Shared helpers for mirralism CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/constraint"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/personality"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/quarantine"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/report"
)

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) engine() (*constraint.Engine, error) {
	exclude := append(append([]string(nil), a.cfg.Exclude...),
		constraint.ExcludeWithin(a.cfg.ProjectRoot, a.cfg.QuarantineDir, a.cfg.ReportsDir,
			a.cfg.DBPath, a.cfg.DBPath+"-wal", a.cfg.DBPath+"-shm")...)
	e, err := constraint.NewEngine(a.cfg.Rules, exclude, a.logger)
	if err != nil {
		return nil, fmt.Errorf("constraint rules: %w", err)
	}
	return e, nil
}

func (a *app) scorer() *personality.Scorer {
	return personality.New(a.cfg.Personality)
}

func (a *app) quarantine() *quarantine.Manager {
	return quarantine.New(a.cfg.ProjectRoot, a.cfg.QuarantineDir, a.logger)
}

func (a *app) reports() *report.Writer {
	return report.NewWriter(a.cfg.ReportsDir)
}

// writeReport stores v as a report of kind and tells the user where it went.
func (a *app) writeReport(w io.Writer, kind string, v any) error {
	p, err := a.reports().Write(kind, v)
	if err != nil {
		return sysError(fmt.Errorf("write %s report: %w", kind, err))
	}
	if !a.flagJSON {
		fmt.Fprintln(w, "report:", p)
	}
	return nil
}
