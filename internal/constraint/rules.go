// Package constraint checks a project tree against file-system constraint
// rules and computes the resulting compliance ratio.
package constraint

import "github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"

// DefaultRules returns the built-in rule set. REDIRECT files are treated as
// technical debt and quarantined.
func DefaultRules() []types.Rule {
	return []types.Rule{
		{
			ID:          "redirect",
			Description: "REDIRECT placeholder files",
			Patterns:    []string{"*REDIRECT*"},
			Match:       types.MatchName,
			Severity:    types.SeverityHigh,
			Action:      types.ActionQuarantine,
		},
		{
			ID:          "backup",
			Description: "manual backup copies",
			Patterns:    []string{"*.bak", "*.backup", "*_backup.*"},
			Match:       types.MatchName,
			Severity:    types.SeverityMedium,
			Action:      types.ActionQuarantine,
		},
		{
			ID:          "editor-swap",
			Description: "editor swap and temp files",
			Patterns:    []string{"*~", "*.swp", "*.tmp"},
			Match:       types.MatchName,
			Severity:    types.SeverityLow,
			Action:      types.ActionQuarantine,
		},
		{
			ID:          "ds-store",
			Description: "macOS Finder metadata",
			Patterns:    []string{".DS_Store"},
			Match:       types.MatchName,
			Severity:    types.SeverityLow,
			Action:      types.ActionQuarantine,
		},
		{
			ID:          "duplicate-copy",
			Description: "Finder-style duplicate copies",
			Patterns:    []string{"* copy*", "*(1)*"},
			Match:       types.MatchName,
			Severity:    types.SeverityLow,
			Action:      types.ActionReport,
		},
	}
}

// DefaultExclude lists path globs the scanner never descends into or reports.
var DefaultExclude = []string{
	".git",
	".mirralism",
	"node_modules",
	"__pycache__",
	".venv",
}
