package types

import (
	"errors"
	"fmt"
	"path"
	"time"
)

// Match kinds select what a rule pattern is matched against.
const (
	MatchName = "name" // base name of the file
	MatchPath = "path" // slash-separated path relative to the project root
)

// Actions say what enforcement does with a violating file.
const (
	ActionQuarantine = "quarantine"
	ActionReport     = "report"
)

// Severity levels.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// ErrRuleInvalid is returned for rules with a missing ID, an unknown match
// kind, action or severity, or a malformed pattern.
var ErrRuleInvalid = errors.New("invalid constraint rule")

// Rule is one file-system constraint.
type Rule struct {
	ID          string   `json:"id" yaml:"id" mapstructure:"id"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Patterns    []string `json:"patterns" yaml:"patterns" mapstructure:"patterns"`
	Match       string   `json:"match" yaml:"match" mapstructure:"match"`
	Severity    string   `json:"severity" yaml:"severity" mapstructure:"severity"`
	Action      string   `json:"action" yaml:"action" mapstructure:"action"`
}

// Validate checks the rule fields and that every pattern is a well-formed
// glob.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrRuleInvalid)
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("%w: rule %s has no patterns", ErrRuleInvalid, r.ID)
	}
	switch r.Match {
	case MatchName, MatchPath:
	default:
		return fmt.Errorf("%w: rule %s: unknown match kind %q", ErrRuleInvalid, r.ID, r.Match)
	}
	switch r.Action {
	case ActionQuarantine, ActionReport:
	default:
		return fmt.Errorf("%w: rule %s: unknown action %q", ErrRuleInvalid, r.ID, r.Action)
	}
	switch r.Severity {
	case SeverityHigh, SeverityMedium, SeverityLow:
	default:
		return fmt.Errorf("%w: rule %s: unknown severity %q", ErrRuleInvalid, r.ID, r.Severity)
	}
	for _, p := range r.Patterns {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("%w: rule %s: pattern %q: %v", ErrRuleInvalid, r.ID, p, err)
		}
	}
	return nil
}

// Violation is a file that matched a rule during a scan.
type Violation struct {
	RuleID   string    `json:"rule_id"`
	Path     string    `json:"path"` // slash-separated, relative to the project root
	Pattern  string    `json:"pattern"`
	Severity string    `json:"severity"`
	Action   string    `json:"action"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}
