package types

import (
	"errors"
	"fmt"
)

// Config holds the resolved settings for one project tree.
type Config struct {
	ProjectRoot   string            `json:"project_root" yaml:"project_root"`
	DBPath        string            `json:"db_path" yaml:"db_path"`
	QuarantineDir string            `json:"quarantine_dir" yaml:"quarantine_dir"`
	ReportsDir    string            `json:"reports_dir" yaml:"reports_dir"`
	LogLevel      string            `json:"log_level" yaml:"log_level"`
	LogFormat     string            `json:"log_format" yaml:"log_format"`
	Rules         []Rule            `json:"rules,omitempty" yaml:"rules,omitempty"`
	Exclude       []string          `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Personality   PersonalityConfig `json:"personality" yaml:"personality"`
}

// PersonalityConfig parameterises the keyword scoring heuristic.
type PersonalityConfig struct {
	Base       float64           `json:"base" yaml:"base" mapstructure:"base"`
	Cap        float64           `json:"cap" yaml:"cap" mapstructure:"cap"`
	Categories []KeywordCategory `json:"categories,omitempty" yaml:"categories,omitempty" mapstructure:"categories"`
}

// KeywordCategory is a named group of keywords sharing one weight.
type KeywordCategory struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	Weight   float64  `json:"weight" yaml:"weight" mapstructure:"weight"`
}

// Supported log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config validation errors.
var (
	ErrProjectRootEmpty = errors.New("project root must not be empty")
	ErrLogFormatUnknown = errors.New("unknown log format")
	ErrCapInvalid       = errors.New("personality cap must be in (0, 1]")
	ErrBaseInvalid      = errors.New("personality base must be in [0, cap]")
)

// Validate checks that the Config is well-formed. Rules are validated
// individually; the first invalid rule is reported.
func (c Config) Validate() error {
	if c.ProjectRoot == "" {
		return ErrProjectRootEmpty
	}
	switch c.LogFormat {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrLogFormatUnknown, c.LogFormat)
	}
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return c.Personality.Validate()
}

// Validate checks cap and base. A zero cap means "use the default" and is
// accepted.
func (p PersonalityConfig) Validate() error {
	if p.Cap == 0 {
		return nil
	}
	if p.Cap < 0 || p.Cap > 1 {
		return ErrCapInvalid
	}
	if p.Base < 0 || p.Base > p.Cap {
		return ErrBaseInvalid
	}
	return nil
}
