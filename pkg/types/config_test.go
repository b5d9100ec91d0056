package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	validRule := Rule{
		ID:       "redirect",
		Patterns: []string{"*REDIRECT*"},
		Match:    MatchName,
		Severity: SeverityHigh,
		Action:   ActionQuarantine,
	}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty project root returns ErrProjectRootEmpty",
			config:  Config{},
			wantErr: ErrProjectRootEmpty,
		},
		{
			name:    "unknown log format",
			config:  Config{ProjectRoot: "/tmp/p", LogFormat: "xml"},
			wantErr: ErrLogFormatUnknown,
		},
		{
			name:    "minimal config is valid",
			config:  Config{ProjectRoot: "/tmp/p"},
			wantErr: nil,
		},
		{
			name:    "valid rules pass",
			config:  Config{ProjectRoot: "/tmp/p", LogFormat: LogFormatJSON, Rules: []Rule{validRule}},
			wantErr: nil,
		},
		{
			name:    "invalid rule is reported",
			config:  Config{ProjectRoot: "/tmp/p", Rules: []Rule{{ID: "x"}}},
			wantErr: ErrRuleInvalid,
		},
		{
			name:    "cap above one",
			config:  Config{ProjectRoot: "/tmp/p", Personality: PersonalityConfig{Base: 0.5, Cap: 1.5}},
			wantErr: ErrCapInvalid,
		},
		{
			name:    "base above cap",
			config:  Config{ProjectRoot: "/tmp/p", Personality: PersonalityConfig{Base: 0.9, Cap: 0.8}},
			wantErr: ErrBaseInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
