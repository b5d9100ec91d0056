package audit

import (
	"fmt"
	"regexp"
)

// Severity levels used by rules and findings.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Rule is a secret pattern matched line by line.
type Rule struct {
	ID          string
	Description string
	Pattern     string
	Severity    string

	re *regexp.Regexp
}

// DefaultRules returns the secret patterns checked by Audit.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "aws-access-key-id",
			Description: "AWS Access Key ID",
			Pattern:     `(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "notion-token",
			Description: "Notion integration token",
			Pattern:     `\b(?:secret_[A-Za-z0-9]{43}|ntn_[A-Za-z0-9]{40,})\b`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "openai-key",
			Description: "OpenAI API key",
			Pattern:     `\bsk-(?:proj-)?[A-Za-z0-9_\-]{32,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "github-token",
			Description: "GitHub token",
			Pattern:     `\b(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}\b|github_pat_[A-Za-z0-9_]{22,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "private-key",
			Description: "Private key",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "generic-api-key",
			Description: "Hard-coded API key assignment",
			Pattern:     `(?i)\b(?:api[_-]?key|apikey|access[_-]?token)\s*[:=]\s*['"][A-Za-z0-9_\-]{16,}['"]`,
			Severity:    SeverityMedium,
		},
	}
}

func compile(rules []Rule) ([]Rule, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.ID, err)
		}
		r.re = re
		out[i] = r
	}
	return out, nil
}
