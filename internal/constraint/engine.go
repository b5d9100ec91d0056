package constraint

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// Engine evaluates paths against an ordered rule set.
type Engine struct {
	rules   []types.Rule
	exclude []string
	logger  *zap.Logger
}

// NewEngine validates rules and returns an Engine. A nil or empty rule set
// uses DefaultRules. Exclude globs are matched against every path segment
// and against the whole relative path; DefaultExclude is always applied.
func NewEngine(rules []types.Rule, exclude []string, logger *zap.Logger) (*Engine, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate rule id %q", types.ErrRuleInvalid, r.ID)
		}
		seen[r.ID] = true
	}
	for _, g := range exclude {
		if _, err := path.Match(g, ""); err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", g, err)
		}
	}
	return &Engine{
		rules:   rules,
		exclude: append(append([]string(nil), DefaultExclude...), exclude...),
		logger:  logging.OrNop(logger),
	}, nil
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() []types.Rule {
	return append([]types.Rule(nil), e.rules...)
}

// Rule returns the rule with the given ID.
func (e *Engine) Rule(id string) (types.Rule, bool) {
	for _, r := range e.rules {
		if r.ID == id {
			return r, true
		}
	}
	return types.Rule{}, false
}

// Check matches a slash-separated relative path against the rules. The first
// matching rule in order wins. Size and ModTime are left zero.
func (e *Engine) Check(rel string) (types.Violation, bool) {
	rel = filepath.ToSlash(rel)
	if e.Excluded(rel) {
		return types.Violation{}, false
	}
	base := path.Base(rel)
	for _, r := range e.rules {
		subject := base
		if r.Match == types.MatchPath {
			subject = rel
		}
		for _, p := range r.Patterns {
			// Patterns were validated in NewEngine.
			if ok, _ := path.Match(p, subject); ok {
				return types.Violation{
					RuleID:   r.ID,
					Path:     rel,
					Pattern:  p,
					Severity: r.Severity,
					Action:   r.Action,
				}, true
			}
		}
	}
	return types.Violation{}, false
}

// Excluded reports whether rel, any of its directory segments, or any of its
// leading directory prefixes matches an exclude glob.
func (e *Engine) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, g := range e.exclude {
		for i, s := range segments {
			if ok, _ := path.Match(g, s); ok {
				return true
			}
			if ok, _ := path.Match(g, strings.Join(segments[:i+1], "/")); ok {
				return true
			}
		}
	}
	return false
}

// LiteralPattern escapes glob metacharacters so s matches only itself.
func LiteralPattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExcludeWithin returns literal exclude patterns for each target that lies
// strictly inside root. Targets outside root are skipped.
func ExcludeWithin(root string, targets ...string) []string {
	var out []string
	for _, t := range targets {
		if t == "" {
			continue
		}
		rel, err := filepath.Rel(root, t)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, LiteralPattern(filepath.ToSlash(rel)))
	}
	return out
}

// ScanResult is the outcome of one Scan.
type ScanResult struct {
	Root       string            `json:"root"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	TotalFiles int               `json:"total_files"`
	Violations []types.Violation `json:"violations"`
}

// Compliance returns the share of files without a violation as a percentage
// in [0, 100]. An empty tree is fully compliant.
func (r *ScanResult) Compliance() float64 {
	if r.TotalFiles == 0 {
		return 100
	}
	c := 100 * float64(r.TotalFiles-len(r.Violations)) / float64(r.TotalFiles)
	return min(max(c, 0), 100)
}

// ByRule returns violation counts keyed by rule ID.
func (r *ScanResult) ByRule() map[string]int {
	out := make(map[string]int)
	for _, v := range r.Violations {
		out[v.RuleID]++
	}
	return out
}

// BySeverity returns violation counts keyed by severity.
func (r *ScanResult) BySeverity() map[string]int {
	out := make(map[string]int)
	for _, v := range r.Violations {
		out[v.Severity]++
	}
	return out
}

// Actionable returns the violations whose action is quarantine.
func (r *ScanResult) Actionable() []types.Violation {
	var out []types.Violation
	for _, v := range r.Violations {
		if v.Action == types.ActionQuarantine {
			out = append(out, v)
		}
	}
	return out
}

// Scan walks root and checks every regular file. Excluded directories are
// skipped entirely. Symlinks are counted but not followed. Violations are
// returned sorted by path.
func (e *Engine) Scan(ctx context.Context, root string) (*ScanResult, error) {
	res := &ScanResult{Root: root, StartedAt: time.Now()}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if e.Excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if e.Excluded(rel) {
			return nil
		}

		res.TotalFiles++
		v, ok := e.Check(rel)
		if !ok {
			return nil
		}
		if info, err := d.Info(); err == nil {
			v.Size = info.Size()
			v.ModTime = info.ModTime()
		}
		res.Violations = append(res.Violations, v)
		e.logger.Debug("constraint violation",
			zap.String("rule", v.RuleID),
			zap.String("path", v.Path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(res.Violations, func(i, j int) bool {
		return res.Violations[i].Path < res.Violations[j].Path
	})
	res.Duration = time.Since(res.StartedAt)

	e.logger.Info("scan complete",
		zap.String("root", root),
		zap.Int("files", res.TotalFiles),
		zap.Int("violations", len(res.Violations)),
		zap.Float64("compliance", res.Compliance()))
	return res, nil
}
