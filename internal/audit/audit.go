// Package audit scans a project tree for committed secrets and risky file
// permissions and condenses the result into a 0-100 score.
package audit

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
)

// Permission and file finding rule IDs.
const (
	RuleWorldWritable = "world-writable"
	RuleEnvFile       = "env-file"
)

const maxFileSize = 1 << 20

var skipDirs = map[string]bool{
	".git": true, ".mirralism": true, "node_modules": true, "__pycache__": true, ".venv": true,
}

// Finding is one audit hit. The matched value itself is never recorded.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Line        int    `json:"line,omitempty"`
	Severity    string `json:"severity"`
}

// Report is the outcome of one audit.
type Report struct {
	Root         string        `json:"root"`
	FilesScanned int           `json:"files_scanned"`
	Findings     []Finding     `json:"findings"`
	Score        int           `json:"score"`
	Duration     time.Duration `json:"duration"`
}

// Count returns the number of findings at severity.
func (r *Report) Count(severity string) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

// Score computes max(0, 100 - 20*high - 5*medium - 1*low).
func Score(findings []Finding) int {
	score := 100
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			score -= 20
		case SeverityMedium:
			score -= 5
		case SeverityLow:
			score--
		}
	}
	return max(score, 0)
}

// Auditor runs secret rules and permission checks.
type Auditor struct {
	rules   []Rule
	workers int
	logger  *zap.Logger
}

// New builds an Auditor. Nil rules selects DefaultRules.
func New(rules []Rule, logger *zap.Logger) (*Auditor, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}
	return &Auditor{rules: compiled, workers: runtime.GOMAXPROCS(0), logger: logging.OrNop(logger)}, nil
}

// Audit walks root and returns findings sorted by path, line and rule.
func (a *Auditor) Audit(ctx context.Context, root string) (*Report, error) {
	start := time.Now()
	var (
		files    []string
		findings []Finding
	)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		info, err := d.Info()
		if err != nil {
			return nil
		}
		findings = append(findings, fileFindings(rel, d.Name(), info)...)
		if info.Size() <= maxFileSize {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit %s: %w", root, err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found, err := a.scanFile(filepath.Join(root, filepath.FromSlash(rel)), rel)
			if err != nil {
				a.logger.Debug("skipping unreadable file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			if len(found) > 0 {
				mu.Lock()
				findings = append(findings, found...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		fi, fj := findings[i], findings[j]
		if fi.Path != fj.Path {
			return fi.Path < fj.Path
		}
		if fi.Line != fj.Line {
			return fi.Line < fj.Line
		}
		return fi.RuleID < fj.RuleID
	})
	rep := &Report{
		Root:         root,
		FilesScanned: len(files),
		Findings:     findings,
		Score:        Score(findings),
		Duration:     time.Since(start),
	}
	a.logger.Info("audit complete",
		zap.String("root", root),
		zap.Int("files", rep.FilesScanned),
		zap.Int("findings", len(findings)),
		zap.Int("score", rep.Score))
	return rep, nil
}

func fileFindings(rel, name string, info fs.FileInfo) []Finding {
	var out []Finding
	if info.Mode().Perm()&0o002 != 0 {
		out = append(out, Finding{
			RuleID:      RuleWorldWritable,
			Description: "File is world-writable",
			Path:        rel,
			Severity:    SeverityMedium,
		})
	}
	if isEnvFile(name) {
		out = append(out, Finding{
			RuleID:      RuleEnvFile,
			Description: "Environment file inside the project tree",
			Path:        rel,
			Severity:    SeverityLow,
		})
	}
	return out
}

// isEnvFile matches .env and .env.* but not templates like .env.example.
func isEnvFile(name string) bool {
	if name == ".env" {
		return true
	}
	if !strings.HasPrefix(name, ".env.") {
		return false
	}
	switch strings.TrimPrefix(name, ".env.") {
	case "example", "sample", "template":
		return false
	}
	return true
}

func (a *Auditor) scanFile(abs, rel string) ([]Finding, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Finding
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxFileSize)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		for _, r := range a.rules {
			if r.re.MatchString(text) {
				out = append(out, Finding{
					RuleID:      r.ID,
					Description: r.Description,
					Path:        rel,
					Line:        line,
					Severity:    r.Severity,
				})
			}
		}
	}
	return out, sc.Err()
}
