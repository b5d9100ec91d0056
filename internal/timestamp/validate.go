package timestamp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date issue kinds.
const (
	IssueInvalid = "invalid" // not a calendar date, e.g. 2025-02-30
	IssueFuture  = "future"  // later than now plus the allowed days
)

// Issue is one suspicious date found in text.
type Issue struct {
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})`),
	regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`),
	regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})`),
}

// Validator flags impossible and future dates in documents.
type Validator struct {
	Now           time.Time
	MaxFutureDays int
	Loc           *time.Location
}

// ValidateText returns the issues found in text, in line order. Lines of any
// length are checked.
func (v Validator) ValidateText(text string) []Issue {
	var issues []Issue
	for i, s := range strings.Split(text, "\n") {
		issues = append(issues, v.validateLine(strings.TrimSuffix(s, "\r"), i+1)...)
	}
	return issues
}

func (v Validator) validateLine(s string, line int) []Issue {
	loc := v.Loc
	if loc == nil {
		loc = time.Local
	}
	now := v.Now
	if now.IsZero() {
		now = time.Now()
	}
	y0, m0, d0 := now.In(loc).Date()
	limit := time.Date(y0, m0, d0, 0, 0, 0, 0, loc).AddDate(0, 0, v.MaxFutureDays)

	var issues []Issue
	for _, re := range datePatterns {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])

			t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
			if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
				issues = append(issues, Issue{
					Line: line, Text: m[0], Kind: IssueInvalid,
					Detail: fmt.Sprintf("%04d-%02d-%02d is not a calendar date", y, mo, d),
				})
				continue
			}
			if t.After(limit) {
				issues = append(issues, Issue{
					Line: line, Text: m[0], Kind: IssueFuture,
					Detail: fmt.Sprintf("%s is after %s", t.Format("2006-01-02"), limit.Format("2006-01-02")),
				})
			}
		}
	}
	return issues
}

// DefaultDocGlobs are the file names ValidateFiles checks when none are
// given.
var DefaultDocGlobs = []string{"*.md", "*.txt"}

// ValidateFiles walks root and validates every file whose base name matches
// one of globs. Directories named in skip are not entered.
func (v Validator) ValidateFiles(ctx context.Context, root string, globs, skip []string) ([]Issue, error) {
	if len(globs) == 0 {
		globs = DefaultDocGlobs
	}
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	var issues []Issue
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipSet[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !matchAny(globs, d.Name()) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		for _, is := range v.ValidateText(string(data)) {
			is.Path = filepath.ToSlash(rel)
			issues = append(issues, is)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate dates under %s: %w", root, err)
	}
	return issues, nil
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}
