// Package depscan finds the files that reference a set of targets (paths,
// module names, script names) so moves and deletions can be checked before
// they break something.
package depscan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
)

// DefaultExtensions are the file types scanned when Options.Extensions is
// empty.
var DefaultExtensions = []string{".py", ".go", ".md", ".json", ".yaml", ".yml", ".sh", ".toml", ".txt"}

// ErrInvalidTarget is returned when no targets are given or a target is empty.
var ErrInvalidTarget = errors.New("depscan: invalid target")

// DefaultSkipDirs are never entered.
var DefaultSkipDirs = []string{".git", ".mirralism", "node_modules", "__pycache__", ".venv"}

// MaxFileSize bounds the files read; larger files are skipped.
const MaxFileSize = 1 << 20

// Options tunes a scan.
type Options struct {
	Extensions []string
	SkipDirs   []string
	Workers    int
	Logger     *zap.Logger
}

// Reference is one line that mentions a target.
type Reference struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Result maps each target to the references found for it.
type Result struct {
	Root         string                 `json:"root"`
	FilesScanned int                    `json:"files_scanned"`
	References   map[string][]Reference `json:"references"`
}

// Unreferenced returns the targets nothing refers to, sorted.
func (r *Result) Unreferenced() []string {
	var out []string
	for t, refs := range r.References {
		if len(refs) == 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Files returns the distinct files referencing target, sorted.
func (r *Result) Files(target string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ref := range r.References[target] {
		if !seen[ref.Path] {
			seen[ref.Path] = true
			out = append(out, ref.Path)
		}
	}
	sort.Strings(out)
	return out
}

// Scan reads every matching file under root and records the lines that
// contain any target. A file never counts as referencing itself: a target
// equal to the file's relative path, or its base name, is ignored there.
func Scan(ctx context.Context, root string, targets []string, opts Options) (*Result, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no targets", ErrInvalidTarget)
	}
	for i, t := range targets {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: target %d is empty", ErrInvalidTarget, i+1)
		}
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	skip := make(map[string]bool)
	for _, d := range append(append([]string(nil), DefaultSkipDirs...), opts.SkipDirs...) {
		skip[d] = true
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := logging.OrNop(opts.Logger)

	files, err := collect(root, exts, skip)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Root:         root,
		FilesScanned: len(files),
		References:   make(map[string][]Reference, len(targets)),
	}
	for _, t := range targets {
		res.References[t] = nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found, err := scanFile(root, rel, targets)
			if err != nil {
				logger.Debug("skipping unreadable file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			for t, refs := range found {
				res.References[t] = append(res.References[t], refs...)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for t := range res.References {
		refs := res.References[t]
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Path != refs[j].Path {
				return refs[i].Path < refs[j].Path
			}
			return refs[i].Line < refs[j].Line
		})
	}
	logger.Info("dependency scan complete",
		zap.String("root", root),
		zap.Int("files", res.FilesScanned),
		zap.Int("targets", len(targets)))
	return res, nil
}

// collect lists candidate files relative to root.
func collect(root string, exts []string, skip map[string]bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skip[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !hasExt(d.Name(), exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > MaxFileSize {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files under %s: %w", root, err)
	}
	return files, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func scanFile(root, rel string, targets []string) (map[string][]Reference, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	active := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != rel && t != filepath.Base(rel) {
			active = append(active, t)
		}
	}

	found := make(map[string][]Reference)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxFileSize)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		for _, t := range active {
			if strings.Contains(text, t) {
				found[t] = append(found[t], Reference{Path: rel, Line: line, Text: strings.TrimSpace(text)})
			}
		}
	}
	return found, sc.Err()
}
