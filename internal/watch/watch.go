// Package watch enforces file constraints continuously: it watches a project
// tree and quarantines violating files shortly after they appear.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/constraint"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/quarantine"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// DefaultDebounce is how long a path must stay quiet before it is checked.
const DefaultDebounce = 300 * time.Millisecond

// Quarantiner moves violating files out of the tree.
type Quarantiner interface {
	Quarantine(ctx context.Context, violations []types.Violation) (*quarantine.Manifest, error)
}

// Stats counts watcher activity.
type Stats struct {
	Events      int
	Checked     int
	Violations  int
	Quarantined int
	Errors      int
}

// Watcher ties an engine, a quarantine manager and an event log to a
// filesystem watch.
type Watcher struct {
	engine   *constraint.Engine
	q        Quarantiner
	log      quarantine.EventLog
	logger   *zap.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
}

// New returns a Watcher. log may be nil to skip event logging.
func New(engine *constraint.Engine, q Quarantiner, log quarantine.EventLog, logger *zap.Logger) *Watcher {
	return &Watcher{
		engine:   engine,
		q:        q,
		log:      log,
		logger:   logging.OrNop(logger),
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
	}
}

// SetDebounce changes the quiet period; non-positive values are ignored.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches root recursively until ctx is cancelled. Directories created
// while running are added to the watch, and files already inside them are
// checked too.
func (w *Watcher) Run(ctx context.Context, root string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, root, root, false); err != nil {
		return err
	}
	w.logger.Info("watching", zap.String("root", root), zap.Duration("debounce", w.debounce))

	tick := time.NewTicker(max(w.debounce/2, time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", zap.String("root", root))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, root, ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.count(func(s *Stats) { s.Errors++ })
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-tick.C:
			w.flush(ctx, root, now)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, root string, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	w.count(func(s *Stats) { s.Events++ })

	rel, err := filepath.Rel(root, ev.Name)
	if err != nil || w.engine.Excluded(rel) {
		return
	}
	info, err := os.Lstat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) {
			if err := w.addTree(fw, root, ev.Name, true); err != nil {
				w.logger.Warn("watch new directory", zap.String("path", rel), zap.Error(err))
			}
		}
		return
	}
	w.mark(ev.Name)
}

// addTree adds dir and its non-excluded subdirectories to the watch. When
// markFiles is set, regular files found along the way are queued.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root, dir string, markFiles bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		if p != root && w.engine.Excluded(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		if markFiles && d.Type().IsRegular() {
			w.mark(p)
		}
		return nil
	})
}

func (w *Watcher) mark(p string) {
	w.mu.Lock()
	w.pending[p] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) count(fn func(*Stats)) {
	w.mu.Lock()
	fn(&w.stats)
	w.mu.Unlock()
}

// flush checks every pending path that has been quiet for the debounce
// period and quarantines the violations as one batch.
func (w *Watcher) flush(ctx context.Context, root string, now time.Time) {
	w.mu.Lock()
	var ready []string
	for p, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			ready = append(ready, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()
	if len(ready) == 0 {
		return
	}

	var violations []types.Violation
	for _, p := range ready {
		info, err := os.Lstat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			continue
		}
		w.count(func(s *Stats) { s.Checked++ })
		v, ok := w.engine.Check(rel)
		if !ok {
			continue
		}
		v.Size = info.Size()
		v.ModTime = info.ModTime()
		w.count(func(s *Stats) { s.Violations++ })
		if v.Action != types.ActionQuarantine {
			w.logger.Info("violation reported",
				zap.String("path", v.Path),
				zap.String("rule", v.RuleID),
				zap.String("severity", v.Severity))
			continue
		}
		violations = append(violations, v)
	}
	if len(violations) == 0 {
		return
	}

	man, err := w.q.Quarantine(ctx, violations)
	if err != nil && !errors.Is(err, quarantine.ErrNothingToQuarantine) {
		w.count(func(s *Stats) { s.Errors++ })
		w.logger.Error("quarantine failed", zap.Error(err))
	}
	if man == nil {
		return
	}
	w.count(func(s *Stats) { s.Quarantined += man.Moved() })
	if w.log != nil {
		if err := quarantine.LogEvents(w.log, man.Events()); err != nil {
			w.logger.Error("logging quarantine events", zap.Error(err))
		}
	}
}
