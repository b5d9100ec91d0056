package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// timeLayout is fixed-width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements types.Store on a single SQLite file.
type Store struct {
	mu       sync.RWMutex
	attached bool
	path     string
	db       *sql.DB
	logger   *zap.Logger
	now      func() time.Time
}

var _ types.Store = (*Store)(nil)

// NewStore creates a new, detached store. Call Attach to open a database.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Attach opens the database at path, creating the parent directory and the
// schema if needed. Existing rows are kept.
// Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if path == "" {
		return fmt.Errorf("attach: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enable foreign keys: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create index: %w", err)
		}
	}

	s.db = db
	s.path = path
	s.attached = true
	s.logger.Debug("store attached", zap.String("path", path))
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	s.attached = false
	s.logger.Debug("store detached", zap.String("path", s.path))
	return nil
}

// Path returns the database file the store is attached to.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// stamp returns t in storage format, or now when t is zero.
func (s *Store) stamp(t time.Time) string {
	if t.IsZero() {
		t = s.now()
	}
	return formatTime(t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(timeLayout, v)
}

// withRead runs fn under the read lock after checking attachment.
func (s *Store) withRead(fn func(db *sql.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	return fn(s.db)
}

// withWrite runs fn under the write lock after checking attachment.
func (s *Store) withWrite(fn func(db *sql.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	return fn(s.db)
}

// limitOrDefault maps non-positive limits to 50.
func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
