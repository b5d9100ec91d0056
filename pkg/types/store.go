package types

import (
	"errors"
	"time"
)

// Store is the append-only log the toolkit writes its results to.
// Callers attach to a database file, append and query records, and detach
// when done.
type Store interface {
	// Attach opens (or creates) the database at path and ensures the schema.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(path string) error

	// Detach releases the database. Idempotent.
	Detach() error

	AppendScan(rec ScanRecord, violations []Violation) (string, error)
	AppendQuarantineEvent(ev QuarantineEvent) (string, error)
	AppendScore(rec ScoreRecord) (string, error)
	AppendJournalEntry(e JournalEntry) (string, error)
	AppendAudit(rec AuditRecord) (string, error)

	RecentScans(limit int) ([]ScanRecord, error)
	LatestScan() (ScanRecord, error)
	RecentViolations(limit int) ([]ViolationRecord, error)
	RecentScores(limit int) ([]ScoreRecord, error)
	QuarantineHistory(batchID string, limit int) ([]QuarantineEvent, error)
	JournalEntries(since time.Time) ([]JournalEntry, error)
	HasJournalHash(hash string) (bool, error)
}

// Store lifecycle and lookup errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrDuplicate       = errors.New("duplicate record")
)
