package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// AppendJournalEntry stores an imported journal entry. Returns ErrDuplicate
// when an entry with the same hash exists.
func (s *Store) AppendJournalEntry(e types.JournalEntry) (string, error) {
	if e.Hash == "" {
		return "", fmt.Errorf("journal entry: empty hash")
	}
	if e.ID == "" {
		e.ID = newUUID()
	}
	imported := s.stamp(e.ImportedAt)

	err := s.withWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO journal_entries (entry_id, source, recorded_at, fix, mode, duration_ms, text, hash, score, imported_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Source, formatTime(e.RecordedAt), e.Fix, nullString(e.Mode), e.DurationMS,
			e.Text, e.Hash, e.Score, imported)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: journal hash %s", types.ErrDuplicate, e.Hash)
			}
			return fmt.Errorf("inserting journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// HasJournalHash reports whether an entry with hash has been imported.
func (s *Store) HasJournalHash(hash string) (bool, error) {
	var found bool
	err := s.withRead(func(db *sql.DB) error {
		var one int
		err := db.QueryRow(`SELECT 1 FROM journal_entries WHERE hash = ?`, hash).Scan(&one)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("querying journal hash: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

// JournalEntries returns entries recorded at or after since, oldest first.
// A zero since returns every entry.
func (s *Store) JournalEntries(since time.Time) ([]types.JournalEntry, error) {
	var out []types.JournalEntry
	err := s.withRead(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT entry_id, source, recorded_at, fix, mode, duration_ms, text, hash, score, imported_at
			 FROM journal_entries WHERE recorded_at >= ? ORDER BY recorded_at, rowid`, formatTime(since))
		if err != nil {
			return fmt.Errorf("querying journal entries: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var e types.JournalEntry
			var mode sql.NullString
			var recorded, imported string
			if err := rows.Scan(&e.ID, &e.Source, &recorded, &e.Fix, &mode, &e.DurationMS,
				&e.Text, &e.Hash, &e.Score, &imported); err != nil {
				return fmt.Errorf("scanning journal entry: %w", err)
			}
			e.Mode = mode.String
			if e.RecordedAt, err = parseTime(recorded); err != nil {
				return fmt.Errorf("parsing journal recorded_at: %w", err)
			}
			if e.ImportedAt, err = parseTime(imported); err != nil {
				return fmt.Errorf("parsing journal imported_at: %w", err)
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

// isUniqueViolation matches SQLite's UNIQUE constraint failure message.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
