package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// AppendQuarantineEvent records one file moved into or out of quarantine.
func (s *Store) AppendQuarantineEvent(ev types.QuarantineEvent) (string, error) {
	if ev.BatchID == "" {
		return "", types.ErrInvalidID
	}
	if ev.ID == "" {
		ev.ID = newUUID()
	}
	created := s.stamp(ev.CreatedAt)

	err := s.withWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO quarantine_events (event_id, batch_id, operation, original_path, quarantined_path, rule_id, error, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.BatchID, ev.Operation, ev.OriginalPath, ev.QuarantinedPath,
			nullString(ev.RuleID), nullString(ev.Error), created)
		if err != nil {
			return fmt.Errorf("inserting quarantine event: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// QuarantineHistory returns every event for batchID, oldest first. An empty
// batchID returns up to limit of the most recent events across all batches,
// newest first.
func (s *Store) QuarantineHistory(batchID string, limit int) ([]types.QuarantineEvent, error) {
	query := `SELECT event_id, batch_id, operation, original_path, quarantined_path, rule_id, error, created_at
		 FROM quarantine_events WHERE batch_id = ? ORDER BY created_at, rowid`
	args := []any{batchID}
	if batchID == "" {
		query = `SELECT event_id, batch_id, operation, original_path, quarantined_path, rule_id, error, created_at
		 FROM quarantine_events ORDER BY created_at DESC, rowid DESC LIMIT ?`
		args = []any{limitOrDefault(limit)}
	}

	var out []types.QuarantineEvent
	err := s.withRead(func(db *sql.DB) error {
		rows, err := db.Query(query, args...)
		if err != nil {
			return fmt.Errorf("querying quarantine events: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var ev types.QuarantineEvent
			var ruleID, errText sql.NullString
			var created string
			if err := rows.Scan(&ev.ID, &ev.BatchID, &ev.Operation, &ev.OriginalPath, &ev.QuarantinedPath,
				&ruleID, &errText, &created); err != nil {
				return fmt.Errorf("scanning quarantine event: %w", err)
			}
			ev.RuleID = ruleID.String
			ev.Error = errText.String
			if ev.CreatedAt, err = parseTime(created); err != nil {
				return fmt.Errorf("parsing quarantine event created_at: %w", err)
			}
			out = append(out, ev)
		}
		return rows.Err()
	})
	return out, err
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
