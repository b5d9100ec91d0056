package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// AppendAudit records the summary of one security audit.
func (s *Store) AppendAudit(rec types.AuditRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = newUUID()
	}
	created := s.stamp(rec.CreatedAt)

	err := s.withWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO audits (audit_id, root, findings, high, score, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Root, rec.Findings, rec.High, rec.Score, created)
		if err != nil {
			return fmt.Errorf("inserting audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}
