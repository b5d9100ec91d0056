package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// AppendScan records a scan summary and its violations in one transaction.
// Returns the scan ID.
func (s *Store) AppendScan(rec types.ScanRecord, violations []types.Violation) (string, error) {
	if rec.ID == "" {
		rec.ID = newUUID()
	}
	created := s.stamp(rec.CreatedAt)

	err := s.withWrite(func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(
			`INSERT INTO scans (scan_id, root, total_files, violations, compliance, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Root, rec.TotalFiles, rec.Violations, rec.Compliance, created); err != nil {
			return fmt.Errorf("inserting scan: %w", err)
		}

		stmt, err := tx.Prepare(
			`INSERT INTO violations (violation_id, scan_id, rule_id, path, severity, action, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range violations {
			if _, err := stmt.Exec(newUUID(), rec.ID, v.RuleID, v.Path, v.Severity, v.Action, created); err != nil {
				return fmt.Errorf("inserting violation: %w", err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// RecentScans returns up to limit scans, newest first.
func (s *Store) RecentScans(limit int) ([]types.ScanRecord, error) {
	var out []types.ScanRecord
	err := s.withRead(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT scan_id, root, total_files, violations, compliance, created_at
			 FROM scans ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOrDefault(limit))
		if err != nil {
			return fmt.Errorf("querying scans: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.ScanRecord
			var created string
			if err := rows.Scan(&r.ID, &r.Root, &r.TotalFiles, &r.Violations, &r.Compliance, &created); err != nil {
				return fmt.Errorf("scanning scan: %w", err)
			}
			if r.CreatedAt, err = parseTime(created); err != nil {
				return fmt.Errorf("parsing scan created_at: %w", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// RecentViolations returns up to limit violation rows, newest first.
func (s *Store) RecentViolations(limit int) ([]types.ViolationRecord, error) {
	var out []types.ViolationRecord
	err := s.withRead(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT violation_id, scan_id, rule_id, path, severity, action, created_at
			 FROM violations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOrDefault(limit))
		if err != nil {
			return fmt.Errorf("querying violations: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.ViolationRecord
			var created string
			if err := rows.Scan(&r.ID, &r.ScanID, &r.RuleID, &r.Path, &r.Severity, &r.Action, &created); err != nil {
				return fmt.Errorf("scanning violation: %w", err)
			}
			if r.CreatedAt, err = parseTime(created); err != nil {
				return fmt.Errorf("parsing violation created_at: %w", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}

// LatestScan returns the most recent scan, or types.ErrNotFound when none
// has been logged.
func (s *Store) LatestScan() (types.ScanRecord, error) {
	scans, err := s.RecentScans(1)
	if err != nil {
		return types.ScanRecord{}, err
	}
	if len(scans) == 0 {
		return types.ScanRecord{}, types.ErrNotFound
	}
	return scans[0], nil
}
