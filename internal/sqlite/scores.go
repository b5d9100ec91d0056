package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// AppendScore records one personality score.
func (s *Store) AppendScore(rec types.ScoreRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = newUUID()
	}
	created := s.stamp(rec.CreatedAt)

	err := s.withWrite(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO personality_scores (score_id, source, excerpt, score, bonus, matches, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Source, rec.Excerpt, rec.Score, rec.Bonus, rec.Matches, created)
		if err != nil {
			return fmt.Errorf("inserting score: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// RecentScores returns up to limit scores, newest first.
func (s *Store) RecentScores(limit int) ([]types.ScoreRecord, error) {
	var out []types.ScoreRecord
	err := s.withRead(func(db *sql.DB) error {
		rows, err := db.Query(
			`SELECT score_id, source, excerpt, score, bonus, matches, created_at
			 FROM personality_scores ORDER BY created_at DESC, rowid DESC LIMIT ?`, limitOrDefault(limit))
		if err != nil {
			return fmt.Errorf("querying scores: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var r types.ScoreRecord
			var created string
			if err := rows.Scan(&r.ID, &r.Source, &r.Excerpt, &r.Score, &r.Bonus, &r.Matches, &created); err != nil {
				return fmt.Errorf("scanning score: %w", err)
			}
			if r.CreatedAt, err = parseTime(created); err != nil {
				return fmt.Errorf("parsing score created_at: %w", err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	return out, err
}
