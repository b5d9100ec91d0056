package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// exportTables lists the tables ExportJSONL writes, one file per table.
var exportTables = []string{
	"scans",
	"violations",
	"quarantine_events",
	"personality_scores",
	"journal_entries",
	"audits",
}

// ExportJSONL writes every log table to <dir>/<table>.jsonl, one JSON object
// per row in insertion order. Each file is replaced atomically. Returns the
// number of rows written per table.
func (s *Store) ExportJSONL(dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	counts := make(map[string]int, len(exportTables))
	err := s.withRead(func(db *sql.DB) error {
		for _, table := range exportTables {
			records, err := dumpTable(db, table)
			if err != nil {
				return err
			}
			if err := writeJSONL(filepath.Join(dir, table+".jsonl"), records); err != nil {
				return fmt.Errorf("export %s: %w", table, err)
			}
			counts[table] = len(records)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// dumpTable reads all rows of table as JSON objects keyed by column name.
func dumpTable(db *sql.DB, table string) ([]json.RawMessage, error) {
	rows, err := db.Query("SELECT * FROM " + table + " ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		obj := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				obj[c] = string(b)
				continue
			}
			obj[c] = values[i]
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("marshal %s row: %w", table, err)
		}
		records = append(records, data)
	}
	return records, rows.Err()
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
