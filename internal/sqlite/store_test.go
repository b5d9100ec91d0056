package sqlite

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

func attachedStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".mirralism", "mirralism.db")
	s := NewStore(nil)
	if err := s.Attach(path); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { s.Detach() })
	return s, path
}

func TestStore_Attach(t *testing.T) {
	s, path := attachedStore(t)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file not created")
	}

	err := s.Attach(path)
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestStore_Detach(t *testing.T) {
	s, _ := attachedStore(t)

	if err := s.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := s.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	if _, err := s.AppendScore(types.ScoreRecord{Source: "x"}); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("expected ErrStoreDetached, got %v", err)
	}
	if _, err := s.RecentScans(10); !errors.Is(err, types.ErrStoreDetached) {
		t.Errorf("expected ErrStoreDetached, got %v", err)
	}
}

func TestStore_HistorySurvivesReattach(t *testing.T) {
	s, path := attachedStore(t)

	_, err := s.AppendScore(types.ScoreRecord{Source: "cli", Excerpt: "hello", Score: 0.6})
	require.NoError(t, err)
	require.NoError(t, s.Detach())

	require.NoError(t, s.Attach(path))
	scores, err := s.RecentScores(10)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "hello", scores[0].Excerpt)
}

func TestStore_AppendScan(t *testing.T) {
	s, _ := attachedStore(t)
	base := time.Date(2025, 6, 5, 9, 0, 0, 0, time.UTC)

	id1, err := s.AppendScan(types.ScanRecord{Root: "/p", TotalFiles: 4, Violations: 1, Compliance: 75, CreatedAt: base},
		[]types.Violation{{RuleID: "redirect", Path: "Core/A_REDIRECT.md", Severity: types.SeverityHigh, Action: types.ActionQuarantine}})
	require.NoError(t, err)
	id2, err := s.AppendScan(types.ScanRecord{Root: "/p", TotalFiles: 4, Compliance: 100, CreatedAt: base.Add(time.Hour)}, nil)
	require.NoError(t, err)

	scans, err := s.RecentScans(10)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, id2, scans[0].ID)
	assert.Equal(t, id1, scans[1].ID)
	assert.Equal(t, 75.0, scans[1].Compliance)
	assert.True(t, scans[1].CreatedAt.Equal(base))

	violations, err := s.RecentViolations(10)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, id1, violations[0].ScanID)
	assert.Equal(t, "Core/A_REDIRECT.md", violations[0].Path)

	limited, err := s.RecentScans(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := s.LatestScan()
	require.NoError(t, err)
	assert.Equal(t, id2, latest.ID)
}

func TestStore_LatestScanEmpty(t *testing.T) {
	s, _ := attachedStore(t)

	_, err := s.LatestScan()
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestStore_QuarantineEvents(t *testing.T) {
	s, _ := attachedStore(t)

	_, err := s.AppendQuarantineEvent(types.QuarantineEvent{Operation: types.OpQuarantine})
	assert.ErrorIs(t, err, types.ErrInvalidID)

	for _, p := range []string{"a.bak", "b.bak"} {
		_, err := s.AppendQuarantineEvent(types.QuarantineEvent{
			BatchID: "batch-1", Operation: types.OpQuarantine,
			OriginalPath: p, QuarantinedPath: "files/" + p, RuleID: "backup",
		})
		require.NoError(t, err)
	}
	_, err = s.AppendQuarantineEvent(types.QuarantineEvent{
		BatchID: "batch-2", Operation: types.OpQuarantine,
		OriginalPath: "c.tmp", QuarantinedPath: "files/c.tmp", Error: "permission denied",
	})
	require.NoError(t, err)

	events, err := s.QuarantineHistory("batch-1", 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a.bak", events[0].OriginalPath)
	assert.Equal(t, "backup", events[0].RuleID)

	all, err := s.QuarantineHistory("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "permission denied", all[0].Error)
	assert.Empty(t, all[0].RuleID)

	recent, err := s.QuarantineHistory("", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestStore_QuarantineHistoryLimitAboveDefault(t *testing.T) {
	s, _ := attachedStore(t)
	for i := range 60 {
		_, err := s.AppendQuarantineEvent(types.QuarantineEvent{
			BatchID: "batch-1", Operation: types.OpQuarantine,
			OriginalPath: fmt.Sprintf("f%02d.bak", i), QuarantinedPath: fmt.Sprintf("files/f%02d.bak", i),
		})
		require.NoError(t, err)
	}

	all, err := s.QuarantineHistory("", 100)
	require.NoError(t, err)
	assert.Len(t, all, 60)

	def, err := s.QuarantineHistory("", 0)
	require.NoError(t, err)
	assert.Len(t, def, 50)
}

func TestStore_JournalEntries(t *testing.T) {
	s, _ := attachedStore(t)
	day := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	entry := types.JournalEntry{
		Source: "rec-1", RecordedAt: day.Add(8 * time.Hour), Fix: "none",
		Text: "morning note", Hash: "h1", Score: 0.55, DurationMS: 1200,
	}
	_, err := s.AppendJournalEntry(entry)
	require.NoError(t, err)

	_, err = s.AppendJournalEntry(entry)
	assert.ErrorIs(t, err, types.ErrDuplicate)

	_, err = s.AppendJournalEntry(types.JournalEntry{Source: "rec-0", RecordedAt: day.Add(-48 * time.Hour), Text: "old", Hash: "h0", Mode: "note"})
	require.NoError(t, err)

	ok, err := s.HasJournalHash("h1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.HasJournalHash("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	recent, err := s.JournalEntries(day)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "morning note", recent[0].Text)
	assert.Equal(t, int64(1200), recent[0].DurationMS)

	all, err := s.JournalEntries(time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "old", all[0].Text)
	assert.Equal(t, "note", all[0].Mode)
}

func TestStore_ExportJSONL(t *testing.T) {
	s, _ := attachedStore(t)

	_, err := s.AppendAudit(types.AuditRecord{Root: "/p", Findings: 2, High: 1, Score: 75})
	require.NoError(t, err)
	_, err = s.AppendScore(types.ScoreRecord{Source: "cli", Excerpt: "x", Score: 0.5})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "export")
	counts, err := s.ExportJSONL(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["audits"])
	assert.Equal(t, 1, counts["personality_scores"])
	assert.Equal(t, 0, counts["scans"])

	f, err := os.Open(filepath.Join(dir, "audits.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var row map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
	assert.Equal(t, "/p", row["root"])
	assert.EqualValues(t, 2, row["findings"])
	assert.False(t, sc.Scan())
}
