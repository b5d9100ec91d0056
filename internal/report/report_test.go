package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWriter(t *testing.T, at time.Time) *Writer {
	t.Helper()
	w := NewWriter(filepath.Join(t.TempDir(), "reports"))
	w.now = func() time.Time { return at }
	return w
}

func TestWriter_Write(t *testing.T) {
	at := time.Date(2025, 6, 4, 9, 30, 0, 0, time.Local)
	w := fixedWriter(t, at)

	p, err := w.Write("scan", map[string]int{"violations": 2})
	require.NoError(t, err)
	assert.Equal(t, "scan_20250604_093000.json", filepath.Base(p))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got["violations"])

	second, err := w.Write("scan", map[string]int{"violations": 3})
	require.NoError(t, err)
	assert.Equal(t, "scan_20250604_093000_1.json", filepath.Base(second))

	leftovers, err := filepath.Glob(filepath.Join(w.Dir, ".report-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriter_InvalidKind(t *testing.T) {
	w := fixedWriter(t, time.Now())
	for _, kind := range []string{"", "../escape", "Scan"} {
		_, err := w.Write(kind, nil)
		assert.Error(t, err, kind)
	}
}

func TestWriter_Latest(t *testing.T) {
	w := fixedWriter(t, time.Date(2025, 6, 4, 9, 30, 0, 0, time.Local))

	_, err := w.Latest("audit")
	assert.True(t, errors.Is(err, ErrNoReport))

	for i := 0; i < 11; i++ {
		_, err := w.Write("audit", i)
		require.NoError(t, err)
	}
	w.now = func() time.Time { return time.Date(2025, 6, 3, 0, 0, 0, 0, time.Local) }
	_, err = w.Write("audit", "older")
	require.NoError(t, err)
	_, err = w.Write("scan", "other kind")
	require.NoError(t, err)

	latest, err := w.Latest("audit")
	require.NoError(t, err)
	assert.Equal(t, "audit_20250604_093000_10.json", filepath.Base(latest))
}
