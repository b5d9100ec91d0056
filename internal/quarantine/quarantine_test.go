package quarantine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

func setup(t *testing.T, files ...string) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("content of "+f), 0o644))
	}
	m := New(root, filepath.Join(root, ".mirralism", "quarantine"), nil)
	m.now = func() time.Time { return time.Date(2025, 6, 5, 10, 30, 0, 0, time.UTC) }
	return m, root
}

func violation(p, action string) types.Violation {
	return types.Violation{RuleID: "redirect", Path: p, Severity: types.SeverityHigh, Action: action}
}

func TestQuarantine_MovesAndWritesManifest(t *testing.T) {
	m, root := setup(t, "Core/A_REDIRECT.md", "Data/copy.md")

	man, err := m.Quarantine(context.Background(), []types.Violation{
		violation("Core/A_REDIRECT.md", types.ActionQuarantine),
		violation("Data/copy.md", types.ActionReport),
	})
	require.NoError(t, err)

	assert.Equal(t, "20250605_103000", man.Folder)
	assert.NotEmpty(t, man.BatchID)
	assert.Equal(t, 1, man.Moved())
	require.Len(t, man.Items, 2)
	assert.Equal(t, StatusMoved, man.Items[0].Status)
	assert.Equal(t, StatusSkipped, man.Items[1].Status)

	assert.NoFileExists(t, filepath.Join(root, "Core", "A_REDIRECT.md"))
	assert.FileExists(t, filepath.Join(root, "Data", "copy.md"))

	moved := filepath.Join(m.Dir(), man.Folder, "files", "Core", "A_REDIRECT.md")
	data, err := os.ReadFile(moved)
	require.NoError(t, err)
	assert.Equal(t, "content of Core/A_REDIRECT.md", string(data))
	assert.FileExists(t, filepath.Join(m.Dir(), man.Folder, ManifestFileName))
}

func TestQuarantine_Empty(t *testing.T) {
	m, _ := setup(t)
	_, err := m.Quarantine(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNothingToQuarantine)

	_, statErr := os.Stat(m.Dir())
	assert.True(t, os.IsNotExist(statErr), "quarantine dir must not be created")
}

func TestQuarantine_MissingFileRecordedAsFailed(t *testing.T) {
	m, _ := setup(t, "a.bak")

	man, err := m.Quarantine(context.Background(), []types.Violation{
		violation("missing.bak", types.ActionQuarantine),
		violation("a.bak", types.ActionQuarantine),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, man.Moved())
	failed := man.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "missing.bak", failed[0].OriginalPath)
	assert.NotEmpty(t, failed[0].Error)
}

func TestQuarantine_RejectsEscapingPaths(t *testing.T) {
	m, _ := setup(t)
	man, err := m.Quarantine(context.Background(), []types.Violation{
		violation("../outside.txt", types.ActionQuarantine),
	})
	require.NoError(t, err)
	require.Len(t, man.Items, 1)
	assert.Equal(t, StatusFailed, man.Items[0].Status)
	assert.Contains(t, man.Items[0].Error, ErrOutsideRoot.Error())
}

func TestQuarantine_SameSecondGetsSuffix(t *testing.T) {
	m, _ := setup(t, "a.bak", "b.bak")

	first, err := m.Quarantine(context.Background(), []types.Violation{violation("a.bak", types.ActionQuarantine)})
	require.NoError(t, err)
	second, err := m.Quarantine(context.Background(), []types.Violation{violation("b.bak", types.ActionQuarantine)})
	require.NoError(t, err)

	assert.Equal(t, "20250605_103000", first.Folder)
	assert.Equal(t, "20250605_103000_1", second.Folder)
}

func TestRestore(t *testing.T) {
	m, root := setup(t, "Core/A_REDIRECT.md", "Core/B_REDIRECT.md")

	man, err := m.Quarantine(context.Background(), []types.Violation{
		violation("Core/A_REDIRECT.md", types.ActionQuarantine),
		violation("Core/B_REDIRECT.md", types.ActionQuarantine),
	})
	require.NoError(t, err)

	// A new file appears where B used to be.
	require.NoError(t, os.WriteFile(filepath.Join(root, "Core", "B_REDIRECT.md"), []byte("new"), 0o644))

	res, err := m.Restore(man.Folder, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored())
	require.Len(t, res.Items, 2)
	assert.Equal(t, StatusRestored, res.Items[0].Status)
	assert.Equal(t, StatusExists, res.Items[1].Status)

	data, err := os.ReadFile(filepath.Join(root, "Core", "B_REDIRECT.md"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	// Overwrite puts the quarantined copy back.
	res, err = m.Restore(man.BatchID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Restored())
	data, err = os.ReadFile(filepath.Join(root, "Core", "B_REDIRECT.md"))
	require.NoError(t, err)
	assert.Equal(t, "content of Core/B_REDIRECT.md", string(data))
}

func TestLoadAndList(t *testing.T) {
	m, _ := setup(t, "a.bak", "b.bak")

	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := m.Quarantine(context.Background(), []types.Violation{violation("a.bak", types.ActionQuarantine)})
	require.NoError(t, err)
	m.now = func() time.Time { return time.Date(2025, 6, 6, 8, 0, 0, 0, time.UTC) }
	second, err := m.Quarantine(context.Background(), []types.Violation{violation("b.bak", types.ActionQuarantine)})
	require.NoError(t, err)

	list, err = m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Folder, list[0].Folder)
	assert.Equal(t, first.Folder, list[1].Folder)

	got, err := m.Load(first.BatchID)
	require.NoError(t, err)
	assert.Equal(t, first.Folder, got.Folder)

	_, err = m.Load("19990101_000000")
	assert.ErrorIs(t, err, ErrBatchNotFound)
	_, err = m.Load("")
	assert.ErrorIs(t, err, ErrBatchNotFound)
}
