package timestamp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() Validator {
	return Validator{
		Now:           time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC),
		MaxFutureDays: 7,
		Loc:           time.UTC,
	}
}

func TestValidateText(t *testing.T) {
	text := "# 2025-06-01 journal\n" +
		"Plan for 2025-06-10 and 2025年6月30日.\n" +
		"Typo: 2025-02-30\n" +
		"Timestamp 2025-06-05T10:00:00Z is fine\n"

	issues := testValidator().ValidateText(text)
	require.Len(t, issues, 2)

	assert.Equal(t, 2, issues[0].Line)
	assert.Equal(t, IssueFuture, issues[0].Kind)
	assert.Equal(t, "2025年6月30日", issues[0].Text)

	assert.Equal(t, 3, issues[1].Line)
	assert.Equal(t, IssueInvalid, issues[1].Kind)
	assert.Equal(t, "2025-02-30", issues[1].Text)
}

func TestValidateText_Clean(t *testing.T) {
	assert.Empty(t, testValidator().ValidateText("no dates here\n2024/12/31 done"))
}

func TestValidateText_LongLine(t *testing.T) {
	text := "2025-02-30\n" + strings.Repeat("x", 2<<20) + "\r\n2025-02-31\n"

	issues := testValidator().ValidateText(text)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, 3, issues[1].Line)
	assert.Equal(t, "2025-02-31", issues[1].Text)
}

func TestValidateFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("Core/a.md", "ok 2025-06-01\nbad 2025-04-31\n")
	write("Core/b.json", `{"date": "2025-04-31"}`)
	write(".git/c.md", "2025-04-31")

	issues, err := testValidator().ValidateFiles(context.Background(), root, nil, []string{".git"})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Core/a.md", issues[0].Path)
	assert.Equal(t, 2, issues[0].Line)
	assert.Equal(t, IssueInvalid, issues[0].Kind)
}
