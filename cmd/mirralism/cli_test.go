package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/quarantine"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/mirralism"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// run executes the CLI against root and returns the exit code and output.
func run(t *testing.T, root, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--root", root, "--log-level", "error"}, args...)
	code := execute(full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func project(t *testing.T, files ...string) string {
	t.Helper()
	t.Setenv("MIRRALISM_CONFIG_DIR", "")
	t.Setenv("MIRRALISM_ROOT", "")
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("content of "+f), 0o644))
	}
	return root
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, t.TempDir(), "", "version")
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "mirralism "+mirralism.Version+"\n", out)
}

func TestInit(t *testing.T) {
	root := project(t)

	code, out, stderr := run(t, root, "", "init")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "MIRRALISM project initialized")

	for _, p := range []string{
		".mirralism/config.yaml",
		".mirralism/mirralism.db",
	} {
		assert.FileExists(t, filepath.Join(root, filepath.FromSlash(p)))
	}
	assert.DirExists(t, filepath.Join(root, ".mirralism", "quarantine"))
	assert.DirExists(t, filepath.Join(root, ".mirralism", "reports"))
}

func TestScanEnforceRestore(t *testing.T) {
	root := project(t, "Core/A_REDIRECT.md", "Data/old.bak", "Docs/notes copy.md", "Docs/ok.md")

	code, out, stderr := run(t, root, "", "--json", "scan", "--report")
	require.Equal(t, exitSuccess, code, stderr)
	var scan scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &scan))
	assert.Equal(t, 4, scan.TotalFiles)
	assert.Len(t, scan.Violations, 3)
	assert.InDelta(t, 25.0, scan.Compliance, 0.001)
	assert.Equal(t, map[string]int{"redirect": 1, "backup": 1, "duplicate-copy": 1}, scan.ByRule)

	reports, err := filepath.Glob(filepath.Join(root, ".mirralism", "reports", "scan_*.json"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	code, out, stderr = run(t, root, "", "enforce", "--dry-run")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "2 file(s) would be quarantined")
	assert.FileExists(t, filepath.Join(root, "Core", "A_REDIRECT.md"))

	code, out, stderr = run(t, root, "", "enforce")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Quarantined 2 file(s)")
	assert.NoFileExists(t, filepath.Join(root, "Core", "A_REDIRECT.md"))
	assert.NoFileExists(t, filepath.Join(root, "Data", "old.bak"))
	assert.FileExists(t, filepath.Join(root, "Docs", "notes copy.md"))

	code, out, stderr = run(t, root, "", "--json", "quarantine", "list")
	require.Equal(t, exitSuccess, code, stderr)
	var manifests []quarantine.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifests))
	require.Len(t, manifests, 1)
	assert.Equal(t, 2, manifests[0].Moved())

	code, out, stderr = run(t, root, "", "quarantine", "restore", manifests[0].Folder)
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Restored 2 file(s)")
	assert.FileExists(t, filepath.Join(root, "Core", "A_REDIRECT.md"))

	code, out, stderr = run(t, root, "", "--json", "history", "quarantine", "--batch", manifests[0].BatchID)
	require.Equal(t, exitSuccess, code, stderr)
	var events []types.QuarantineEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 4)
	assert.Equal(t, types.OpQuarantine, events[0].Operation)
	assert.Equal(t, types.OpRestore, events[3].Operation)

	code, out, stderr = run(t, root, "", "--json", "history", "scans")
	require.Equal(t, exitSuccess, code, stderr)
	var scans []types.ScanRecord
	require.NoError(t, json.Unmarshal([]byte(out), &scans))
	assert.Len(t, scans, 3)
}

func TestEnforceInTreeQuarantineDir(t *testing.T) {
	root := project(t, "Core/a.bak", "Core/ok.md")
	cfgPath := filepath.Join(root, ".mirralism", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("quarantine_dir: Archive/quarantine\nreports_dir: Archive/reports\n"), 0o644))

	code, out, stderr := run(t, root, "", "enforce")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Quarantined 1 file(s)")

	code, out, stderr = run(t, root, "", "--json", "scan", "--report")
	require.Equal(t, exitSuccess, code, stderr)
	var scan scanOutput
	require.NoError(t, json.Unmarshal([]byte(out), &scan))
	assert.Equal(t, 1, scan.TotalFiles)
	assert.Empty(t, scan.Violations)
	assert.InDelta(t, 100.0, scan.Compliance, 0.001)

	code, _, stderr = run(t, root, "", "enforce")
	require.Equal(t, exitSuccess, code, stderr)

	batches, err := os.ReadDir(filepath.Join(root, "Archive", "quarantine"))
	require.NoError(t, err)
	assert.Len(t, batches, 1)

	code, out, stderr = run(t, root, "", "--json", "quarantine", "list")
	require.Equal(t, exitSuccess, code, stderr)
	var manifests []quarantine.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &manifests))
	require.Len(t, manifests, 1)

	code, _, stderr = run(t, root, "", "quarantine", "restore", manifests[0].Folder)
	require.Equal(t, exitSuccess, code, stderr)
	assert.FileExists(t, filepath.Join(root, "Core", "a.bak"))
}

func TestScore(t *testing.T) {
	root := project(t)

	code, out, stderr := run(t, root, "", "--json", "score", "今日は成長を感じた")
	require.Equal(t, exitSuccess, code, stderr)
	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 0.53, got.Result.Score, 1e-9)
	assert.Equal(t, "cli", got.Source)

	code, out, stderr = run(t, root, "家族に感謝", "score", "-")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Score: 0.540")

	code, _, _ = run(t, root, "", "score")
	assert.Equal(t, exitUserError, code)

	code, out, stderr = run(t, root, "", "--json", "history", "scores")
	require.Equal(t, exitSuccess, code, stderr)
	var scores []types.ScoreRecord
	require.NoError(t, json.Unmarshal([]byte(out), &scores))
	require.Len(t, scores, 2)
	assert.Equal(t, "stdin", scores[0].Source)
}

func TestValidateDates(t *testing.T) {
	root := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "log.md"),
		[]byte("written 2024-05-01\nbroken 2025-02-30\n"), 0o644))

	code, out, _ := run(t, root, "", "validate-dates")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "log.md:2: invalid")

	require.NoError(t, os.WriteFile(filepath.Join(root, "log.md"), []byte("written 2024-05-01\n"), 0o644))
	code, out, _ = run(t, root, "", "validate-dates", filepath.Join(root, "log.md"))
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "No date issues")
}

func TestDepsAndAudit(t *testing.T) {
	root := project(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "run.sh"), []byte("python tools/sync.py\n"), 0o644))

	code, out, stderr := run(t, root, "", "deps", "tools/sync.py", "tools/unused.py")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "tools/sync.py: 1 reference(s) in 1 file(s)")
	assert.Contains(t, out, "Unreferenced: [tools/unused.py]")

	code, out, stderr = run(t, root, "", "audit")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "score 100/100")
}

func TestExitCodes(t *testing.T) {
	root := project(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown command", []string{"frobnicate"}, exitUserError},
		{"unknown batch", []string{"quarantine", "show", "nope"}, exitUserError},
		{"missing import dir", []string{"import", "superwhisper", filepath.Join(root, "missing")}, exitUserError},
		{"bad log level", []string{"--log-level", "loud", "scan"}, exitUserError},
		{"empty deps target", []string{"deps", ""}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := run(t, root, "", tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(assert.AnError))
	assert.Equal(t, exitSysError, exitCode(sysError(assert.AnError)))
	assert.Nil(t, sysError(nil))
}

func TestHistoryExport(t *testing.T) {
	root := project(t)
	code, _, stderr := run(t, root, "", "score", "growth")
	require.Equal(t, exitSuccess, code, stderr)

	dir := filepath.Join(root, "export")
	code, out, stderr := run(t, root, "", "--json", "history", "export", dir)
	require.Equal(t, exitSuccess, code, stderr)
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	assert.Equal(t, 1, counts["personality_scores"])
	assert.FileExists(t, filepath.Join(dir, "personality_scores.jsonl"))
}
