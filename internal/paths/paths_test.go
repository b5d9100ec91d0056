package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout(t *testing.T) {
	l := NewLayout("/srv/project")
	assert.Equal(t, "/srv/project/.mirralism", l.StateDir)
	assert.Equal(t, "/srv/project/.mirralism/quarantine", l.Quarantine)
	assert.Equal(t, "/srv/project/.mirralism/reports", l.Reports)
	assert.Equal(t, "/srv/project/.mirralism/mirralism.db", l.DB)
}

func TestResolveProjectRoot(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvRoot, "/env/root")
		got, err := ResolveProjectRoot("/flag/root")
		require.NoError(t, err)
		assert.Equal(t, "/flag/root", got)
	})

	t.Run("env wins when flag empty", func(t *testing.T) {
		t.Setenv(EnvRoot, "/env/root")
		got, err := ResolveProjectRoot("")
		require.NoError(t, err)
		assert.Equal(t, "/env/root", got)
	})

	t.Run("walks up to the state directory", func(t *testing.T) {
		t.Setenv(EnvRoot, "")
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, StateDirName), 0o755))
		nested := filepath.Join(root, "Core", "notes")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		orig := getwd
		getwd = func() (string, error) { return nested, nil }
		t.Cleanup(func() { getwd = orig })

		got, err := ResolveProjectRoot("")
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})

	t.Run("falls back to the working directory", func(t *testing.T) {
		t.Setenv(EnvRoot, "")
		dir := t.TempDir()

		orig := getwd
		getwd = func() (string, error) { return dir, nil }
		t.Cleanup(func() { getwd = orig })

		got, err := ResolveProjectRoot("")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		got, err := ResolveProjectRoot("relative/path")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		envVal string
		want   string
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", want: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", want: "/env/config"},
		{name: "state dir when both empty", want: "/proj/.mirralism"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag, "/proj")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnder(t *testing.T) {
	assert.Equal(t, "/def", ResolveUnder("/root", "", "/def"))
	assert.Equal(t, "/abs/x", ResolveUnder("/root", "/abs/x", "/def"))
	assert.Equal(t, "/root/rel/x", ResolveUnder("/root", "rel/x", "/def"))
}

func TestRel(t *testing.T) {
	got, err := Rel("/root", "/root/Core/a.md")
	require.NoError(t, err)
	assert.Equal(t, "Core/a.md", got)
}
