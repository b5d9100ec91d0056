// Package paths resolves the project root and the .mirralism directory
// layout beneath it.
package paths

import (
	"os"
	"path/filepath"
)

// Directory and file names inside a project.
const (
	StateDirName      = ".mirralism"
	QuarantineDirName = "quarantine"
	ReportsDirName    = "reports"
	DBFileName        = "mirralism.db"
	ConfigFileName    = "config.yaml"
)

// Environment variable names for directory overrides.
const (
	EnvRoot      = "MIRRALISM_ROOT"
	EnvConfigDir = "MIRRALISM_CONFIG_DIR"
)

// Layout is the set of well-known locations under one project root.
type Layout struct {
	Root       string
	StateDir   string
	Quarantine string
	Reports    string
	DB         string
}

// NewLayout returns the default layout for root.
func NewLayout(root string) Layout {
	state := filepath.Join(root, StateDirName)
	return Layout{
		Root:       root,
		StateDir:   state,
		Quarantine: filepath.Join(state, QuarantineDirName),
		Reports:    filepath.Join(state, ReportsDirName),
		DB:         filepath.Join(state, DBFileName),
	}
}

// getwd is overridden in tests.
var getwd = os.Getwd

// ResolveProjectRoot returns the project root following the precedence
// chain: flag > MIRRALISM_ROOT env > nearest ancestor of the working
// directory containing .mirralism > working directory.
func ResolveProjectRoot(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	if found, ok := FindStateDir(cwd); ok {
		return found, nil
	}
	return cwd, nil
}

// FindStateDir walks up from dir and returns the first directory that holds
// a .mirralism directory.
func FindStateDir(dir string) (string, bool) {
	for {
		info, err := os.Stat(filepath.Join(dir, StateDirName))
		if err == nil && info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > MIRRALISM_CONFIG_DIR env > <root>/.mirralism.
func ResolveConfigDir(flag, root string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(root, StateDirName), nil
}

// ResolveUnder returns p unchanged when absolute, otherwise joined to root.
// Empty p yields def.
func ResolveUnder(root, p, def string) string {
	if p == "" {
		return def
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Rel returns target relative to root using forward slashes.
func Rel(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
