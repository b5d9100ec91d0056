// Root command for the mirralism CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/logging"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/paths"
	"github.com/suetake6183/MIRRALISM-V2-sub000/internal/sqlite"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/mirralism"
	"github.com/suetake6183/MIRRALISM-V2-sub000/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as an I/O or database failure.
func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps an error to the process exit code. Errors not marked as
// system errors are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// app holds the state shared by all subcommands of one invocation.
type app struct {
	flagRoot      string
	flagConfigDir string
	flagLogLevel  string
	flagJSON      bool

	stdin  io.Reader
	layout paths.Layout
	cfg    types.Config
	logger *zap.Logger
}

// execute runs the CLI with args and returns the exit code.
func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(stderr, "mirralism:", err)
	}
	return exitCode(err)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mirralism",
		Short:         "MIRRALISM project housekeeping",
		Long:          "mirralism keeps a MIRRALISM project tree clean: it enforces file constraints,\nquarantines violations, scores journal text and audits the tree.",
		Version:       mirralism.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.flagRoot, "root", "", "project root (default: nearest directory with .mirralism, else $(CWD))")
	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: <root>/.mirralism)")
	root.PersistentFlags().StringVar(&a.flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.flagJSON, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newConfigCmd(a),
		newScanCmd(a),
		newEnforceCmd(a),
		newQuarantineCmd(a),
		newScoreCmd(a),
		newHistoryCmd(a),
		newImportCmd(a),
		newValidateDatesCmd(a),
		newDepsCmd(a),
		newAuditCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup resolves the project root, loads config.yaml and builds the logger.
func (a *app) setup(logOut io.Writer) error {
	root, err := paths.ResolveProjectRoot(a.flagRoot)
	if err != nil {
		return sysError(fmt.Errorf("resolve project root: %w", err))
	}
	configDir, err := paths.ResolveConfigDir(a.flagConfigDir, root)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	cfg, err := decodeConfig(v, root)
	if err != nil {
		return err
	}
	if a.flagLogLevel != "" {
		cfg.LogLevel = a.flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.NewWithWriter(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	a.layout = paths.NewLayout(root)
	a.layout.DB = cfg.DBPath
	a.layout.Quarantine = cfg.QuarantineDir
	a.layout.Reports = cfg.ReportsDir
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openStore attaches the log store. The caller must Detach it.
func (a *app) openStore() (*sqlite.Store, error) {
	s := sqlite.NewStore(a.logger)
	if err := s.Attach(a.cfg.DBPath); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	return s, nil
}
