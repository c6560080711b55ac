// Package cli implements the sqlmaster command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/sqlmaster/internal/terminal"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// env holds what commands take from the outside world, so tests can replace
// the interactive terminal.
type env struct {
	flags rootFlags

	// newReader opens the line reader for an interactive session.
	newReader func(historyFile string, color bool) (terminal.LineReader, error)

	// isTerminal reports whether w is an interactive terminal.
	isTerminal func(w io.Writer) bool
}

// exitError carries the exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "sqlmaster" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{
		newReader: func(historyFile string, color bool) (terminal.LineReader, error) {
			return terminal.NewReadline(historyFile, color)
		},
		isTerminal: isTerminal,
	})
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlmaster",
		Short: "Learn SQL one mission at a time",
		Long: "sqlmaster is an interactive SQL tutorial. Statements run against an embedded\n" +
			"SQLite database; a sequence of missions checks what you build.",
		Args: cobra.NoArgs,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&e.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&e.flags.dataDir, "data-dir", "", "data directory for working datasets (default: platform data dir)")
	root.PersistentFlags().BoolVar(&e.flags.jsonMode, "json", false, "output in JSON format")

	addInteractive(root, e)
	root.AddCommand(newMissionsCmd(e))
	root.AddCommand(newStatusCmd(e))
	root.AddCommand(newRunCmd(e))
	root.AddCommand(newInitCmd(e))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:])
}

func run(root *cobra.Command, args []string) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return exitCode(err)
}

// exitCode maps an error to an exit code. Errors not tagged by a command are
// usage errors reported by cobra.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrEngineInit) {
		return exitSysError
	}
	return exitUserError
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
