package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sqlmaster/internal/terminal"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// ErrStatementFailed is reported when a statement given to run fails.
var ErrStatementFailed = errors.New("statement failed")

// runResult is the JSON form of one executed statement.
type runResult struct {
	Statement string            `json:"statement"`
	Sets      []types.ResultSet `json:"sets,omitempty"`
	Error     string            `json:"error,omitempty"`
	ElapsedMS float64           `json:"elapsed_ms"`
}

// runReport is the JSON output of run.
type runReport struct {
	File     string         `json:"file"`
	Results  []runResult    `json:"results"`
	Outcome  *types.Outcome `json:"outcome,omitempty"`
	Level    int            `json:"level"`
	Complete bool           `json:"complete"`
	Saved    string         `json:"saved,omitempty"`
}

func newRunCmd(e *env) *cobra.Command {
	var (
		statements []string
		check      bool
		save       bool
	)

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run statements against a saved database file",
		Long: "Run loads FILE (or starts an empty database when FILE does not exist),\n" +
			"runs each -e statement in order, optionally checks the current mission,\n" +
			"and optionally writes the database and progress back to FILE.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(statements) == 0 && !check {
				return userError(errors.New("nothing to do: give -e or --check"))
			}

			a, err := setup(cmd, e)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			var listener types.Listener = types.NopListener{}
			var view *terminal.Renderer
			if !e.flags.jsonMode {
				view, err = terminal.NewRenderer(out, a.reg, terminal.RendererOptions{
					Theme: a.cfg.Theme,
					Color: e.isTerminal(out) && colorTheme(a.cfg.Theme),
				})
				if err != nil {
					return sysError(err)
				}
				listener = view
			}

			ctx := cmd.Context()
			s, err := a.newSession(ctx, listener)
			if err != nil {
				return err
			}
			defer s.Close()

			file := args[0]
			if _, err := s.Load(ctx, file); err != nil && !errors.Is(err, os.ErrNotExist) {
				return userError(fmt.Errorf("load %s: %w", file, err))
			}

			report := runReport{File: file}
			failed := false
			for _, stmt := range statements {
				res := s.Submit(ctx, stmt)
				if view != nil {
					view.ShowResult(res)
				}
				failed = failed || res.Failed()
				report.Results = append(report.Results, runResult{
					Statement: res.Statement,
					Sets:      res.Sets,
					Error:     res.Message(),
					ElapsedMS: float64(res.Elapsed.Microseconds()) / 1000,
				})
			}

			if check {
				outcome := s.Check(ctx)
				report.Outcome = &outcome
				if outcome.Status == types.OutcomeComplete && view != nil {
					view.ShowMission(a.reg.Len())
				}
			}

			if save {
				path, err := s.Save(ctx, file)
				if errors.Is(err, types.ErrTransactionOpen) {
					return userError(fmt.Errorf("save %s: %w", file, err))
				}
				if err != nil {
					return sysError(fmt.Errorf("save %s: %w", file, err))
				}
				report.Saved = path
				if view != nil {
					fmt.Fprintln(out, "Saved to "+path)
				}
			}

			report.Level = s.Progress().MissionIndex
			report.Complete = s.IsComplete()
			if e.flags.jsonMode {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return sysError(fmt.Errorf("marshal results: %w", err))
				}
				fmt.Fprintln(out, string(data))
			}

			if failed {
				return userError(ErrStatementFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&statements, "execute", "e", nil, "SQL to run (repeatable)")
	cmd.Flags().BoolVar(&check, "check", false, "check the current mission after running")
	cmd.Flags().BoolVar(&save, "save", false, "write the database and progress back to FILE")
	return cmd
}
