// Package terminal is the interactive front end: a line-oriented prompt
// that runs SQL against the session, understands a handful of dot
// commands, and renders session events.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mesh-intelligence/sqlmaster/internal/session"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Prompt is shown before every input line.
const Prompt = "sql> "

// restoredEcho is how many restored commands are shown after a load.
const restoredEcho = 3

// LineReader supplies input lines. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// historySaver is implemented by readers with recallable history.
type historySaver interface {
	SaveHistory(content string) error
}

// NewReadline returns a readline instance with snippet completion.
// historyFile may be empty.
func NewReadline(historyFile string, color bool) (*readline.Instance, error) {
	prompt := Prompt
	if color {
		prompt = colorPrompt + "sql>" + colorReset + " "
	}
	return readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		AutoComplete:      newCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

// REPL reads lines and dispatches them to the session.
type REPL struct {
	s      *session.Session
	in     LineReader
	out    io.Writer
	view   *Renderer
	logger *slog.Logger
}

// NewREPL returns a REPL over s. view must be the listener s reports to.
func NewREPL(s *session.Session, in LineReader, out io.Writer, view *Renderer, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{s: s, in: in, out: out, view: view, logger: logger}
}

// Run prints the welcome screen and reads lines until the learner exits or
// input ends.
func (r *REPL) Run(ctx context.Context) error {
	r.welcome()
	r.view.ShowMission(r.s.Focus())

	for {
		line, err := r.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if quit := r.Handle(ctx, line); quit {
			return nil
		}
	}
}

// Handle processes one input line. It reports whether the learner asked to
// quit.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	switch strings.ToLower(line) {
	case "exit", ".exit", ".quit":
		return true
	case "clear":
		if r.view.colors {
			fmt.Fprint(r.out, clearScreen)
		}
		return false
	}

	if strings.HasPrefix(line, ".") {
		r.meta(ctx, line)
		return false
	}

	r.view.ShowResult(r.s.Submit(ctx, line))
	return false
}

func (r *REPL) meta(ctx context.Context, line string) {
	fields := strings.Fields(line)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case ".check":
		r.check(ctx)
	case ".hint":
		if m, ok := r.s.Mission(); ok {
			r.view.line(colorYellow, "HINT: "+m.Hint)
		} else {
			r.view.line(colorGray, "Every mission is complete.")
		}
	case ".missions":
		p := r.s.Progress()
		fmt.Fprint(r.out, missionList(r.s.Registry().All(), p.MissionIndex, r.s.Focus()))
	case ".goto":
		r.jump(args)
	case ".tables":
		r.tables(ctx)
	case ".save":
		r.save(ctx, strings.Join(args, " "))
	case ".load":
		r.load(ctx, strings.Join(args, " "))
	case ".demo":
		if err := r.s.LoadDemo(ctx); err != nil {
			r.fail("loading demo data", err)
			return
		}
		r.view.line(colorMagenta, ">>> Demo data loaded.")
	case ".history":
		for i, h := range r.s.Progress().History {
			fmt.Fprintf(r.out, "%4d  %s\n", i+1, h)
		}
	case ".snippets":
		fmt.Fprintln(r.out, strings.Join(snippets, "  "))
	case ".help":
		fmt.Fprint(r.out, helpText)
	default:
		r.view.line(colorRed, fmt.Sprintf("Unknown command %s. Type .help for a list.", cmd))
	}
}

func (r *REPL) check(ctx context.Context) {
	out := r.s.Check(ctx)
	if out.Status == types.OutcomeComplete {
		r.view.ShowMission(r.s.Registry().Len())
	}
	r.logger.Debug("check", "status", out.Status, "mission", out.MissionID, "reason", out.Reason)
}

func (r *REPL) jump(args []string) {
	if len(args) != 1 {
		r.view.line(colorRed, "Usage: .goto N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		r.view.line(colorRed, fmt.Sprintf("%q is not a mission number.", args[0]))
		return
	}

	err = r.s.JumpTo(n - 1)
	switch {
	case errors.Is(err, types.ErrMissionLocked):
		r.view.line(colorRed, fmt.Sprintf("Mission %d is locked. Pass mission %d first.", n, r.s.Progress().MissionIndex+1))
	case errors.Is(err, types.ErrMissionOutOfRange):
		r.view.line(colorRed, fmt.Sprintf("There is no mission %d.", n))
	case err != nil:
		r.fail("opening mission", err)
	default:
		r.view.ShowMission(r.s.Focus())
	}
}

func (r *REPL) tables(ctx context.Context) {
	tables, err := r.s.Tables(ctx)
	if err != nil {
		r.fail("listing tables", err)
		return
	}
	if len(tables) == 0 {
		fmt.Fprintln(r.out, "(empty database)")
		return
	}
	for _, t := range tables {
		fmt.Fprintln(r.out, t)
	}
}

func (r *REPL) save(ctx context.Context, name string) {
	path, err := r.s.Save(ctx, name)
	if err != nil {
		r.fail("saving", err)
		return
	}
	r.view.line(colorGreen, "✔ Saved to "+path)
}

func (r *REPL) load(ctx context.Context, name string) {
	if name == "" {
		r.view.line(colorRed, "Usage: .load FILE")
		return
	}
	restored, err := r.s.Load(ctx, name)
	if err != nil {
		r.fail("loading "+name, err)
		return
	}
	if !restored {
		return
	}

	p := r.s.Progress()
	if hs, ok := r.in.(historySaver); ok {
		for _, h := range p.History {
			if err := hs.SaveHistory(h); err != nil {
				r.logger.Warn("seeding input history", "error", err)
				break
			}
		}
	}
	recent := p.RecentHistory(restoredEcho)
	if len(recent) == 0 {
		return
	}
	r.view.line(colorGray, "--- restored history ---")
	for _, h := range recent {
		fmt.Fprintln(r.out, "> "+h)
	}
	r.view.line(colorGray, "------------------------")
}

func (r *REPL) fail(action string, err error) {
	r.logger.Warn(action+" failed", "error", err)
	r.view.line(colorRed, fmt.Sprintf("✖ Error %s: %v", action, err))
}

func (r *REPL) welcome() {
	r.view.line(colorBold, "SQL MASTER")
	r.view.line(colorGray, "Type SQL at the prompt. .help lists commands, .snippets shows common SQL words.")
}

const helpText = `Commands:
  .check         check the mission on screen against your last statement
  .hint          show a hint for the mission on screen
  .missions      list missions and your progress
  .goto N        open mission N (passed missions and the current one)
  .tables        list your tables
  .save [FILE]   save the database and your progress to FILE
  .load FILE     load a database saved with .save
  .demo          add sample tables (studenti, predmeti, ocene)
  .history       list the statements you have run
  .snippets      list common SQL words (Tab completes them)
  clear          clear the screen
  .exit, exit    leave
`
