package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sqlmaster/internal/terminal"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// historyFileName keeps the prompt's input history between runs.
const historyFileName = "history"

// addInteractive makes the root command start an interactive session.
func addInteractive(root *cobra.Command, e *env) {
	var (
		load string
		demo bool
	)
	root.Flags().StringVar(&load, "load", "", "load a saved database file before starting")
	root.Flags().BoolVar(&demo, "demo", false, "load the demo tables before starting")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, e)
		if err != nil {
			return err
		}
		defer a.close()

		out := cmd.OutOrStdout()
		color := e.isTerminal(out) && colorTheme(a.cfg.Theme)
		view, err := terminal.NewRenderer(out, a.reg, terminal.RendererOptions{
			Theme: a.cfg.Theme,
			Color: color,
			Delay: a.cfg.AdvanceDelay,
		})
		if err != nil {
			return sysError(err)
		}

		ctx := cmd.Context()
		s, err := a.newSession(ctx, view)
		if err != nil {
			return err
		}
		defer s.Close()

		if load != "" {
			if _, err := loadArtifact(ctx, s, load); err != nil {
				return err
			}
		}
		if demo || a.cfg.Demo {
			if err := s.LoadDemo(ctx); err != nil {
				return sysError(err)
			}
		}

		in, err := e.newReader(filepath.Join(a.configDir, historyFileName), color)
		if err != nil {
			return sysError(err)
		}
		defer in.Close()

		return terminal.NewREPL(s, in, out, view, a.logger).Run(ctx)
	}
}

// colorTheme reports whether a theme allows ANSI colors.
func colorTheme(theme string) bool {
	switch theme {
	case types.ThemePlain, types.ThemeNoTTY, types.ThemeASCII:
		return false
	}
	return true
}
