package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sqlmaster/internal/logging"
	"github.com/mesh-intelligence/sqlmaster/internal/mission"
	"github.com/mesh-intelligence/sqlmaster/internal/paths"
	"github.com/mesh-intelligence/sqlmaster/internal/session"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// app is what every session-running command sets up first: resolved
// directories, validated config, and a logger.
type app struct {
	configDir string
	dataDir   string
	cfg       types.Config
	reg       *mission.Registry
	logger    *slog.Logger
	logFile   io.Closer
}

// setup resolves directories, loads config.yaml, and opens the log file.
// The caller must call close.
func setup(cmd *cobra.Command, e *env) (*app, error) {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError(err)
	}
	cfg, err := decodeConfig(v)
	if err != nil {
		return nil, userError(err)
	}
	dataDir, err := paths.ResolveDataDir(e.flags.dataDir, cfg.DataDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, userError(err)
	}

	a := &app{configDir: configDir, dataDir: dataDir, cfg: cfg, reg: mission.Default()}
	opts := logging.Options{Terminal: cmd.ErrOrStderr(), TerminalLevel: slog.LevelWarn, Level: level}
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return nil, sysError(err)
		}
		opts.File = f
		a.logFile = f
	}
	a.logger = logging.WithSession(logging.New(opts))
	a.logger.Debug("config loaded", "config_dir", configDir, "data_dir", dataDir)
	return a, nil
}

// newSession starts a session reporting to listener.
func (a *app) newSession(ctx context.Context, listener types.Listener) (*session.Session, error) {
	s, err := session.New(ctx, session.Options{
		ScratchDir: paths.ScratchDir(a.dataDir),
		Registry:   a.reg,
		Listener:   listener,
		Logger:     a.logger,
	})
	if err != nil {
		return nil, sysError(err)
	}
	return s, nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// loadArtifact loads name into s, tagging failures as user errors.
func loadArtifact(ctx context.Context, s *session.Session, name string) (bool, error) {
	restored, err := s.Load(ctx, name)
	if err != nil {
		return false, userError(fmt.Errorf("load %s: %w", name, err))
	}
	return restored, nil
}
