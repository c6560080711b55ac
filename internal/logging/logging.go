// Package logging builds the application logger: warnings and errors on the
// terminal, and a JSON log file at the configured level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Options configures New.
type Options struct {
	// Terminal receives records at TerminalLevel and above. Nil disables it.
	Terminal      io.Writer
	TerminalLevel slog.Level

	// File receives JSON records at Level and above. Nil disables it.
	File  io.Writer
	Level slog.Level
}

// New returns a logger fanning out to the configured handlers. With no
// handlers configured the logger discards everything.
func New(opts Options) *slog.Logger {
	var handlers []slog.Handler
	if opts.Terminal != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Terminal, &slog.HandlerOptions{
			Level: opts.TerminalLevel,
		}))
	}
	if opts.File != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.File, &slog.HandlerOptions{
			Level: opts.Level,
		}))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch name {
	case types.LogLevelDebug:
		return slog.LevelDebug, nil
	case types.LogLevelInfo, "":
		return slog.LevelInfo, nil
	case types.LogLevelWarn:
		return slog.LevelWarn, nil
	case types.LogLevelError:
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: %q", types.ErrLogLevelUnknown, name)
}

// OpenFile opens path for appending, creating it and its directory.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// WithSession returns logger tagged with a new session id.
func WithSession(logger *slog.Logger) *slog.Logger {
	return logger.With("session", uuid.NewString())
}
