// Package progress stores a learner's progress inside the working dataset
// itself, as two rows of a reserved key/value table, so that one exported
// database file carries both the learner's data and their position in the
// curriculum.
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// createStateTable creates the reserved table. The name is one a learner is
// not expected to use; dataset table listings hide it.
const createStateTable = `CREATE TABLE IF NOT EXISTS __app_state__ (
    key TEXT PRIMARY KEY,
    value TEXT
);`

const (
	upsertState = `INSERT OR REPLACE INTO __app_state__ (key, value) VALUES (?, ?)`
	selectState = `SELECT value FROM __app_state__ WHERE key = ?`
	stateExists = `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

	savepoint = "progress_save"
)

// DB is the part of *sql.DB the store uses.
type DB interface {
	Conn(ctx context.Context) (*sql.Conn, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes progress rows in one dataset.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore returns a store over db. A nil logger means slog.Default().
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Save writes p into the reserved table, replacing whatever was saved
// before: the mission index as a decimal string under "level" and the last
// HistoryLimit commands as a JSON array under "history". Both rows are
// written under one savepoint, which nests inside a transaction the learner
// has left open.
func (s *Store) Save(ctx context.Context, p types.Progress) error {
	history, err := json.Marshal(p.RecentHistory(types.HistoryLimit))
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return fmt.Errorf("beginning progress save: %w", err)
	}
	if err := writeState(ctx, conn, p.MissionIndex, string(history)); err != nil {
		for _, stmt := range []string{"ROLLBACK TO " + savepoint, "RELEASE " + savepoint} {
			if _, rbErr := conn.ExecContext(ctx, stmt); rbErr != nil {
				s.logger.Warn("rolling back progress save", "error", rbErr)
				break
			}
		}
		return err
	}
	if _, err := conn.ExecContext(ctx, "RELEASE "+savepoint); err != nil {
		return fmt.Errorf("committing progress save: %w", err)
	}

	s.logger.Debug("progress saved", "level", p.MissionIndex, "history", len(p.History))
	return nil
}

func writeState(ctx context.Context, conn *sql.Conn, level int, history string) error {
	if _, err := conn.ExecContext(ctx, createStateTable); err != nil {
		return fmt.Errorf("creating state table: %w", err)
	}
	if _, err := conn.ExecContext(ctx, upsertState, types.StateKeyLevel, strconv.Itoa(level)); err != nil {
		return fmt.Errorf("saving level: %w", err)
	}
	if _, err := conn.ExecContext(ctx, upsertState, types.StateKeyHistory, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Load reads the saved progress exactly as stored. It returns
// ErrStateNotFound when the dataset holds no saved level and ErrStateCorrupt
// when the saved rows cannot be decoded. A saved level without a history row
// loads with an empty history.
func (s *Store) Load(ctx context.Context) (types.Progress, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, stateExists, types.StateTable).Scan(&n); err != nil {
		return types.Progress{}, fmt.Errorf("looking up state table: %w", err)
	}
	if n == 0 {
		return types.Progress{}, types.ErrStateNotFound
	}

	level, found, err := s.value(ctx, types.StateKeyLevel)
	if err != nil {
		return types.Progress{}, err
	}
	if !found {
		return types.Progress{}, types.ErrStateNotFound
	}
	index, err := decodeLevel(level)
	if err != nil {
		return types.Progress{}, err
	}

	raw, found, err := s.value(ctx, types.StateKeyHistory)
	if err != nil {
		return types.Progress{}, err
	}
	var history []string
	if found {
		if history, err = decodeHistory(raw); err != nil {
			return types.Progress{}, err
		}
	}

	return types.NewProgress(index, history), nil
}

// Restore returns the saved progress with its mission index clamped to
// total, the registry length. ok is false when nothing usable is saved:
// either no rows exist or they are corrupt. Restore never fails; the caller
// keeps its current progress when ok is false.
func (s *Store) Restore(ctx context.Context, total int) (types.Progress, bool) {
	p, err := s.Load(ctx)
	switch {
	case err == nil:
		restored := p.Clamp(total)
		if restored.MissionIndex != p.MissionIndex {
			s.logger.Info("saved level clamped", "saved", p.MissionIndex, "level", restored.MissionIndex)
		}
		return restored, true
	case errors.Is(err, types.ErrStateNotFound):
		s.logger.Debug("no saved progress in dataset")
	default:
		s.logger.Warn("ignoring saved progress", "error", err)
	}
	return types.Progress{}, false
}

// value reads one key. found is false when the row does not exist.
func (s *Store) value(ctx context.Context, key string) (string, bool, error) {
	var v sql.NullString
	err := s.db.QueryRowContext(ctx, selectState, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: reading %s: %v", types.ErrStateCorrupt, key, err)
	}
	if !v.Valid {
		return "", false, fmt.Errorf("%w: %s is NULL", types.ErrStateCorrupt, key)
	}
	return v.String, true, nil
}

func decodeLevel(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: level %q is not an integer", types.ErrStateCorrupt, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: level %d is negative", types.ErrStateCorrupt, n)
	}
	return n, nil
}

func decodeHistory(s string) ([]string, error) {
	var history []string
	if err := json.Unmarshal([]byte(s), &history); err != nil {
		return nil, fmt.Errorf("%w: history: %v", types.ErrStateCorrupt, err)
	}
	return history, nil
}
