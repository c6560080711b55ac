// Package sqlite implements the working dataset of a learning session on
// top of an embedded SQLite engine: statement execution, table listing,
// export to and import from database file bytes, and demo data.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

var _ types.Dataset = (*Dataset)(nil)

// Dataset is a SQLite database the learner works in. It lives in a scratch
// file that is removed on Close; the learner keeps work by exporting it.
//
// A Dataset is used by one logical actor and is not safe for concurrent use.
type Dataset struct {
	db     *sql.DB
	dir    string
	path   string
	closed bool
	logger *slog.Logger
}

// Open creates an empty dataset in a new scratch file under dir. An empty
// dir means the system temporary directory. Any failure to bring the engine
// up is reported as ErrEngineInit.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*Dataset, error) {
	dir, err := scratchDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEngineInit, err)
	}
	path := scratchPath(dir, "working")

	ds, err := openFile(ctx, dir, path, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEngineInit, err)
	}
	return ds, nil
}

// Import opens a dataset from the bytes of a database file, as produced by
// Export. The bytes are written to a new scratch file under dir and checked
// before the dataset is returned, so a caller can swap datasets only once
// the incoming one is known to be usable. Returns ErrInvalidArtifact when
// the bytes are not a readable SQLite database.
func Import(ctx context.Context, dir string, data []byte, logger *slog.Logger) (*Dataset, error) {
	if len(data) > 0 && !hasSQLiteHeader(data) {
		return nil, fmt.Errorf("%w: missing database header", types.ErrInvalidArtifact)
	}

	dir, err := scratchDir(dir)
	if err != nil {
		return nil, fmt.Errorf("preparing scratch dir: %w", err)
	}
	path := scratchPath(dir, "imported")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing scratch file: %w", err)
	}

	ds, err := openFile(ctx, dir, path, logger)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidArtifact, err)
	}
	if err := ds.verify(ctx); err != nil {
		ds.Close()
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidArtifact, err)
	}
	return ds, nil
}

// openFile opens path with a single connection so that every statement sees
// the same session state (pragmas, temp tables).
func openFile(ctx context.Context, dir, path string, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("dataset opened", "path", path)
	return &Dataset{db: db, dir: dir, path: path, logger: logger}, nil
}

// verify checks that the file is a SQLite database whose schema can be read.
func (d *Dataset) verify(ctx context.Context) error {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	var status string
	if err := d.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&status); err != nil {
		return fmt.Errorf("checking integrity: %w", err)
	}
	if status != "ok" {
		return fmt.Errorf("integrity check: %s", status)
	}
	return nil
}

// DB returns the underlying database handle. It is used by packages that
// need parameterized statements, such as the progress store.
func (d *Dataset) DB() *sql.DB {
	return d.db
}

// Path returns the scratch file backing the dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Tables returns the learner's tables in name order. Engine-internal tables
// (sqlite_*) and reserved application tables are left out.
func (d *Dataset) Tables(ctx context.Context) ([]string, error) {
	if d.closed {
		return nil, types.ErrDatasetClosed
	}

	rows, err := d.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		if isHiddenTable(name) {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

// Close closes the database and removes its scratch file. Close is
// idempotent.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	err := d.db.Close()
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if rmErr := os.Remove(d.path + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			d.logger.Warn("removing scratch file", "path", d.path+suffix, "error", rmErr)
		}
	}
	return err
}

func isHiddenTable(name string) bool {
	return strings.HasPrefix(name, "sqlite_") || strings.HasPrefix(name, types.ReservedPrefix)
}

// sqliteHeader starts every SQLite 3 database file.
const sqliteHeader = "SQLite format 3\x00"

func hasSQLiteHeader(data []byte) bool {
	return len(data) >= len(sqliteHeader) && string(data[:len(sqliteHeader)]) == sqliteHeader
}

func scratchDir(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func scratchPath(dir, prefix string) string {
	return filepath.Join(dir, fmt.Sprintf("sqlmaster-%s-%s.db", prefix, uuid.NewString()))
}
