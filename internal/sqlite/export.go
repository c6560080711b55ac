package sqlite

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Export returns the dataset as the bytes of a standalone database file.
// The copy is made with VACUUM INTO, so it is consistent and compacted and
// the live dataset is left as it was. Export returns ErrTransactionOpen
// while the learner has a transaction open, since uncommitted changes
// cannot be copied.
func (d *Dataset) Export(ctx context.Context) ([]byte, error) {
	open, err := d.InTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, types.ErrTransactionOpen
	}

	target := scratchPath(d.dir, "export")
	defer os.Remove(target)

	stmt := "VACUUM INTO '" + strings.ReplaceAll(target, "'", "''") + "'"
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return nil, fmt.Errorf("exporting dataset: %w", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	return data, nil
}

// InTransaction reports whether a transaction started with BEGIN is still
// open on the dataset's connection. SQLite rejects a nested BEGIN, so the
// check starts one and rolls it straight back when that succeeds.
func (d *Dataset) InTransaction(ctx context.Context) (bool, error) {
	if d.closed {
		return false, types.ErrDatasetClosed
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
		if strings.Contains(err.Error(), "within a transaction") {
			return true, nil
		}
		return false, fmt.Errorf("checking transaction state: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return false, fmt.Errorf("checking transaction state: %w", err)
	}
	return false, nil
}
