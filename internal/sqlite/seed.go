package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// SeedDemo replaces the demo tables (studenti, predmeti, ocene) with fresh
// sample data. The seed runs in one transaction: either every demo table is
// rebuilt or the dataset is left unchanged. Other tables are not touched.
func (d *Dataset) SeedDemo(ctx context.Context) error {
	if d.closed {
		return types.ErrDatasetClosed
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning demo seed: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range demoDDL {
		for _, stmt := range Split(ddl) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("seeding demo data: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing demo seed: %w", err)
	}
	d.logger.Info("demo data loaded", "tables", DemoTables)
	return nil
}
