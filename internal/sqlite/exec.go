package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Exec runs every statement in input in order and collects the result sets
// of the statements that return columns. Execution stops at the first
// failing statement; statements before it stay applied, as they would in
// the sqlite3 shell. The failure is returned in the result, never as a Go
// error.
func (d *Dataset) Exec(ctx context.Context, input string) types.ExecutionResult {
	start := time.Now()
	res := types.ExecutionResult{
		Statement:     input,
		SchemaChanged: IsSchemaChange(input),
	}

	if d.closed {
		res.Err = types.ErrDatasetClosed
		res.Elapsed = time.Since(start)
		return res
	}

	stmts := Split(input)
	if len(stmts) == 0 {
		res.Err = types.ErrEmptyStatement
		res.Elapsed = time.Since(start)
		return res
	}

	var sets []types.ResultSet
	for _, stmt := range stmts {
		set, ok, err := d.run(ctx, stmt)
		if err != nil {
			d.logger.Debug("statement failed", "statement", stmt, "error", err)
			res.Err = err
			res.Elapsed = time.Since(start)
			return res
		}
		if ok {
			sets = append(sets, set)
		}
	}
	res.Sets = sets
	res.Elapsed = time.Since(start)
	return res
}

// run executes one statement. ok is false when the statement returns no
// columns (DDL, INSERT without RETURNING, and so on). Rows are always read to
// the end so that the engine steps the statement to completion.
func (d *Dataset) run(ctx context.Context, stmt string) (types.ResultSet, bool, error) {
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return types.ResultSet{}, false, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return types.ResultSet{}, false, fmt.Errorf("reading columns: %w", err)
	}

	set := types.ResultSet{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return types.ResultSet{}, false, fmt.Errorf("scanning row: %w", err)
		}
		set.Rows = append(set.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return types.ResultSet{}, false, err
	}
	return set, len(cols) > 0, nil
}
