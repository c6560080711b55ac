package mission

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// Evaluate decides whether check c is satisfied. last is the result of the
// learner's most recent statement (the zero value when there is none); q is
// the live dataset, queried for checks that look at the schema or contents
// rather than at the last result. Query failures are returned as errors;
// callers treat any error as a failed check.
func Evaluate(ctx context.Context, c types.Check, last types.ExecutionResult, q types.Executor) (bool, error) {
	switch c.Kind {
	case types.CheckTableExists:
		return tableExists(ctx, q, c.Table)
	case types.CheckMinRows:
		n, err := rowCount(ctx, q, c.Table)
		if err != nil {
			return false, err
		}
		return n >= int64(c.Threshold()), nil
	case types.CheckResultColumn:
		set, ok := last.FirstWithRows()
		if !ok {
			return false, nil
		}
		return slices.Contains(set.Columns, c.Column), nil
	case types.CheckTableColumn:
		cols, err := tableColumns(ctx, q, c.Table)
		if err != nil {
			return false, err
		}
		return containsFold(cols, c.Column), nil
	default:
		return false, fmt.Errorf("%w: %q", types.ErrCheckKindUnknown, c.Kind)
	}
}

func tableExists(ctx context.Context, q types.Executor, table string) (bool, error) {
	res := q.Exec(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND lower(name) = lower("+quoteLiteral(table)+")")
	if res.Err != nil {
		return false, fmt.Errorf("looking up table %s: %w", table, res.Err)
	}
	set, ok := res.First()
	return ok && len(set.Rows) > 0, nil
}

func rowCount(ctx context.Context, q types.Executor, table string) (int64, error) {
	res := q.Exec(ctx, "SELECT count(*) FROM "+quoteIdent(table))
	if res.Err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", table, res.Err)
	}
	set, ok := res.First()
	if !ok || len(set.Rows) == 0 || len(set.Rows[0]) == 0 {
		return 0, fmt.Errorf("counting rows in %s: empty result", table)
	}
	return toInt64(set.Rows[0][0])
}

func tableColumns(ctx context.Context, q types.Executor, table string) ([]string, error) {
	res := q.Exec(ctx, "SELECT name FROM pragma_table_info("+quoteLiteral(table)+")")
	if res.Err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, res.Err)
	}
	set, ok := res.First()
	if !ok {
		return nil, nil
	}
	cols := make([]string, 0, len(set.Rows))
	for _, row := range set.Rows {
		if len(row) > 0 {
			cols = append(cols, fmt.Sprint(row[0]))
		}
	}
	return cols, nil
}

// toInt64 converts a count value as the engine may return it.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value %T", v)
	}
}

// containsFold reports whether names holds name, ignoring case as SQLite
// does for identifiers.
func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
