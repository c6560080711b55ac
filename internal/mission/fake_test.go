package mission

import (
	"context"
	"errors"

	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// fakeExecutor answers queries from a fixed table keyed by statement text.
// Unknown statements fail.
type fakeExecutor struct {
	answers map[string]types.ExecutionResult
	calls   []string
}

func (f *fakeExecutor) Exec(_ context.Context, stmt string) types.ExecutionResult {
	f.calls = append(f.calls, stmt)
	if res, ok := f.answers[stmt]; ok {
		res.Statement = stmt
		return res
	}
	return types.ExecutionResult{Statement: stmt, Err: errors.New("no such table")}
}

// panickingExecutor panics on every query.
type panickingExecutor struct{}

func (panickingExecutor) Exec(context.Context, string) types.ExecutionResult {
	panic("engine exploded")
}

// rows builds a successful result with one set.
func rows(cols []string, values ...[]any) types.ExecutionResult {
	if values == nil {
		values = [][]any{}
	}
	return types.ExecutionResult{Sets: []types.ResultSet{{Columns: cols, Rows: values}}}
}
