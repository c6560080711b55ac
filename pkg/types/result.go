package types

import (
	"errors"
	"time"
)

// Statement errors.
var (
	ErrEmptyStatement = errors.New("empty statement")
)

// ResultSet is one tabular result: column names and row values. Values are
// nil, int64, float64, string, or []byte as returned by the engine.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// HasColumn reports whether the set has a column with the given name.
func (r ResultSet) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ExecutionResult is the outcome of running one input line. It is either a
// sequence of result sets (possibly empty, for statements that return no
// rows) or a failure carried in Err.
type ExecutionResult struct {
	Statement     string        `json:"statement"`
	Sets          []ResultSet   `json:"sets,omitempty"`
	Err           error         `json:"-"`
	Elapsed       time.Duration `json:"elapsed"`
	SchemaChanged bool          `json:"schema_changed"`
}

// Failed reports whether execution failed.
func (r ExecutionResult) Failed() bool {
	return r.Err != nil
}

// Message returns the failure message, or an empty string on success.
func (r ExecutionResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// First returns the first result set, if there is one.
func (r ExecutionResult) First() (ResultSet, bool) {
	if len(r.Sets) == 0 {
		return ResultSet{}, false
	}
	return r.Sets[0], true
}

// FirstWithRows returns the first result set holding at least one row.
func (r ExecutionResult) FirstWithRows() (ResultSet, bool) {
	for _, set := range r.Sets {
		if len(set.Rows) > 0 {
			return set, true
		}
	}
	return ResultSet{}, false
}
