package types

import "errors"

// CheckKind names the kind of goal a mission checks for.
type CheckKind string

// Check kinds. Each kind reads a fixed subset of the Check parameters.
const (
	// CheckTableExists passes when Table exists in the live dataset.
	CheckTableExists CheckKind = "table_exists"
	// CheckMinRows passes when Table holds at least MinRows rows.
	CheckMinRows CheckKind = "min_rows"
	// CheckResultColumn passes when the first result set of the last
	// statement that holds rows has a column named exactly Column.
	CheckResultColumn CheckKind = "result_column"
	// CheckTableColumn passes when Table has a column named Column.
	CheckTableColumn CheckKind = "table_column"
)

// Registry errors.
var (
	ErrRegistryInvalid   = errors.New("invalid mission registry")
	ErrCheckKindUnknown  = errors.New("unknown check kind")
	ErrCheckParamMissing = errors.New("check parameter missing")
)

// Check describes how a mission decides it has been solved. It is plain
// data; the mission package evaluates it against a dataset.
type Check struct {
	Kind    CheckKind `json:"kind" yaml:"kind"`
	Table   string    `json:"table,omitempty" yaml:"table,omitempty"`
	Column  string    `json:"column,omitempty" yaml:"column,omitempty"`
	MinRows int       `json:"min_rows,omitempty" yaml:"min_rows,omitempty"`
}

// Validate reports whether the check carries the parameters its kind needs.
func (c Check) Validate() error {
	switch c.Kind {
	case CheckTableExists, CheckMinRows:
		if c.Table == "" {
			return ErrCheckParamMissing
		}
	case CheckResultColumn:
		if c.Column == "" {
			return ErrCheckParamMissing
		}
	case CheckTableColumn:
		if c.Table == "" || c.Column == "" {
			return ErrCheckParamMissing
		}
	default:
		return ErrCheckKindUnknown
	}
	if c.MinRows < 0 {
		return ErrCheckParamMissing
	}
	return nil
}

// Threshold returns the row count a CheckMinRows check requires. Zero or
// unset means one row.
func (c Check) Threshold() int {
	if c.MinRows <= 0 {
		return 1
	}
	return c.MinRows
}

// Mission is one step of the curriculum. Missions are defined when the
// registry loads and never change afterwards.
type Mission struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Hint        string `json:"hint" yaml:"hint"`
	Check       Check  `json:"check" yaml:"check"`
}

// Number returns the 1-based mission number shown to the learner.
func (m Mission) Number() int {
	return m.ID + 1
}
