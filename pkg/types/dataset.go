package types

import (
	"context"
	"errors"
)

// Executor runs statements against a dataset. Exec never returns a Go
// error: statement failures are carried in the result.
type Executor interface {
	Exec(ctx context.Context, statement string) ExecutionResult
}

// Dataset is the working dataset a learner manipulates. Besides running
// statements it can list the learner's tables and export itself as the
// bytes of a portable database file.
type Dataset interface {
	Executor

	// Tables returns the learner's table names in name order, hiding
	// engine-internal and reserved tables.
	Tables(ctx context.Context) ([]string, error)

	// Export returns the dataset serialized as a database file.
	Export(ctx context.Context) ([]byte, error)

	// Close releases the dataset. Close is idempotent.
	Close() error
}

// Dataset errors.
var (
	ErrEngineInit      = errors.New("database engine failed to initialize")
	ErrInvalidArtifact = errors.New("not a valid database file")
	ErrDatasetClosed   = errors.New("dataset is closed")
	ErrTransactionOpen = errors.New("a transaction is still open: COMMIT or ROLLBACK first")
)
