package ptcorm

import "errors"

// Sentinel errors returned by the DataMapper. Callers should compare
// against these with errors.Is rather than matching on message text.
var (
	// ErrNotFound is not returned by any operation in this package:
	// FindById/FindByKey and the single-row helpers behind them report
	// absence with a nil pointer or a false flag instead.
	ErrNotFound = errors.New("ptcorm: no rows found")

	// ErrNoTransaction is returned by operations that require an
	// active transaction on the calling context (cursors) when none
	// is present.
	ErrNoTransaction = errors.New("ptcorm: operation requires an active transaction")

	// ErrInTransaction is returned by DataSource.Begin when called
	// from a context that already carries a transaction handle.
	ErrInTransaction = errors.New("ptcorm: already inside a transaction")

	// ErrFinished is returned by Tx.Commit/Tx.Rollback when the
	// transaction was already committed or rolled back.
	ErrFinished = errors.New("ptcorm: transaction already finished")

	// ErrNoPrimaryKey is not returned by any operation in this package:
	// every descriptor has a primary key, a synthetic auto-increment one
	// when no field is tagged pk.
	ErrNoPrimaryKey = errors.New("ptcorm: entity has no primary key")

	// ErrMigrationFailed is returned, wrapping the step's own error,
	// when a migration step fails. The stored version stays at the last
	// successful step and NewMapper returns no handle for the table; no
	// other state marks the table as disabled.
	ErrMigrationFailed = errors.New("ptcorm: migration failed, table disabled")

	// Rollback can be returned from the function passed to
	// DataSource.Transaction to request a rollback without surfacing
	// an error from Transaction itself.
	Rollback = errors.New("ptcorm: transaction rolled back")
)

// DescriptorError is returned at NewMapper time when a
// record type cannot be turned into an Entity Descriptor. It is
// fatal: the caller should not retry with the same type.
type DescriptorError struct {
	Type   string
	Reason string
}

func (e *DescriptorError) Error() string {
	return "ptcorm: cannot build descriptor for " + e.Type + ": " + e.Reason
}
