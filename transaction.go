package ptcorm

import (
	"context"
	"database/sql"

	"github.com/FxRayHughes/ptcorm/log"
)

type txKeyType struct{}

var txKey = txKeyType{}

// Tx is a transaction handle. The one correct way to obtain one is
// DataSource.Begin or DataSource.Transaction; its zero value is not
// usable (mirrors the teacher's orm.Tx, but carried on a
// context.Context rather than being its own Orm-shaped value: the
// current transaction travels with the context).
type Tx struct {
	tx     *sql.Tx
	done   bool
	logger log.Interface
}

// Commit commits the transaction. Returns ErrFinished if it was
// already committed or rolled back.
func (t *Tx) Commit() error {
	if t.done {
		return ErrFinished
	}
	t.done = true
	err := t.tx.Commit()
	if err != nil {
		t.logger.Errorf("ptcorm: commit failed: %v", err)
	} else {
		t.logger.Debug("ptcorm: transaction committed")
	}
	return err
}

// MustCommit works like Commit but panics on error.
func (t *Tx) MustCommit() {
	if err := t.Commit(); err != nil {
		panic(err)
	}
}

// Rollback rolls back the transaction. Returns ErrFinished if it was
// already committed or rolled back.
func (t *Tx) Rollback() error {
	if t.done {
		return ErrFinished
	}
	t.done = true
	err := t.tx.Rollback()
	if err != nil {
		t.logger.Errorf("ptcorm: rollback failed: %v", err)
	} else {
		t.logger.Debug("ptcorm: transaction rolled back")
	}
	return err
}

// MustRollback works like Rollback but panics on error.
func (t *Tx) MustRollback() {
	if err := t.Rollback(); err != nil {
		panic(err)
	}
}

// Close rolls back the transaction if it hasn't been finished yet. It
// is intended to be deferred right after Begin:
//
//	ctx, tx, err := ds.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Close()
//	// ... do work with ctx ...
//	return tx.Commit()
func (t *Tx) Close() {
	if !t.done {
		t.Rollback()
	}
}

// Begin opens a new transaction and returns a context carrying it.
// Returns ErrInTransaction if ctx already carries one (spec §5's
// "thread-scoped current-transaction handle" forbids nested Begin;
// use Transaction for reuse semantics).
func (ds *DataSource) Begin(ctx context.Context) (context.Context, *Tx, error) {
	if _, ok := txFromContext(ctx); ok {
		return ctx, nil, ErrInTransaction
	}
	sqlTx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, err
	}
	ds.logger.Debug("ptcorm: transaction begin")
	tx := &Tx{tx: sqlTx, logger: ds.logger}
	return context.WithValue(ctx, txKey, tx), tx, nil
}

func txFromContext(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(txKey).(*Tx)
	return tx, ok
}

// Transaction runs fn inside a transaction carried on ctx. If ctx
// already carries a transaction, fn runs against that same
// transaction without starting a nested one (spec §5's "nested
// propagation reuses the existing transaction rather than starting a
// new one"): the outer Transaction/Begin call remains the one that
// commits or rolls back.
//
// fn's error return is propagated. If fn returns the package-level
// Rollback sentinel, the transaction is rolled back but Transaction
// itself returns nil. Any other non-nil error also rolls back and is
// returned as-is. Panics inside fn are recovered just long enough to
// roll back, then re-panicked.
func (ds *DataSource) Transaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	txCtx, tx, err := ds.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(txCtx); err != nil {
		tx.Rollback()
		if err == Rollback {
			return nil
		}
		return err
	}
	return tx.Commit()
}

// MustTransaction works like Transaction but panics on error.
func (ds *DataSource) MustTransaction(ctx context.Context, fn func(ctx context.Context) error) {
	if err := ds.Transaction(ctx, fn); err != nil {
		panic(err)
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx; every CRUD helper
// obtains one of these via executor(ctx) instead of branching on
// whether a transaction is active.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor returns the querier a statement should run against: the
// active transaction carried on ctx, if any, otherwise the pool.
func (ds *DataSource) executor(ctx context.Context) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx.tx
	}
	return ds.db
}
