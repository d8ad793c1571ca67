package db

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
)

type txKey struct{}

// Tx is a transaction bound to a context by Begin.
type Tx struct {
	tx     *sql.Tx
	dao    *DAO
	failed atomic.Bool
}

// Failed reports whether any statement inside the transaction failed.
func (t *Tx) Failed() bool {
	return t.failed.Load()
}

func (t *Tx) markFailed() {
	t.failed.Store(true)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// Begin starts a transaction and returns a context carrying it.
// Statements issued through the DAO with the returned context run inside
// the transaction.
func (d *DAO) Begin(ctx context.Context) (context.Context, *Tx, error) {
	if InTransaction(ctx) {
		return ctx, nil, ErrTxAlreadyStarted
	}
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return ctx, nil, &QueryError{Op: "begin", Err: err}
	}
	tx := &Tx{tx: sqlTx, dao: d}
	return context.WithValue(ctx, txKey{}, tx), tx, nil
}

// WithTx executes fn within a transaction.
// If fn returns an error, or a statement failed inside the transaction
// even when fn ignored it, the transaction is rolled back.
// If fn panics, the transaction is rolled back and the panic is re-raised.
// Nested calls reuse the outer transaction.
func (d *DAO) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	txCtx, tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	if tx.Failed() {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(ErrTxStatementFailed, rbErr)
		}
		return ErrTxStatementFailed
	}

	return tx.Commit()
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	return txFromContext(ctx) != nil
}

func txFromContext(ctx context.Context) *Tx {
	tx, _ := ctx.Value(txKey{}).(*Tx)
	return tx
}
