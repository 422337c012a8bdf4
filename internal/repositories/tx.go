package repositories

import (
	"database/sql"
	"fmt"
)

// TxRunner runs a unit of work inside one database transaction.
// fn receives the transaction as an SQLExecutor; a non-nil return rolls everything back.
type TxRunner interface {
	WithinTx(fn func(exec SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner backed by db.
func NewTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) WithinTx(fn func(exec SQLExecutor) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to start database transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
