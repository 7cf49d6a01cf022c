package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// SQLUnitOfWork runs store operations inside a PostgreSQL transaction.
type SQLUnitOfWork struct {
	db txProvider
}

// NewSQLUnitOfWork constructs a unit of work over db.
func NewSQLUnitOfWork(db *sqlx.DB) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: db}
}

// NewStores binds every repository to exec.
func NewStores(exec sqlx.ExtContext) Stores {
	return Stores{
		ClassGroups: NewClassGroupRepository(exec),
		Assignments: NewStudentClassGroupRepository(exec),
		Schedules:   NewClassScheduleRepository(exec),
		Sessions:    NewClassSessionRepository(exec),
	}
}

// Do begins a transaction, takes the advisory lock named by opts.LockKey and runs fn.
// The transaction commits only when fn succeeds.
func (u *SQLUnitOfWork) Do(ctx context.Context, opts TxOptions, fn func(ctx context.Context, s Stores) error) (err error) {
	tx, err := u.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: opts.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if opts.LockKey != "" {
		if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, opts.LockKey); err != nil {
			return fmt.Errorf("acquire advisory lock %q: %w", opts.LockKey, err)
		}
	}

	if err = fn(ctx, NewStores(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
