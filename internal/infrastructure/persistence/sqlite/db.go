package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/bnrm/backoffice/internal/application/port"
)

type contextKey struct{}

var txKey contextKey

// DB runs units of work in SQLite transactions carried by the context
type DB struct {
	db         *sql.DB
	logger     *zap.Logger
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// Option configures DB
type Option func(*DB)

// WithBusyRetries sets how many times a unit of work is replayed when the
// store reports it is locked
func WithBusyRetries(n uint64) Option {
	return func(db *DB) {
		db.maxRetries = n
	}
}

// NewDB creates a transaction manager over sqlDB
func NewDB(sqlDB *sql.DB, logger *zap.Logger, opts ...Option) *DB {
	db := &DB{
		db:         sqlDB,
		logger:     logger,
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 20 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// WithTransaction runs fn in a transaction. Nested calls join the enclosing
// transaction. An outermost unit of work that fails on a locked store is
// replayed with exponential backoff, so fn must only touch the store.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if extractTx(ctx) != nil {
		return fn(ctx)
	}

	attempt := 0
	op := func() error {
		attempt++
		err := db.run(ctx, fn)
		if err != nil && isBusy(err) {
			db.logger.Info("Store busy, replaying transaction", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(db.newBackOff(), db.maxRetries), ctx)
	return backoff.Retry(op, b)
}

func (db *DB) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("Transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isBusy reports whether err is SQLite refusing the write lock
func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func extractTx(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey).(*sql.Tx)
	return tx
}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFor returns the transaction carried by ctx, or db when there is none
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return db
}

var _ port.TransactionManager = (*DB)(nil)
