package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"ledger/internal/domain"
)

// TxRunner executes a function inside a database transaction. The function
// receives a Querier bound to the transaction; any error or panic rolls the
// whole transaction back, so partial writes are never observable.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q domain.Querier) error) error
}

type txRunner struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTxRunner(db *sql.DB, logger *zap.Logger) TxRunner {
	return &txRunner{db: db, logger: logger}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(q domain.Querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered panic inside transaction, rolling back", zap.Any("panic", p))
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
			return fmt.Errorf("rollback failed after error %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
