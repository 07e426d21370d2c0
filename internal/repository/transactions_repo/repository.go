package transactions_repo

import (
	"context"

	"ledger/internal/domain"
)

type TransactionRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, transaction *domain.Transaction) error
	// ListByAccountTx returns the account's movements newest first, ties on
	// timestamp broken by id so the order is stable across calls.
	ListByAccountTx(ctx context.Context, querier domain.Querier, accountID string) ([]domain.Transaction, error)
	CountByAccountTx(ctx context.Context, querier domain.Querier, accountID string) (int64, error)
}
