package accounts_repo

import (
	"context"

	"github.com/shopspring/decimal"

	"ledger/internal/domain"
)

type AccountRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error
	GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error)
	// GetByIDForUpdateTx locks the account row for the duration of the
	// surrounding transaction, serializing concurrent balance mutation.
	GetByIDForUpdateTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error)
	ListTx(ctx context.Context, querier domain.Querier) ([]domain.Account, error)
	UpdateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error
	UpdateBalanceTx(ctx context.Context, querier domain.Querier, id string, balance decimal.Decimal) error
	DeleteTx(ctx context.Context, querier domain.Querier, id string) error
}
