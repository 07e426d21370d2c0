package transactions_repo

import (
	"context"
	"fmt"

	"ledger/internal/domain"
)

type transactionRepository struct{}

func NewTransactionRepository() TransactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) CreateTx(ctx context.Context, querier domain.Querier, transaction *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, amount, type, timestamp, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := querier.ExecContext(ctx, query,
		transaction.ID,
		transaction.AccountID,
		transaction.Amount,
		transaction.Type,
		transaction.Timestamp,
		transaction.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction for account %s: %w", transaction.AccountID, err)
	}
	return nil
}

func (r *transactionRepository) ListByAccountTx(ctx context.Context, querier domain.Querier, accountID string) ([]domain.Transaction, error) {
	query := `
		SELECT id, account_id, amount, type, timestamp, description
		FROM transactions
		WHERE account_id = $1
		ORDER BY timestamp DESC, id DESC
	`
	rows, err := querier.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		if err := rows.Scan(
			&transaction.ID,
			&transaction.AccountID,
			&transaction.Amount,
			&transaction.Type,
			&transaction.Timestamp,
			&transaction.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction rows: %w", err)
	}
	return transactions, nil
}

func (r *transactionRepository) CountByAccountTx(ctx context.Context, querier domain.Querier, accountID string) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE account_id = $1`
	var count int64
	if err := querier.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions for account %s: %w", accountID, err)
	}
	return count, nil
}
