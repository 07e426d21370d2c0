package accounts_repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ledger/internal/domain"
)

const uniqueViolation = "23505"

// accountRepository is stateless: every method receives the Querier it
// should run on, so the same repository serves both plain and transactional
// calls.
type accountRepository struct{}

func NewAccountRepository() AccountRepository {
	return &accountRepository{}
}

func (r *accountRepository) CreateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, name, balance, currency, account_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier.ExecContext(ctx, query,
		account.ID, account.Name, account.Balance, account.Currency, account.Type,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateAccountName
		}
		return fmt.Errorf("failed to create account %q: %w", account.Name, err)
	}
	return nil
}

func (r *accountRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, balance, currency, account_type, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(querier.QueryRowContext(ctx, query, id), id)
}

func (r *accountRepository) GetByIDForUpdateTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, balance, currency, account_type, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`
	return r.scanAccount(querier.QueryRowContext(ctx, query, id), id)
}

func (r *accountRepository) scanAccount(row *sql.Row, id string) (*domain.Account, error) {
	account := &domain.Account{}
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Balance,
		&account.Currency,
		&account.Type,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

func (r *accountRepository) ListTx(ctx context.Context, querier domain.Querier) ([]domain.Account, error) {
	query := `
		SELECT id, name, balance, currency, account_type, created_at, updated_at
		FROM accounts
	`
	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.Name,
			&account.Balance,
			&account.Currency,
			&account.Type,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) UpdateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, account_type = $2, updated_at = $3
		WHERE id = $4
	`
	res, err := querier.ExecContext(ctx, query, account.Name, account.Type, account.UpdatedAt, account.ID)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateAccountName
		}
		return fmt.Errorf("failed to update account %s: %w", account.ID, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateBalanceTx(ctx context.Context, querier domain.Querier, id string, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, balance, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) DeleteTx(ctx context.Context, querier domain.Querier, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`
	res, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
