package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger/internal/domain"
	"ledger/internal/outbox"
	"ledger/internal/repository/accounts_repo"
	"ledger/internal/repository/outbox_repo"
	"ledger/internal/repository/transactions_repo"
	"ledger/internal/util"
)

// TxRunner is the store's atomic-commit primitive: everything done inside
// the callback commits as one unit or not at all.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(q domain.Querier) error) error
}

type LedgerService interface {
	CreateAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, id, name string, accountType domain.AccountType) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	RecordTransaction(ctx context.Context, accountID string, amount decimal.Decimal, transactionType domain.TransactionType, description string) (*domain.Transaction, error)
	GetStatement(ctx context.Context, accountID string) ([]domain.Transaction, error)
}

type ledgerService struct {
	db              domain.Querier
	txRunner        TxRunner
	accountRepo     accounts_repo.AccountRepository
	transactionRepo transactions_repo.TransactionRepository
	outboxRepo      outbox_repo.OutboxRepository
	defaultCurrency string
	logger          *zap.Logger
}

func NewLedgerService(
	db domain.Querier,
	txRunner TxRunner,
	accountRepo accounts_repo.AccountRepository,
	transactionRepo transactions_repo.TransactionRepository,
	outboxRepo outbox_repo.OutboxRepository,
	defaultCurrency string,
	logger *zap.Logger,
) LedgerService {
	return &ledgerService{
		db:              db,
		txRunner:        txRunner,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

func validateAccountName(name string) error {
	// Characters, not bytes: accented names must count the same as ASCII.
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccountName, name)
	}
	return nil
}

func (s *ledgerService) CreateAccount(ctx context.Context, name string, accountType domain.AccountType, currency string) (*domain.Account, error) {
	if err := validateAccountName(name); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = s.defaultCurrency
	}

	now := time.Now()
	account := &domain.Account{
		ID:        util.GenerateUUID(),
		Name:      name,
		Balance:   decimal.Zero,
		Currency:  currency,
		Type:      accountType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// No check-then-insert: the unique index on name makes the insert
	// itself the uniqueness check, so concurrent creations cannot race.
	err := s.txRunner.RunInTx(ctx, func(q domain.Querier) error {
		return s.accountRepo.CreateTx(ctx, q, account)
	})
	if err != nil {
		if err == domain.ErrDuplicateAccountName {
			s.logger.Warn("Attempt to create account with duplicate name", zap.String("name", name))
			return nil, domain.ErrDuplicateAccountName
		}
		return nil, fmt.Errorf("failed to create account %q: %w", name, err)
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID),
		zap.String("name", account.Name),
		zap.String("account_type", string(account.Type)))
	return account, nil
}

func (s *ledgerService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByIDTx(ctx, s.db, id)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

func (s *ledgerService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListTx(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *ledgerService) UpdateAccount(ctx context.Context, id, name string, accountType domain.AccountType) (*domain.Account, error) {
	if err := validateAccountName(name); err != nil {
		return nil, err
	}

	var updated *domain.Account
	err := s.txRunner.RunInTx(ctx, func(q domain.Querier) error {
		account, err := s.accountRepo.GetByIDForUpdateTx(ctx, q, id)
		if err != nil {
			return err
		}
		account.Name = name
		account.Type = accountType
		account.UpdatedAt = time.Now()
		if err := s.accountRepo.UpdateTx(ctx, q, account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound, domain.ErrDuplicateAccountName:
			return nil, err
		}
		return nil, fmt.Errorf("failed to update account %s: %w", id, err)
	}

	s.logger.Info("Account updated",
		zap.String("account_id", id),
		zap.String("name", name),
		zap.String("account_type", string(accountType)))
	return updated, nil
}

func (s *ledgerService) DeleteAccount(ctx context.Context, id string) error {
	err := s.txRunner.RunInTx(ctx, func(q domain.Querier) error {
		if _, err := s.accountRepo.GetByIDForUpdateTx(ctx, q, id); err != nil {
			return err
		}
		count, err := s.transactionRepo.CountByAccountTx(ctx, q, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAccountHasMovements
		}
		return s.accountRepo.DeleteTx(ctx, q, id)
	})
	if err != nil {
		switch err {
		case domain.ErrAccountNotFound, domain.ErrAccountHasMovements:
			return err
		}
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}

	s.logger.Info("Account deleted", zap.String("account_id", id))
	return nil
}

// RecordTransaction is the transaction engine: within a single database
// transaction it locks the account row, applies the balance policy, and
// persists the new balance, the movement, and the movement event together.
// Any failure rolls all of it back.
func (s *ledgerService) RecordTransaction(ctx context.Context, accountID string, amount decimal.Decimal, transactionType domain.TransactionType, description string) (*domain.Transaction, error) {
	var transaction *domain.Transaction
	err := s.txRunner.RunInTx(ctx, func(q domain.Querier) error {
		account, err := s.accountRepo.GetByIDForUpdateTx(ctx, q, accountID)
		if err != nil {
			return err
		}

		newBalance, err := applyMovement(account.Balance, transactionType, amount)
		if err != nil {
			return err
		}

		now := time.Now()
		transaction = &domain.Transaction{
			ID:          util.GenerateUUID(),
			AccountID:   account.ID,
			Amount:      amount,
			Type:        transactionType,
			Timestamp:   now,
			Description: description,
		}

		if err := s.accountRepo.UpdateBalanceTx(ctx, q, account.ID, newBalance); err != nil {
			return err
		}
		if err := s.transactionRepo.CreateTx(ctx, q, transaction); err != nil {
			return err
		}

		payload, err := outbox.PrepareTransactionRecordedPayload(transaction, account.Currency, newBalance)
		if err != nil {
			return fmt.Errorf("failed to prepare outbox payload: %w", err)
		}
		outboxMsg := &domain.OutboxMessage{
			ID:          util.GenerateUUID(),
			AccountID:   account.ID,
			MessageType: outbox.MessageTypeTransactionRecorded,
			Payload:     payload,
			Status:      domain.OutboxStatusPending,
			CreatedAt:   now,
		}
		return s.outboxRepo.CreateMessageTx(ctx, q, outboxMsg)
	})
	if err != nil {
		switch {
		case err == domain.ErrAccountNotFound:
			s.logger.Warn("Movement against unknown account", zap.String("account_id", accountID))
			return nil, domain.ErrAccountNotFound
		case isBusinessRejection(err):
			s.logger.Warn("Movement rejected",
				zap.String("account_id", accountID),
				zap.String("type", string(transactionType)),
				zap.String("amount", amount.String()),
				zap.Error(err))
			return nil, err
		}
		return nil, fmt.Errorf("failed to record transaction for account %s: %w", accountID, err)
	}

	s.logger.Info("Movement recorded",
		zap.String("transaction_id", transaction.ID),
		zap.String("account_id", accountID),
		zap.String("type", string(transactionType)),
		zap.String("amount", amount.String()))
	return transaction, nil
}

func (s *ledgerService) GetStatement(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	if _, err := s.accountRepo.GetByIDTx(ctx, s.db, accountID); err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s for statement: %w", accountID, err)
	}

	transactions, err := s.transactionRepo.ListByAccountTx(ctx, s.db, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get statement for account %s: %w", accountID, err)
	}
	return transactions, nil
}

// isBusinessRejection reports whether err is a business-rule rejection that
// must surface to the caller unchanged, as opposed to a storage failure.
func isBusinessRejection(err error) bool {
	for _, target := range []error{domain.ErrInsufficientFunds, domain.ErrInvalidAmount, domain.ErrInvalidTransactionType} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
