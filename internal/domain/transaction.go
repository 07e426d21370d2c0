package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrInvalidTransactionType = errors.New("invalid transaction type")

// TransactionType carries the direction of a movement. Amounts are always
// positive; a DEBIT is a subtraction, never a negative amount.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// ParseTransactionType converts free-text input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeCredit:
		return TransactionTypeCredit, nil
	case TransactionTypeDebit:
		return TransactionTypeDebit, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

// Transaction is a single recorded movement against an account. Immutable
// once persisted; corrections are new compensating movements.
type Transaction struct {
	ID          string
	AccountID   string
	Amount      decimal.Decimal
	Type        TransactionType
	Timestamp   time.Time
	Description string
}

// InsufficientFundsError reports a rejected DEBIT together with the balance
// and attempted amount, for caller diagnostics. It matches
// ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Balance decimal.Decimal
	Amount  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, attempted debit %s", e.Balance, e.Amount)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}
