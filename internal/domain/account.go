package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrInvalidAccountName = errors.New("account name must be between 3 and 50 characters")
var ErrDuplicateAccountName = errors.New("account name already exists")
var ErrInvalidAccountType = errors.New("invalid account type")
var ErrAccountHasMovements = errors.New("account has recorded movements")

// AccountType classifies an account into one of the five ledger categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// ParseAccountType converts free-text input into an AccountType, rejecting
// anything outside the closed set.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToUpper(strings.TrimSpace(s))) {
	case AccountTypeAsset:
		return AccountTypeAsset, nil
	case AccountTypeLiability:
		return AccountTypeLiability, nil
	case AccountTypeEquity:
		return AccountTypeEquity, nil
	case AccountTypeRevenue:
		return AccountTypeRevenue, nil
	case AccountTypeExpense:
		return AccountTypeExpense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
	}
}

// Account is a named ledger entry with a running balance. Balance is only
// ever mutated by the transaction engine; everything outside the engine sees
// immutable snapshots.
type Account struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	Currency  string
	Type      AccountType
	CreatedAt time.Time
	UpdatedAt time.Time
}
