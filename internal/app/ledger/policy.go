package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ledger/internal/domain"
)

// applyMovement computes the balance that results from applying a movement
// to the current balance. It is a pure function: no I/O, exact fixed-point
// arithmetic, and the non-negative guarantee for debits.
//
// Amounts are validated upstream at the transport boundary; the policy
// re-asserts positivity so a malformed amount can never reach the store.
func applyMovement(balance decimal.Decimal, movementType domain.TransactionType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is not positive", domain.ErrInvalidAmount, amount)
	}
	// Balances carry four fractional digits; a finer-grained amount would
	// silently lose precision at the store. Compare by value so trailing
	// zeros ("1.50000") stay valid.
	if !amount.Truncate(4).Equal(amount) {
		return decimal.Decimal{}, fmt.Errorf("%w: %s has more than 4 decimal places", domain.ErrInvalidAmount, amount)
	}

	switch movementType {
	case domain.TransactionTypeCredit:
		return balance.Add(amount), nil
	case domain.TransactionTypeDebit:
		candidate := balance.Sub(amount)
		if candidate.IsNegative() {
			return decimal.Decimal{}, &domain.InsufficientFundsError{Balance: balance, Amount: amount}
		}
		return candidate, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %q", domain.ErrInvalidTransactionType, movementType)
	}
}
