package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountType(t *testing.T) {
	cases := map[string]AccountType{
		"ASSET":       AccountTypeAsset,
		"asset":       AccountTypeAsset,
		" Liability ": AccountTypeLiability,
		"EQUITY":      AccountTypeEquity,
		"revenue":     AccountTypeRevenue,
		"EXPENSE":     AccountTypeExpense,
	}
	for input, want := range cases {
		got, err := ParseAccountType(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, got)
	}
}

func TestParseAccountTypeRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "SAVINGS", "ASSETS", "123"} {
		_, err := ParseAccountType(input)
		assert.ErrorIs(t, err, ErrInvalidAccountType, "input %q", input)
	}
}

func TestParseTransactionType(t *testing.T) {
	got, err := ParseTransactionType("credit")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeCredit, got)

	got, err = ParseTransactionType("DEBIT")
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeDebit, got)

	_, err = ParseTransactionType("TRANSFER")
	assert.ErrorIs(t, err, ErrInvalidTransactionType)
}

func TestInsufficientFundsErrorCarriesDiagnostics(t *testing.T) {
	err := &InsufficientFundsError{
		Balance: decimal.RequireFromString("100.50"),
		Amount:  decimal.RequireFromString("200.00"),
	}

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Contains(t, err.Error(), "100.5")
	assert.Contains(t, err.Error(), "200")
}
