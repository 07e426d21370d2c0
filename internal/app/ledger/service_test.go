package ledger

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledger/internal/domain"
	"ledger/internal/outbox"
	"ledger/internal/util"
)

// The fakes below implement the repository interfaces over an in-memory
// store with the same semantics as the Postgres schema: unique account
// names, not-found sentinels, statement ordering by timestamp then id.

type fakeStore struct {
	accounts     map[string]domain.Account
	transactions []domain.Transaction
	outbox       []domain.OutboxMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]domain.Account)}
}

// fakeTxRunner serializes transactions with a single mutex, mirroring the
// per-account row lock the Postgres runner relies on.
type fakeTxRunner struct {
	mu sync.Mutex
}

func (r *fakeTxRunner) RunInTx(ctx context.Context, fn func(q domain.Querier) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

type fakeAccountRepo struct {
	store *fakeStore
}

func (r *fakeAccountRepo) CreateTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	for _, existing := range r.store.accounts {
		if existing.Name == account.Name {
			return domain.ErrDuplicateAccountName
		}
	}
	r.store.accounts[account.ID] = *account
	return nil
}

func (r *fakeAccountRepo) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error) {
	account, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := account
	return &cp, nil
}

func (r *fakeAccountRepo) GetByIDForUpdateTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error) {
	return r.GetByIDTx(ctx, q, id)
}

func (r *fakeAccountRepo) ListTx(ctx context.Context, q domain.Querier) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(r.store.accounts))
	for _, account := range r.store.accounts {
		out = append(out, account)
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	existing, ok := r.store.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	for id, other := range r.store.accounts {
		if id != account.ID && other.Name == account.Name {
			return domain.ErrDuplicateAccountName
		}
	}
	existing.Name = account.Name
	existing.Type = account.Type
	existing.UpdatedAt = account.UpdatedAt
	r.store.accounts[account.ID] = existing
	return nil
}

func (r *fakeAccountRepo) UpdateBalanceTx(ctx context.Context, q domain.Querier, id string, balance decimal.Decimal) error {
	existing, ok := r.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	existing.Balance = balance
	r.store.accounts[id] = existing
	return nil
}

func (r *fakeAccountRepo) DeleteTx(ctx context.Context, q domain.Querier, id string) error {
	if _, ok := r.store.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.store.accounts, id)
	return nil
}

type fakeTransactionRepo struct {
	store *fakeStore
}

func (r *fakeTransactionRepo) CreateTx(ctx context.Context, q domain.Querier, transaction *domain.Transaction) error {
	r.store.transactions = append(r.store.transactions, *transaction)
	return nil
}

func (r *fakeTransactionRepo) ListByAccountTx(ctx context.Context, q domain.Querier, accountID string) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, transaction := range r.store.transactions {
		if transaction.AccountID == accountID {
			out = append(out, transaction)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *fakeTransactionRepo) CountByAccountTx(ctx context.Context, q domain.Querier, accountID string) (int64, error) {
	var count int64
	for _, transaction := range r.store.transactions {
		if transaction.AccountID == accountID {
			count++
		}
	}
	return count, nil
}

type fakeOutboxRepo struct {
	store *fakeStore
}

func (r *fakeOutboxRepo) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error {
	r.store.outbox = append(r.store.outbox, *msg)
	return nil
}

func (r *fakeOutboxRepo) GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	var out []domain.OutboxMessage
	for _, msg := range r.store.outbox {
		if msg.Status == domain.OutboxStatusPending {
			out = append(out, msg)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) UpdateMessageStatusTx(ctx context.Context, q domain.Querier, id string, status domain.OutboxMessageStatus) error {
	for i := range r.store.outbox {
		if r.store.outbox[i].ID == id {
			r.store.outbox[i].Status = status
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

func newTestService(t *testing.T) (LedgerService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewLedgerService(
		nil,
		&fakeTxRunner{},
		&fakeAccountRepo{store: store},
		&fakeTransactionRepo{store: store},
		&fakeOutboxRepo{store: store},
		"BRL",
		zap.NewNop(),
	), store
}

func TestCreateAccountStartsAtZero(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.CreateAccount(context.Background(), "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "Wallet", account.Name)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, "BRL", account.Currency, "empty currency gets the configured default")
	assert.Equal(t, domain.AccountTypeAsset, account.Type)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestCreateAccountExplicitCurrency(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.CreateAccount(context.Background(), "Wallet", domain.AccountTypeAsset, "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", account.Currency)
}

func TestCreateAccountDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), "Savings", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	_, err = svc.CreateAccount(context.Background(), "Savings", domain.AccountTypeLiability, "")
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountName)
}

func TestCreateAccountNameLength(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), "ab", domain.AccountTypeAsset, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountName)

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.CreateAccount(context.Background(), string(long), domain.AccountTypeAsset, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountName)
}

// Length limits count characters, not bytes: a two-letter accented name is
// still too short, and fifty accented letters still fit.
func TestCreateAccountNameLengthMultibyte(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), "ãé", domain.AccountTypeAsset, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountName)

	account, err := svc.CreateAccount(context.Background(), strings.Repeat("é", 50), domain.AccountTypeAsset, "")
	require.NoError(t, err)
	assert.Equal(t, 50, utf8.RuneCountInString(account.Name))
}

func TestGetAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetAccount(context.Background(), util.GenerateUUID())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestUpdateAccountPreservesBalanceAndCreatedAt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "25.00"), domain.TransactionTypeCredit, "")
	require.NoError(t, err)

	updated, err := svc.UpdateAccount(ctx, account.ID, "Main Wallet", domain.AccountTypeExpense)
	require.NoError(t, err)

	assert.Equal(t, "Main Wallet", updated.Name)
	assert.Equal(t, domain.AccountTypeExpense, updated.Type)
	assert.True(t, updated.Balance.Equal(dec(t, "25.00")), "update must not touch balance")
	assert.Equal(t, account.CreatedAt, updated.CreatedAt)
}

func TestUpdateAccountKeepingOwnName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	// Renaming to the current name is not a collision.
	_, err = svc.UpdateAccount(ctx, account.ID, "Wallet", domain.AccountTypeAsset)
	assert.NoError(t, err)
}

func TestUpdateAccountDuplicateName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)
	other, err := svc.CreateAccount(ctx, "Savings", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	_, err = svc.UpdateAccount(ctx, other.ID, "Wallet", domain.AccountTypeAsset)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccountName)
}

func TestUpdateAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateAccount(context.Background(), util.GenerateUUID(), "Wallet", domain.AccountTypeAsset)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeleteAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, account.ID))

	_, err = svc.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeleteAccountBlockedByMovements(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "10"), domain.TransactionTypeCredit, "")
	require.NoError(t, err)

	err = svc.DeleteAccount(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrAccountHasMovements)

	_, err = svc.GetAccount(ctx, account.ID)
	assert.NoError(t, err, "blocked delete must leave the account in place")
}

func TestDeleteAccountNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.DeleteAccount(context.Background(), util.GenerateUUID())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

// Scenario: credit 150.50, debit 50.00, then an over-debit that must be
// rejected without touching balance or history.
func TestRecordTransactionLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	credit, err := svc.RecordTransaction(ctx, account.ID, dec(t, "150.50"), domain.TransactionTypeCredit, "salary")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCredit, credit.Type)
	assert.True(t, credit.Amount.Equal(dec(t, "150.50")))
	assert.NotEmpty(t, credit.ID)
	assert.False(t, credit.Timestamp.IsZero())

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "150.50")), "got %s", got.Balance)

	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "50.00"), domain.TransactionTypeDebit, "groceries")
	require.NoError(t, err)

	got, err = svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "100.50")), "got %s", got.Balance)

	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "200.00"), domain.TransactionTypeDebit, "tv")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	got, err = svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "100.50")), "rejected debit must not move the balance")
	assert.Len(t, store.transactions, 2, "rejected debit must not be recorded")
}

func TestRecordTransactionUnknownAccount(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.RecordTransaction(context.Background(), util.GenerateUUID(), dec(t, "10"), domain.TransactionTypeCredit, "")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Empty(t, store.transactions, "no movement may exist for an unknown account")
	assert.Empty(t, store.outbox)
}

func TestRecordTransactionDebitBoundary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)
	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "100.50"), domain.TransactionTypeCredit, "")
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "100.5001"), domain.TransactionTypeDebit, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = svc.RecordTransaction(ctx, account.ID, dec(t, "100.50"), domain.TransactionTypeDebit, "")
	require.NoError(t, err)

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), "got %s", got.Balance)
}

func TestRecordTransactionWritesOutboxMessage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)
	transaction, err := svc.RecordTransaction(ctx, account.ID, dec(t, "42.42"), domain.TransactionTypeCredit, "")
	require.NoError(t, err)

	require.Len(t, store.outbox, 1)
	msg := store.outbox[0]
	assert.Equal(t, account.ID, msg.AccountID)
	assert.Equal(t, outbox.MessageTypeTransactionRecorded, msg.MessageType)
	assert.Equal(t, domain.OutboxStatusPending, msg.Status)

	var event domain.TransactionRecordedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, transaction.ID, event.TransactionID)
	assert.Equal(t, "42.42", event.Amount)
	assert.Equal(t, "42.42", event.Balance)
	assert.Equal(t, "CREDIT", event.Type)
	assert.Equal(t, "BRL", event.Currency)
}

// Balance must always equal the net sum of recorded movements.
func TestBalanceInvariant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	movements := []struct {
		amount string
		kind   domain.TransactionType
	}{
		{"10.0001", domain.TransactionTypeCredit},
		{"3.5", domain.TransactionTypeDebit},
		{"0.0001", domain.TransactionTypeCredit},
		{"100", domain.TransactionTypeCredit},
		{"6.5002", domain.TransactionTypeDebit},
	}

	expected := decimal.Zero
	for _, m := range movements {
		amount := dec(t, m.amount)
		_, err := svc.RecordTransaction(ctx, account.ID, amount, m.kind, "")
		require.NoError(t, err)
		if m.kind == domain.TransactionTypeCredit {
			expected = expected.Add(amount)
		} else {
			expected = expected.Sub(amount)
		}
	}

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(expected), "balance %s, net of movements %s", got.Balance, expected)

	statement, err := svc.GetStatement(ctx, account.ID)
	require.NoError(t, err)
	net := decimal.Zero
	for _, transaction := range statement {
		if transaction.Type == domain.TransactionTypeCredit {
			net = net.Add(transaction.Amount)
		} else {
			net = net.Sub(transaction.Amount)
		}
	}
	assert.True(t, got.Balance.Equal(net))
}

func TestConcurrentRecordsDoNotLoseUpdates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransaction(ctx, account.ID, dec(t, "1.25"), domain.TransactionTypeCredit, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "62.50")), "got %s", got.Balance)
	assert.Len(t, store.transactions, workers)
}

// Statement: movements [credit @t1, debit @t2, credit @t3] come back newest
// first, with id as a stable tiebreak for equal timestamps.
func TestGetStatementOrdering(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.transactions = append(store.transactions,
		domain.Transaction{ID: "m1", AccountID: account.ID, Amount: dec(t, "10"), Type: domain.TransactionTypeCredit, Timestamp: base},
		domain.Transaction{ID: "m2", AccountID: account.ID, Amount: dec(t, "3"), Type: domain.TransactionTypeDebit, Timestamp: base.Add(time.Minute)},
		domain.Transaction{ID: "m3", AccountID: account.ID, Amount: dec(t, "5"), Type: domain.TransactionTypeCredit, Timestamp: base.Add(2 * time.Minute)},
		domain.Transaction{ID: "m0", AccountID: account.ID, Amount: dec(t, "1"), Type: domain.TransactionTypeCredit, Timestamp: base},
	)

	statement, err := svc.GetStatement(ctx, account.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(statement))
	for _, transaction := range statement {
		ids = append(ids, transaction.ID)
	}
	assert.Equal(t, []string{"m3", "m2", "m1", "m0"}, ids)
}

func TestGetStatementUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetStatement(context.Background(), util.GenerateUUID())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestGetStatementEmptyAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Wallet", domain.AccountTypeAsset, "")
	require.NoError(t, err)

	statement, err := svc.GetStatement(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, statement)
}
