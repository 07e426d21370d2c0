package ledger_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger/internal/app/ledger"
	"ledger/internal/domain"
)

type LedgerHandler struct {
	service ledger.LedgerService
	logger  *zap.Logger
}

func NewLedgerHandler(s ledger.LedgerService, l *zap.Logger) *LedgerHandler {
	return &LedgerHandler{service: s, logger: l}
}

type CreateAccountRequest struct {
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	Currency    string `json:"currency,omitempty"`
}

type UpdateAccountRequest struct {
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
}

type AccountResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
	AccountType string          `json:"account_type"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type RecordTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
}

type TransactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Description string          `json:"description,omitempty"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Name:        a.Name,
		Balance:     a.Balance,
		Currency:    a.Currency,
		AccountType: string(a.Type),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Amount:      t.Amount,
		Type:        string(t.Type),
		Timestamp:   t.Timestamp,
		Description: t.Description,
	}
}

func (h *LedgerHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

// writeError maps domain error kinds to protocol statuses. Anything not in
// the taxonomy is an internal error.
func (h *LedgerHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		http.Error(w, "Account not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrDuplicateAccountName):
		http.Error(w, "Account name already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrAccountHasMovements):
		http.Error(w, "Account has recorded movements and cannot be deleted", http.StatusConflict)
	case errors.Is(err, domain.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidAccountType),
		errors.Is(err, domain.ErrInvalidTransactionType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *LedgerHandler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CreateAccount", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accountType, err := domain.ParseAccountType(req.AccountType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req.Name, accountType, req.Currency)
	if err != nil {
		h.logger.Warn("Failed to create account", zap.String("name", req.Name), zap.Error(err))
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *LedgerHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *LedgerHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.logger.Error("Failed to list accounts", zap.Error(err))
		h.writeError(w, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, toAccountResponse(&accounts[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *LedgerHandler) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateAccount", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accountType, err := domain.ParseAccountType(req.AccountType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, req.Name, accountType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *LedgerHandler) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) RecordTransactionHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req RecordTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for RecordTransaction", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transactionType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !req.Amount.IsPositive() {
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
		return
	}

	transaction, err := h.service.RecordTransaction(r.Context(), accountID, req.Amount, transactionType, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toTransactionResponse(transaction))
}

func (h *LedgerHandler) GetStatementHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	transactions, err := h.service.GetStatement(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		resp = append(resp, toTransactionResponse(&transactions[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}
