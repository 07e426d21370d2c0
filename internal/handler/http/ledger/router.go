package ledger_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ledger/internal/app/ledger"
)

func RegisterRoutes(r chi.Router, s ledger.LedgerService, l *zap.Logger) {
	handler := NewLedgerHandler(s, l.With(zap.String("component", "LedgerHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ledger service is healthy!"))
		})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", handler.CreateAccountHandler)
		r.Get("/", handler.ListAccountsHandler)
		r.Get("/{id}", handler.GetAccountHandler)
		r.Put("/{id}", handler.UpdateAccountHandler)
		r.Delete("/{id}", handler.DeleteAccountHandler)

		r.Post("/{id}/transactions", handler.RecordTransactionHandler)
		r.Get("/{id}/transactions", handler.GetStatementHandler)
	})
}
