package domain

import "time"

// TransactionRecordedEvent is published after a movement commits, for
// downstream consumers (reporting, notifications).
type TransactionRecordedEvent struct {
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	Type          string    `json:"type"`
	Balance       string    `json:"balance"`
	Timestamp     time.Time `json:"timestamp"`
}
