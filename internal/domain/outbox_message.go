package domain

import "time"

type OutboxMessageStatus string

const (
	OutboxStatusPending OutboxMessageStatus = "PENDING"
	OutboxStatusSent    OutboxMessageStatus = "SENT"
	OutboxStatusFailed  OutboxMessageStatus = "FAILED"
)

// OutboxMessage is a movement event waiting to be published to Kafka. It is
// inserted in the same database transaction as the movement itself, so the
// event exists if and only if the movement committed.
type OutboxMessage struct {
	ID          string
	AccountID   string
	MessageType string
	Payload     []byte
	Status      OutboxMessageStatus
	CreatedAt   time.Time
	SentAt      *time.Time
}
