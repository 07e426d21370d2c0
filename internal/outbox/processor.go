package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ledger/internal/domain"
	kafkaInfra "ledger/internal/infrastructure/kafka"
	"ledger/internal/repository/outbox_repo"
)

const MessageTypeTransactionRecorded = "transaction.recorded"

const pollBatchSize = 10

// Processor polls the outbox table for pending movement events and publishes
// them to Kafka, marking each one SENT only after the broker acknowledged it.
type Processor struct {
	db            *sql.DB
	outboxRepo    outbox_repo.OutboxRepository
	kafkaProducer kafkaInfra.Producer
	topic         string
	pollInterval  time.Duration
	pollTimeout   time.Duration
	logger        *zap.Logger
}

func NewProcessor(
	db *sql.DB,
	outboxRepo outbox_repo.OutboxRepository,
	kafkaProducer kafkaInfra.Producer,
	topic string,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:            db,
		outboxRepo:    outboxRepo,
		kafkaProducer: kafkaProducer,
		topic:         topic,
		pollInterval:  pollInterval,
		pollTimeout:   pollTimeout,
		logger:        logger,
	}
}

// Start blocks until ctx is canceled, polling on every tick.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("Starting outbox processor...", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopping.")
			return
		case <-ticker.C:
			p.processOutboxMessages(ctx)
		}
	}
}

func (p *Processor) processOutboxMessages(ctx context.Context) {
	dbQueryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	defer cancel()

	messages, err := p.outboxRepo.GetPendingMessages(dbQueryCtx, p.db, pollBatchSize)
	if err != nil {
		p.logger.Error("Failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	p.logger.Debug("Found pending outbox messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		if err := p.kafkaProducer.Produce(ctx, p.topic, msg.AccountID, msg.Payload); err != nil {
			p.logger.Error("Failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("topic", p.topic),
				zap.Error(err))
			continue
		}

		if err := p.outboxRepo.UpdateMessageStatusTx(ctx, p.db, msg.ID, domain.OutboxStatusSent); err != nil {
			// The message was published but not marked; the next poll will
			// publish it again. Consumers must tolerate duplicates.
			p.logger.Error("Failed to mark outbox message as sent", zap.String("message_id", msg.ID), zap.Error(err))
			continue
		}

		p.logger.Info("Outbox message published",
			zap.String("message_id", msg.ID),
			zap.String("account_id", msg.AccountID),
			zap.String("topic", p.topic))
	}
}

// PrepareTransactionRecordedPayload serializes the event published after a
// movement commits. Amounts travel as strings to keep the decimal exact.
func PrepareTransactionRecordedPayload(transaction *domain.Transaction, currency string, balance decimal.Decimal) ([]byte, error) {
	event := domain.TransactionRecordedEvent{
		TransactionID: transaction.ID,
		AccountID:     transaction.AccountID,
		Amount:        transaction.Amount.String(),
		Currency:      currency,
		Type:          string(transaction.Type),
		Balance:       balance.String(),
		Timestamp:     transaction.Timestamp,
	}
	return json.Marshal(event)
}
