package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

type OutboxManagerImpl struct {
	logger *slog.Logger
}

func NewOutboxManager(logger *slog.Logger) *OutboxManagerImpl {
	return &OutboxManagerImpl{logger: logger}
}

var _ service.OutboxManager = (*OutboxManagerImpl)(nil)

// RecordEntry appends the audit entry to the transactional effect log and
// queues it for the history store, both inside the caller's transaction
func (m *OutboxManagerImpl) RecordEntry(ctx context.Context, uow store.UnitOfWork, entry *ledger.Entry) error {
	logger := m.logger
	if entry.CorrelationID != "" {
		logger = m.logger.With("correlation_id", entry.CorrelationID)
	}

	if err := uow.AuditLog().Append(ctx, entry); err != nil {
		logger.Error("Failed to append audit entry",
			"entry_id", entry.ID.String(),
			"event_id", entry.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to append audit entry for event %s: %w", entry.EventID, err)
	}

	outboxMessage, err := outbox.NewMessage(entry)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"entry_id", entry.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for entry %s: %w", entry.ID, err)
	}

	if err = uow.Outbox().Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"entry_id", entry.ID.String(),
			"event_id", entry.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for entry %s: %w", entry.ID, err)
	}
	logger.Info("Audit entry recorded",
		"entry_id", entry.ID.String(),
		"sequence", entry.Sequence,
		"outbox_id", outboxMessage.ID,
	)
	return nil
}
