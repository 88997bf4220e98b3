package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

// AuditPublisher copies queued audit entries to the audit history store
type AuditPublisher interface {
	PublishToHistory(ctx context.Context, message *outbox.Message) error
}

// AuditPublisherImpl implements AuditPublisher
type AuditPublisherImpl struct {
	outboxRepo outbox.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewAuditPublisher creates a new publisher
func NewAuditPublisher(
	outboxRepo outbox.Repository,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
) AuditPublisher {
	return &AuditPublisherImpl{
		outboxRepo: outboxRepo,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// PublishToHistory writes the entry carried by message as COMPLETED and marks
// the message processed. Writing the same entry twice is a no-op.
func (p *AuditPublisherImpl) PublishToHistory(ctx context.Context, message *outbox.Message) error {
	entry, err := message.GetLedgerEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal audit entry from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if entry.CorrelationID != "" {
		logger = p.logger.With("correlation_id", entry.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to audit history", "outbox_id", message.ID, "entry_id", entry.ID.String())

	entry.Status = ledger.StatusCompleted
	now := time.Now().UTC()
	entry.ProcessedAt = &now

	existing, err := p.ledgerRepo.GetByID(ctx, entry.ID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		logger.Error("Failed to check existing audit entry before publishing", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to check existing audit entry %s: %w", entry.ID, err)
	}

	if existing != nil {
		if existing.Status == ledger.StatusCompleted {
			logger.Info("Audit entry already COMPLETED", "entry_id", entry.ID.String())
		} else {
			if err := p.ledgerRepo.UpdateStatus(ctx, entry.ID, ledger.StatusCompleted, ""); err != nil {
				logger.Error("Failed to update existing audit entry to COMPLETED", "entry_id", entry.ID.String(), "error", err)
				return fmt.Errorf("failed to update audit entry %s to COMPLETED: %w", entry.ID, err)
			}
			logger.Info("Updated existing audit entry to COMPLETED", "entry_id", entry.ID.String())
		}
	} else {
		if err := p.ledgerRepo.Create(ctx, entry); err != nil {
			logger.Error("Failed to create audit entry in MongoDB", "entry_id", entry.ID.String(), "error", err)
			return fmt.Errorf("failed to create audit entry %s: %w", entry.ID, err)
		}
		logger.Info("Successfully created audit entry in MongoDB", "entry_id", entry.ID.String(), "sequence", entry.Sequence)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", entry.ID.String(), "error", err,
		)
		return fmt.Errorf("history write for %s OK, but failed to mark outbox %d as PROCESSED: %w", entry.ID, message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "entry_id", entry.ID.String())
	return nil
}
