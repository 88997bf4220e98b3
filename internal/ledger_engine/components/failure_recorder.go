package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

type FailureRecorderImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewFailureRecorder(ledgerRepo ledger.Repository, logger *slog.Logger) *FailureRecorderImpl {
	return &FailureRecorderImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

var _ service.FailureRecorder = (*FailureRecorderImpl)(nil)

// RecordFailure stores a rejected command in the audit history. The entry
// takes the command id, so a redelivered command finds it.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, cmd *shared.LedgerCommand, failureReason string) error {
	logger := r.logger
	if cmd.CorrelationID != "" {
		logger = r.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Recording failed command", "command_id", cmd.CommandID.String(), "reason", failureReason)

	now := time.Now().UTC()
	entry := &ledger.Entry{
		ID:            cmd.CommandID,
		EventID:       cmd.EventID,
		Action:        cmd.Action,
		CorrelationID: cmd.CorrelationID,
		Status:        ledger.StatusFailed,
		FailureReason: failureReason,
		CreatedAt:     cmd.Timestamp,
		ProcessedAt:   &now,
	}
	if cmd.Draft != nil {
		entry.EventKind = string(cmd.Draft.Kind)
		entry.IdempotencyKey = cmd.Draft.IdempotencyKey
	}
	if entry.EventKind == "" {
		entry.EventKind = "UNKNOWN"
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	existingEntry, err := r.ledgerRepo.GetByID(ctx, cmd.CommandID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		logger.Error("Failed to get existing audit entry for failed command", "command_id", cmd.CommandID.String(), "error", err)
	}

	if existingEntry != nil {
		if existingEntry.Status != ledger.StatusFailed {
			logger.Info("Updating existing audit entry to FAILED", "command_id", cmd.CommandID.String())
			if updateErr := r.ledgerRepo.UpdateStatus(ctx, cmd.CommandID, ledger.StatusFailed, failureReason); updateErr != nil {
				logger.Error("Failed to update audit entry to FAILED", "command_id", cmd.CommandID.String(), "error", updateErr)
				return updateErr
			}
			return nil
		}
		logger.Info("Audit entry already marked as FAILED", "command_id", cmd.CommandID.String())
		return nil
	}

	if createErr := r.ledgerRepo.Create(ctx, entry); createErr != nil {
		logger.Error("Failed to create FAILED audit entry", "command_id", cmd.CommandID.String(), "error", createErr)
		return createErr
	}
	logger.Info("Successfully created FAILED audit entry", "command_id", cmd.CommandID.String())
	return nil
}
