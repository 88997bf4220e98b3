package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

type CommandValidatorImpl struct {
	auditLog   func() ledger.AuditLog
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewCommandValidator checks idempotency against the transactional audit log
// of txManager and the audit history in ledgerRepo
func NewCommandValidator(txManager store.TxManager, ledgerRepo ledger.Repository, logger *slog.Logger) *CommandValidatorImpl {
	return &CommandValidatorImpl{
		auditLog:   func() ledger.AuditLog { return txManager.Reader().AuditLog() },
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

var _ service.CommandValidator = (*CommandValidatorImpl)(nil)

// Validate checks the command envelope. Draft contents are validated by the engine.
func (v *CommandValidatorImpl) Validate(ctx context.Context, cmd *shared.LedgerCommand) error {
	if err := cmd.Validate(); err != nil {
		v.logger.With("correlation_id", cmd.CorrelationID).Error("Invalid ledger command",
			"command_id", cmd.CommandID.String(),
			"action", cmd.Action,
			"error", err,
		)
		return err
	}
	return nil
}

// CheckIdempotency reports whether the command was already applied or already
// recorded as failed
func (v *CommandValidatorImpl) CheckIdempotency(ctx context.Context, cmd *shared.LedgerCommand) (bool, error) {
	logger := v.logger
	if cmd.CorrelationID != "" {
		logger = v.logger.With("correlation_id", cmd.CorrelationID)
	}

	applied, err := v.auditLog().GetByID(ctx, cmd.CommandID)
	if err != nil {
		logger.Error("Failed to check audit log for idempotency", "command_id", cmd.CommandID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for command %s: %w", cmd.CommandID, err)
	}
	if applied != nil {
		logger.Info("Command already applied (idempotency)", "command_id", cmd.CommandID.String(), "event_id", applied.EventID.String())
		return true, nil
	}

	if v.ledgerRepo == nil {
		return false, nil
	}
	recorded, err := v.ledgerRepo.GetByID(ctx, cmd.CommandID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		logger.Error("Failed to check audit history for idempotency", "command_id", cmd.CommandID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for command %s: %w", cmd.CommandID, err)
	}
	if recorded != nil && recorded.Status == ledger.StatusFailed {
		logger.Info("Command already rejected (idempotency)", "command_id", cmd.CommandID.String(), "reason", recorded.FailureReason)
		return true, nil
	}

	return false, nil
}
