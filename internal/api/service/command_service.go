package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/platform/messaging/producers"
)

// CommandServiceImpl implements the CommandService interface
type CommandServiceImpl struct {
	ledgerRepo ledger.Repository
	producer   producers.CommandPublisher
	logger     *slog.Logger
}

// NewCommandService creates a new command service
func NewCommandService(logger *slog.Logger, ledgerRepo ledger.Repository, producer producers.CommandPublisher) CommandService {
	return &CommandServiceImpl{
		ledgerRepo: ledgerRepo,
		producer:   producer,
		logger:     logger,
	}
}

// SubmitCommand publishes cmd for asynchronous execution. Idempotency is
// enforced by the engine when the command runs, so a resubmitted commit with
// the same idempotency key replays instead of applying twice.
func (s *CommandServiceImpl) SubmitCommand(ctx context.Context, cmd *shared.LedgerCommand) (*shared.LedgerCommand, error) {
	if cmd.CommandID == uuid.Nil {
		cmd.CommandID = uuid.New()
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = shared.CorrelationID(ctx)
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now().UTC()
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if err := s.producer.PublishCommand(ctx, cmd); err != nil {
		s.logger.Error("Failed to publish ledger command",
			"command_id", cmd.CommandID.String(),
			"action", string(cmd.Action),
			"event_id", cmd.EventID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logger.Info("Ledger command published",
		"command_id", cmd.CommandID.String(),
		"action", string(cmd.Action),
		"event_id", cmd.EventID.String(),
		"correlation_id", cmd.CorrelationID,
	)

	return cmd, nil
}

// GetCommandStatus looks the command up in the audit history. Returns nil if
// the processor has not written an entry for it yet.
func (s *CommandServiceImpl) GetCommandStatus(ctx context.Context, commandID uuid.UUID) (*ledger.Entry, error) {
	entry, err := s.ledgerRepo.GetByID(ctx, commandID)
	if err != nil {
		var errEntryNotFound ledger.ErrEntryNotFound
		if errors.As(err, &errEntryNotFound) {
			s.logger.Debug("Command not processed yet", "command_id", commandID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get command status", "command_id", commandID.String(), "error", err)
		return nil, err
	}
	return entry, nil
}
