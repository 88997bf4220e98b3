package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

type CommandProcessorImpl struct {
	engine          LedgerService
	validator       CommandValidator
	failureRecorder FailureRecorder
	logger          *slog.Logger
}

func NewCommandProcessor(
	engine LedgerService,
	validator CommandValidator,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) *CommandProcessorImpl {
	return &CommandProcessorImpl{
		engine:          engine,
		validator:       validator,
		failureRecorder: failureRecorder,
		logger:          logger,
	}
}

var _ CommandProcessor = (*CommandProcessorImpl)(nil)

// ProcessCommand runs one ledger command. A nil return acknowledges the
// message: the command was applied, was already handled, or was rejected and
// recorded. Any other error asks the consumer to redeliver.
func (s *CommandProcessorImpl) ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) error {
	logger := s.logger
	if cmd.CorrelationID != "" {
		logger = s.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Processing ledger command", "command_id", cmd.CommandID.String(), "action", cmd.Action)

	// 1. Validate the envelope
	if err := s.validator.Validate(ctx, cmd); err != nil {
		failureReason := string(shared.FailureReasonMalformedCommand)
		if !cmd.Action.IsValid() {
			failureReason = string(shared.FailureReasonUnknownAction)
		}
		s.recordFailure(ctx, logger, cmd, failureReason)
		return nil
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, cmd)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	// 3. Run the engine with the command id as audit entry id
	ctx = shared.WithCommandID(shared.WithCorrelationID(ctx, cmd.CorrelationID), cmd.CommandID)
	switch cmd.Action {
	case ledger.ActionCommit:
		draft := *cmd.Draft
		if draft.IdempotencyKey == "" {
			draft.IdempotencyKey = cmd.CommandID.String()
		}
		_, err = s.engine.Commit(ctx, &draft)
	case ledger.ActionAmend:
		_, err = s.engine.Amend(ctx, cmd.EventID, cmd.Draft, cmd.ExpectedVersion)
	case ledger.ActionRevert:
		_, err = s.engine.Revert(ctx, cmd.EventID, cmd.ExpectedVersion)
	}
	if err == nil {
		logger.Info("Ledger command applied", "command_id", cmd.CommandID.String(), "action", cmd.Action)
		return nil
	}

	if errors.Is(err, ledger.ErrDuplicateEntry{}) {
		logger.Info("Ledger command applied by an earlier delivery", "command_id", cmd.CommandID.String())
		return nil
	}

	var le *ledger.Error
	if !errors.As(err, &le) {
		logger.Error("Ledger command failed, will retry", "command_id", cmd.CommandID.String(), "error", err)
		return err
	}
	// a lost lock race without a caller-supplied version may pass on redelivery
	if le.Kind == ledger.KindConcurrency && cmd.ExpectedVersion == nil {
		logger.Warn("Ledger command raced another writer, will retry", "command_id", cmd.CommandID.String(), "error", err)
		return err
	}

	s.recordFailure(ctx, logger, cmd, ledgerFailureReason(le))
	return nil
}

func (s *CommandProcessorImpl) recordFailure(ctx context.Context, logger *slog.Logger, cmd *shared.LedgerCommand, failureReason string) {
	if err := s.failureRecorder.RecordFailure(ctx, cmd, failureReason); err != nil {
		logger.Error("Failed to record command failure", "command_id", cmd.CommandID.String(), "error", err)
	}
}

func ledgerFailureReason(le *ledger.Error) string {
	msg := le.Message
	if msg == "" && le.Err != nil {
		msg = le.Err.Error()
	}
	return fmt.Sprintf(string(shared.FailureReasonLedgerFormat), le.Code, msg)
}
