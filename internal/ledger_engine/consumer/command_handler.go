package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
	"github.com/ticket-backoffice-ledger/internal/platform/messaging/producers"
)

// CommandHandler handles ledger command messages from Kafka
type CommandHandler struct {
	processor service.CommandProcessor
	producer  producers.DeadLetterPublisher
	logger    *slog.Logger
}

// NewCommandHandler creates a new handler. producer may be nil when no DLQ
// topic is configured.
func NewCommandHandler(
	logger *slog.Logger,
	processor service.CommandProcessor,
	producer producers.DeadLetterPublisher,
) *CommandHandler {
	return &CommandHandler{
		processor: processor,
		producer:  producer,
		logger:    logger,
	}
}

// HandleMessage decodes one command and runs it. A nil return commits the offset.
func (h *CommandHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var cmd shared.LedgerCommand
	if err := json.Unmarshal(value, &cmd); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal ledger command from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if cmd.CorrelationID != "" {
		logger = h.logger.With("correlation_id", cmd.CorrelationID)
	}

	attrs := []any{
		"command_id", cmd.CommandID.String(),
		"action", cmd.Action,
	}
	if cmd.Draft != nil {
		attrs = append(attrs, "kind", cmd.Draft.Kind)
	}
	logger.Info("Received ledger command for processing", attrs...)

	if err := h.processor.ProcessCommand(ctx, &cmd); err != nil {
		logger.Error("Failed to process ledger command",
			"command_id", cmd.CommandID.String(),
			"event_id", cmd.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("processing command %s failed: %w", cmd.CommandID.String(), err)
	}

	logger.Info("Successfully processed ledger command", "command_id", cmd.CommandID.String())
	return nil
}
