package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/ticket-backoffice-ledger/internal/config"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

const correlationIDHeader = "correlation-id"

// CommandProducer publishes ledger commands for the processor
type CommandProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewCommandProducer creates the command producer and ensures the topic exists
func NewCommandProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*CommandProducer, error) {
	if cfg.CommandTopic == "" {
		return nil, fmt.Errorf("kafka command topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for command producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(ctx, conn, cfg.CommandTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure command topic %s exists: %w", cfg.CommandTopic, err)
	}

	// Writes are synchronous so the caller learns whether the command was accepted
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.CommandTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return &CommandProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CommandTopic,
	}, nil
}

// PublishCommand writes cmd keyed by the event it targets, so commands for
// one event stay ordered within a partition. Commits key on the command id.
func (p *CommandProducer) PublishCommand(ctx context.Context, cmd *shared.LedgerCommand) error {
	key := cmd.CommandID
	if cmd.EventID != uuid.Nil {
		key = cmd.EventID
	}
	value, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger command %s: %w", cmd.CommandID, err)
	}

	msg := kafka.Message{
		Key:   []byte(key.String()),
		Value: value,
	}
	if cmd.CorrelationID != "" {
		msg.Headers = []kafka.Header{{Key: correlationIDHeader, Value: []byte(cmd.CorrelationID)}}
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger command",
			"topic", p.topic,
			"command_id", cmd.CommandID.String(),
			"action", cmd.Action,
			"error", err,
		)
		return fmt.Errorf("failed to publish command to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger command",
		"topic", p.topic,
		"command_id", cmd.CommandID.String(),
		"action", cmd.Action,
	)
	return nil
}

func (p *CommandProducer) Close() error {
	p.logger.Info("Closing ledger command producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close command writer for topic %s: %w", p.topic, err)
	}
	return nil
}
