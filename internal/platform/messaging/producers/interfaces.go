package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

// CommandPublisher hands ledger commands to the processor
type CommandPublisher interface {
	PublishCommand(ctx context.Context, cmd *shared.LedgerCommand) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ CommandPublisher    = (*CommandProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)
