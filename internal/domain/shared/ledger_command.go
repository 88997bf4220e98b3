package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
)

var ErrInvalidCommand = errors.New("invalid ledger command")

// LedgerCommand is the Kafka message asking the processor to run one engine
// operation asynchronously
type LedgerCommand struct {
	CommandID       uuid.UUID     `json:"command_id"`
	Action          ledger.Action `json:"action"`
	EventID         uuid.UUID     `json:"event_id,omitempty"`
	ExpectedVersion *int          `json:"expected_version,omitempty"`
	Draft           *event.Draft  `json:"draft,omitempty"`
	CorrelationID   string        `json:"correlation_id"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Validate checks that the command carries what its action needs
func (c *LedgerCommand) Validate() error {
	if c.CommandID == uuid.Nil {
		return errors.Join(ErrInvalidCommand, errors.New("command_id is required"))
	}
	switch c.Action {
	case ledger.ActionCommit:
		if c.Draft == nil {
			return errors.Join(ErrInvalidCommand, errors.New("commit requires a draft"))
		}
	case ledger.ActionAmend:
		if c.EventID == uuid.Nil || c.Draft == nil {
			return errors.Join(ErrInvalidCommand, errors.New("amend requires event_id and draft"))
		}
	case ledger.ActionRevert:
		if c.EventID == uuid.Nil {
			return errors.Join(ErrInvalidCommand, errors.New("revert requires event_id"))
		}
	default:
		return errors.Join(ErrInvalidCommand, errors.New("unknown action "+string(c.Action)))
	}
	return nil
}
