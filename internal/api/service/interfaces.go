package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
)

// CommandService queues ledger commands for the processor
type CommandService interface {
	// SubmitCommand validates cmd, fills in its id, correlation id and timestamp
	// when missing, and publishes it. Returns the command as published.
	SubmitCommand(ctx context.Context, cmd *shared.LedgerCommand) (*shared.LedgerCommand, error)

	// GetCommandStatus returns the audit entry the processor wrote for the command.
	// Returns nil when the command has not been processed yet.
	GetCommandStatus(ctx context.Context, commandID uuid.UUID) (*ledger.Entry, error)
}

// HistoryService reads the audit history store
type HistoryService interface {
	// GetEventHistory returns every revision of an event, oldest first
	GetEventHistory(ctx context.Context, eventID uuid.UUID) ([]*ledger.Entry, error)

	// GetTargetHistory returns a page of the entries that moved an account,
	// party, batch or sale, together with the total count
	GetTargetHistory(ctx context.Context, targetID uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)
}
