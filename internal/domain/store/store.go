// Package store declares the transactional boundary the ledger engine runs in.
package store

import (
	"context"

	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
)

// UnitOfWork exposes every repository bound to one transaction
type UnitOfWork interface {
	Accounts() account.Repository
	Parties() party.Repository
	Batches() inventory.Repository
	Events() event.Repository
	AuditLog() ledger.AuditLog
	Outbox() outbox.Repository
}

// TxManager runs fn inside a single atomic transaction. Returning an error
// from fn, or panicking, rolls back every write made through uow.
type TxManager interface {
	ExecuteTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	// ExecuteReadOnly runs fn against one consistent snapshot; writes are not allowed
	ExecuteReadOnly(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	// Reader returns repositories outside any transaction, for queries
	Reader() UnitOfWork
}
