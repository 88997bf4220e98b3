package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/outbox"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

// Pool is the connection pool the store runs on; satisfied by *pgxpool.Pool
// and pgxmock pools
type Pool interface {
	persistence.Querier
	persistence.TxBeginner
	persistence.TxOptionsBeginner
}

var readOnlySnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// TxManager implements store.TxManager on PostgreSQL. Writes run at READ
// COMMITTED; the engine takes row locks in a global order.
type TxManager struct {
	pool   Pool
	logger *slog.Logger
}

func NewTxManager(pool Pool, logger *slog.Logger) *TxManager {
	return &TxManager{pool: pool, logger: logger}
}

var _ store.TxManager = (*TxManager)(nil)

func (m *TxManager) ExecuteTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	err := persistence.RunInTx(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(ctx, newUnitOfWork(tx, m.logger))
	})
	return txConflict(err)
}

// ExecuteReadOnly runs fn in a REPEATABLE READ READ ONLY transaction so every
// query sees the same snapshot
func (m *TxManager) ExecuteReadOnly(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	return persistence.RunInTxWithOptions(ctx, m.pool, readOnlySnapshot, func(tx pgx.Tx) error {
		return fn(ctx, newUnitOfWork(tx, m.logger))
	})
}

func (m *TxManager) Reader() store.UnitOfWork {
	return newUnitOfWork(m.pool, m.logger)
}

type unitOfWork struct {
	accounts *AccountRepository
	parties  *PartyRepository
	batches  *BatchRepository
	events   *EventRepository
	audit    *AuditLogRepository
	outbox   *OutboxRepository
}

func newUnitOfWork(q persistence.Querier, logger *slog.Logger) *unitOfWork {
	return &unitOfWork{
		accounts: &AccountRepository{querier: q, logger: logger},
		parties:  &PartyRepository{querier: q, logger: logger},
		batches:  &BatchRepository{querier: q, logger: logger},
		events:   &EventRepository{querier: q, logger: logger},
		audit:    &AuditLogRepository{querier: q, logger: logger},
		outbox:   &OutboxRepository{querier: q, logger: logger},
	}
}

func (u *unitOfWork) Accounts() account.Repository  { return u.accounts }
func (u *unitOfWork) Parties() party.Repository     { return u.parties }
func (u *unitOfWork) Batches() inventory.Repository { return u.batches }
func (u *unitOfWork) Events() event.Repository      { return u.events }
func (u *unitOfWork) AuditLog() ledger.AuditLog     { return u.audit }
func (u *unitOfWork) Outbox() outbox.Repository     { return u.outbox }
