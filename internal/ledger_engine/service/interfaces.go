package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
)

// LedgerService is the ledger engine, the only writer of balances, debts and
// stock. Every mutating call runs in one transaction and either applies all of
// its effects or none.
type LedgerService interface {
	Commit(ctx context.Context, draft *event.Draft) (*event.Event, error)
	Amend(ctx context.Context, eventID uuid.UUID, draft *event.Draft, expectedVersion *int) (*event.Event, error)
	Revert(ctx context.Context, eventID uuid.UUID, expectedVersion *int) (*event.Event, error)

	GetEvent(ctx context.Context, id uuid.UUID) (*event.Event, error)
	ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error)
	GetAccountBalance(ctx context.Context, accountID uuid.UUID) (money.Money, error)
	GetAgentDebt(ctx context.Context, agentID uuid.UUID) (party.Balance, error)
	GetSupplierDebt(ctx context.Context, supplierID uuid.UUID) (party.Balance, error)
}

// MasterDataService manages accounts, agents, suppliers and batch metadata.
// None of its operations move a balance.
type MasterDataService interface {
	CreateAccount(ctx context.Context, name string, kind account.Kind, opening money.Money) (*account.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]*account.Account, error)
	SetAccountActive(ctx context.Context, id uuid.UUID, active bool) (*account.Account, error)

	CreateParty(ctx context.Context, role party.Role, name, phone string) (*party.Party, error)
	GetParty(ctx context.Context, id uuid.UUID) (*party.Party, error)
	ListParties(ctx context.Context, role party.Role) ([]*party.Party, error)

	GetBatch(ctx context.Context, id uuid.UUID) (*inventory.Batch, error)
	ListBatches(ctx context.Context) ([]*inventory.Batch, error)
}

// Operation is one engine call
type Operation struct {
	Action          ledger.Action
	EventID         uuid.UUID
	ExpectedVersion *int
	Draft           *event.Draft
}

// Plan is what an operation will do, computed from unlocked reads. The applier
// locks every resource the plan touches and verifies the plan still holds.
type Plan struct {
	Op Operation
	// Event is the journal row as it will be after the operation
	Event *event.Event
	// Previous is the journal row as read, nil for commits
	Previous *event.Event
	// Deltas are aggregated per target and ordered by target key
	Deltas []ledger.Effect
	// NewBatch is created before locking when an acquisition is committed
	NewBatch *inventory.Batch
	// BatchUpdate carries new batch metadata when an acquisition is amended
	BatchUpdate *inventory.Batch
	// Guards maps every event the plan read to the version it saw
	Guards map[uuid.UUID]int
	// Replayed is set when a commit's idempotency key was already used
	Replayed *event.Event
}

// Resources lists every row the plan must lock, in global lock order
func (p *Plan) Resources() []ledger.Resource {
	rs := ledger.Resources(p.Deltas)
	for id := range p.Guards {
		rs = append(rs, ledger.Resource{Kind: ledger.ResourceEvent, ID: id})
	}
	return ledger.SortResources(rs)
}

// EffectPlanner validates an operation and computes its deltas
type EffectPlanner interface {
	Plan(ctx context.Context, uow store.UnitOfWork, op Operation) (*Plan, error)
}

// EffectApplier locks the plan's resources in order, re-validates and writes the deltas
type EffectApplier interface {
	Apply(ctx context.Context, uow store.UnitOfWork, plan *Plan) error
}

// OutboxManager appends the audit entry and queues it for the history store
type OutboxManager interface {
	RecordEntry(ctx context.Context, uow store.UnitOfWork, entry *ledger.Entry) error
}

// CommandProcessor executes ledger commands received from Kafka
type CommandProcessor interface {
	ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) error
}

// CommandValidator checks commands before they reach the engine
type CommandValidator interface {
	Validate(ctx context.Context, cmd *shared.LedgerCommand) error
	CheckIdempotency(ctx context.Context, cmd *shared.LedgerCommand) (bool, error)
}

// FailureRecorder stores rejected commands in the audit history
type FailureRecorder interface {
	RecordFailure(ctx context.Context, cmd *shared.LedgerCommand, failureReason string) error
}

// Drift is one stored value that disagrees with the audit log
type Drift struct {
	Target   ledger.Target   `json:"target"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
}

// ReconcileReport is the result of recomputing every balance from the audit log
type ReconcileReport struct {
	EntriesScanned int       `json:"entries_scanned"`
	Accounts       int       `json:"accounts"`
	Parties        int       `json:"parties"`
	Batches        int       `json:"batches"`
	Sales          int       `json:"sales"`
	Drifts         []Drift   `json:"drifts"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Consistent reports whether no drift was found
func (r *ReconcileReport) Consistent() bool {
	return len(r.Drifts) == 0
}

// Reconciler cross-checks stored balances against the audit log
type Reconciler interface {
	Reconcile(ctx context.Context) (*ReconcileReport, error)
}
