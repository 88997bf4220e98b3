package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/platform/metrics"
)

type LedgerServiceImpl struct {
	txManager     store.TxManager
	planner       EffectPlanner
	applier       EffectApplier
	outboxManager OutboxManager
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func NewLedgerService(
	txManager store.TxManager,
	planner EffectPlanner,
	applier EffectApplier,
	outboxManager OutboxManager,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		txManager:     txManager,
		planner:       planner,
		applier:       applier,
		outboxManager: outboxManager,
		metrics:       m,
		logger:        logger,
	}
}

var _ LedgerService = (*LedgerServiceImpl)(nil)

// Commit applies a new event's effects and records it in the journal
func (s *LedgerServiceImpl) Commit(ctx context.Context, draft *event.Draft) (*event.Event, error) {
	if draft == nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "draft is required")
	}
	return s.execute(ctx, Operation{Action: ledger.ActionCommit, Draft: draft})
}

// Amend replaces a committed event, applying new effects minus recorded effects per target
func (s *LedgerServiceImpl) Amend(ctx context.Context, eventID uuid.UUID, draft *event.Draft, expectedVersion *int) (*event.Event, error) {
	if draft == nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "draft is required")
	}
	return s.execute(ctx, Operation{
		Action:          ledger.ActionAmend,
		EventID:         eventID,
		ExpectedVersion: expectedVersion,
		Draft:           draft,
	})
}

// Revert reverses an event's recorded effects and marks it reverted
func (s *LedgerServiceImpl) Revert(ctx context.Context, eventID uuid.UUID, expectedVersion *int) (*event.Event, error) {
	return s.execute(ctx, Operation{
		Action:          ledger.ActionRevert,
		EventID:         eventID,
		ExpectedVersion: expectedVersion,
	})
}

func (s *LedgerServiceImpl) execute(ctx context.Context, op Operation) (*event.Event, error) {
	start := time.Now()
	logger := s.logger.With("action", op.Action)
	if correlationID := shared.CorrelationID(ctx); correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}
	if op.EventID != uuid.Nil {
		logger = logger.With("event_id", op.EventID.String())
	}

	var (
		result   *event.Event
		replayed bool
	)
	err := s.txManager.ExecuteTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		result, replayed = nil, false

		plan, err := s.planner.Plan(ctx, uow, op)
		if err != nil {
			return err
		}
		if plan.Replayed != nil {
			result, replayed = plan.Replayed, true
			return nil
		}

		if err := s.applier.Apply(ctx, uow, plan); err != nil {
			return err
		}

		if op.Action == ledger.ActionCommit {
			err = uow.Events().Create(ctx, plan.Event)
		} else {
			err = uow.Events().Update(ctx, plan.Event)
		}
		if err != nil {
			return fmt.Errorf("failed to record event %s: %w", plan.Event.ID, err)
		}

		if err := s.outboxManager.RecordEntry(ctx, uow, s.newEntry(ctx, plan)); err != nil {
			return err
		}
		result = plan.Event
		return nil
	})

	// A concurrent commit with the same idempotency key won the insert
	if err != nil && op.Action == ledger.ActionCommit && errors.Is(err, event.ErrDuplicateIdempotencyKey{}) {
		existing, lookupErr := s.txManager.Reader().Events().GetByIdempotencyKey(ctx, op.Draft.IdempotencyKey)
		if lookupErr == nil && existing != nil {
			result, replayed, err = existing, true, nil
		}
	}

	kind := operationKind(op, result)
	if err != nil {
		err = store.LedgerError(err)
		outcome := metrics.OutcomeError
		switch ledger.KindOf(err) {
		case ledger.KindValidation, ledger.KindConflict, ledger.KindNotFound, ledger.KindConcurrency:
			outcome = metrics.OutcomeRejected
			logger.Warn("Ledger operation rejected", "kind", kind, "error", err)
		case ledger.KindIntegrity:
			logger.Error("Ledger integrity violation, operation rolled back", "kind", kind, "error", err)
		default:
			logger.Error("Ledger operation failed", "kind", kind, "error", err)
		}
		s.metrics.ObserveOperation(string(op.Action), kind, outcome, time.Since(start))
		return nil, err
	}

	if replayed {
		logger.Info("Idempotency key already committed, returning existing event",
			"event_id", result.ID.String(),
			"idempotency_key", result.IdempotencyKey,
		)
		s.metrics.ObserveOperation(string(op.Action), kind, metrics.OutcomeReplayed, time.Since(start))
		return result, nil
	}

	logger.Info("Ledger operation applied",
		"event_id", result.ID.String(),
		"kind", kind,
		"version", result.Version,
	)
	s.metrics.ObserveOperation(string(op.Action), kind, metrics.OutcomeSuccess, time.Since(start))
	return result, nil
}

func (s *LedgerServiceImpl) newEntry(ctx context.Context, plan *Plan) *ledger.Entry {
	entry := ledger.NewEntry(plan.Event.ID, string(plan.Event.Kind), plan.Event.Version, plan.Op.Action, plan.Deltas)
	if commandID, ok := shared.CommandID(ctx); ok {
		entry.ID = commandID
	}
	entry.IdempotencyKey = plan.Event.IdempotencyKey
	entry.CorrelationID = shared.CorrelationID(ctx)
	return entry
}

func operationKind(op Operation, result *event.Event) string {
	switch {
	case result != nil:
		return string(result.Kind)
	case op.Draft != nil && op.Draft.Kind.IsValid():
		return string(op.Draft.Kind)
	}
	return "UNKNOWN"
}

func (s *LedgerServiceImpl) GetEvent(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	ev, err := s.txManager.Reader().Events().GetByID(ctx, id)
	if err != nil {
		return nil, store.LedgerError(err)
	}
	return ev, nil
}

func (s *LedgerServiceImpl) ListEvents(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	events, err := s.txManager.Reader().Events().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetAccountBalance returns the current balance in the account's currency
func (s *LedgerServiceImpl) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (money.Money, error) {
	acc, err := s.txManager.Reader().Accounts().GetByID(ctx, accountID)
	if err != nil {
		return money.Money{}, store.LedgerError(err)
	}
	return acc.Balance, nil
}

// GetAgentDebt returns both currency slots of an agent's debt
func (s *LedgerServiceImpl) GetAgentDebt(ctx context.Context, agentID uuid.UUID) (party.Balance, error) {
	return s.debt(ctx, agentID, party.RoleAgent)
}

// GetSupplierDebt returns both currency slots of the amount owed to or by a supplier
func (s *LedgerServiceImpl) GetSupplierDebt(ctx context.Context, supplierID uuid.UUID) (party.Balance, error) {
	return s.debt(ctx, supplierID, party.RoleSupplier)
}

func (s *LedgerServiceImpl) debt(ctx context.Context, id uuid.UUID, role party.Role) (party.Balance, error) {
	p, err := s.txManager.Reader().Parties().GetByID(ctx, id)
	if err != nil {
		return party.Balance{}, store.LedgerError(err)
	}
	if p.Role != role {
		return party.Balance{}, ledger.Newf(ledger.ErrUnknownTarget, "%s is a %s, not a %s", id, p.Role, role)
	}
	return p.Balance(), nil
}
