package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// EffectPlannerImpl turns an operation into a plan: it validates the draft,
// resolves the entities the effect function reads and computes the deltas.
// Nothing is locked or written here.
type EffectPlannerImpl struct {
	logger *slog.Logger
}

func NewEffectPlanner(logger *slog.Logger) *EffectPlannerImpl {
	return &EffectPlannerImpl{logger: logger}
}

var _ service.EffectPlanner = (*EffectPlannerImpl)(nil)

func (p *EffectPlannerImpl) Plan(ctx context.Context, uow store.UnitOfWork, op service.Operation) (*service.Plan, error) {
	switch op.Action {
	case ledger.ActionCommit:
		return p.planCommit(ctx, uow, op)
	case ledger.ActionAmend:
		return p.planAmend(ctx, uow, op)
	case ledger.ActionRevert:
		return p.planRevert(ctx, uow, op)
	}
	return nil, ledger.Newf(ledger.ErrInvalidEvent, "unknown action %q", op.Action)
}

func (p *EffectPlannerImpl) planCommit(ctx context.Context, uow store.UnitOfWork, op service.Operation) (*service.Plan, error) {
	d := op.Draft
	if d == nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "commit requires a draft")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if d.IdempotencyKey != "" {
		existing, err := uow.Events().GetByIdempotencyKey(ctx, d.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lookup failed for key %s: %w", d.IdempotencyKey, err)
		}
		if existing != nil {
			return &service.Plan{Op: op, Replayed: existing}, nil
		}
	}

	id := uuid.New()
	guards := make(map[uuid.UUID]int)
	effects, err := p.effects(ctx, uow, id, d, guards)
	if err != nil {
		return nil, err
	}

	plan := &service.Plan{
		Op:     op,
		Event:  event.NewEvent(id, *d, effects),
		Deltas: ledger.Aggregate(effects),
		Guards: guards,
	}
	if a := d.Acquisition; a != nil {
		plan.NewBatch = inventory.NewBatch(id, a.SupplierID, a.Title, a.UnitCost)
		plan.NewBatch.Details = a.Details
	}
	return plan, nil
}

func (p *EffectPlannerImpl) planAmend(ctx context.Context, uow store.UnitOfWork, op service.Operation) (*service.Plan, error) {
	d := op.Draft
	if d == nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "amend requires a draft")
	}
	prev, err := p.current(ctx, uow, op)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Kind != prev.Kind {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "cannot amend a %s into a %s", prev.Kind, d.Kind)
	}
	if err := CheckSaleAmend(prev, d); err != nil {
		return nil, err
	}

	guards := map[uuid.UUID]int{prev.ID: prev.Version}
	effects, err := p.effects(ctx, uow, prev.ID, d, guards)
	if err != nil {
		return nil, err
	}

	next := *prev
	next.Supersede(*d, effects)
	plan := &service.Plan{
		Op:       op,
		Event:    &next,
		Previous: prev,
		Deltas:   ledger.Diff(effects, prev.Effects),
		Guards:   guards,
	}

	if a := d.Acquisition; a != nil {
		batch, err := uow.Batches().GetByID(ctx, prev.ID)
		if err != nil {
			return nil, store.LedgerError(err)
		}
		if a.UnitCost.Currency() != batch.Currency {
			return nil, ledger.Newf(ledger.ErrCurrencyMismatch,
				"batch %s is priced in %s, amendment uses %s", batch.ID, batch.Currency, a.UnitCost.Currency())
		}
		updated := *batch
		updated.SupplierID = a.SupplierID
		updated.Title = a.Title
		updated.Details = a.Details
		updated.UnitCost = a.UnitCost
		plan.BatchUpdate = &updated
	}
	return plan, nil
}

func (p *EffectPlannerImpl) planRevert(ctx context.Context, uow store.UnitOfWork, op service.Operation) (*service.Plan, error) {
	prev, err := p.current(ctx, uow, op)
	if err != nil {
		return nil, err
	}
	if err := CheckSaleRevert(prev); err != nil {
		return nil, err
	}

	next := *prev
	next.MarkReverted()
	return &service.Plan{
		Op:       op,
		Event:    &next,
		Previous: prev,
		Deltas:   ledger.Aggregate(ledger.Negate(prev.Effects)),
		Guards:   map[uuid.UUID]int{prev.ID: prev.Version},
	}, nil
}

// current loads the event an amend or revert targets and checks it can change
func (p *EffectPlannerImpl) current(ctx context.Context, uow store.UnitOfWork, op service.Operation) (*event.Event, error) {
	if op.EventID == uuid.Nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "%s requires an event id", op.Action)
	}
	prev, err := uow.Events().GetByID(ctx, op.EventID)
	if err != nil {
		return nil, store.LedgerError(err)
	}
	if !prev.IsActive() {
		return nil, ledger.Newf(ledger.ErrEventReverted, "event %s was reverted", prev.ID)
	}
	if op.ExpectedVersion != nil && *op.ExpectedVersion != prev.Version {
		return nil, ledger.Newf(ledger.ErrConcurrentModification,
			"event %s is at version %d, expected %d", prev.ID, prev.Version, *op.ExpectedVersion)
	}
	return prev, nil
}

// effects resolves what the effect function reads for d and evaluates it.
// Every event read is added to guards with the version seen.
func (p *EffectPlannerImpl) effects(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, d *event.Draft, guards map[uuid.UUID]int) ([]ledger.Effect, error) {
	var refs event.Refs
	switch d.Kind {
	case event.KindSale:
		batch, err := uow.Batches().GetByID(ctx, d.Sale.BatchID)
		if err != nil {
			return nil, store.LedgerError(err)
		}
		if batch.Currency != d.Sale.Currency() {
			return nil, ledger.Newf(ledger.ErrCurrencyMismatch,
				"batch %s is priced in %s, sale is in %s", batch.ID, batch.Currency, d.Sale.Currency())
		}
		if d.Sale.Buyer.IsAgent() {
			if err := p.requireParty(ctx, uow, *d.Sale.Buyer.AgentID, party.RoleAgent); err != nil {
				return nil, err
			}
		}

	case event.KindReturn:
		sale, err := p.activeSale(ctx, uow, d.Return.SaleID, guards)
		if err != nil {
			return nil, err
		}
		batch, err := uow.Batches().GetByID(ctx, sale.Draft.Sale.BatchID)
		if err != nil {
			return nil, store.LedgerError(err)
		}
		refs.Sale = sale
		refs.BatchSupplierID = batch.SupplierID
		refs.BatchUnitCost = batch.UnitCost

	case event.KindTransfer:
		to, err := p.account(ctx, uow, d.Transfer.ToAccountID)
		if err != nil {
			return nil, err
		}
		refs.ToCurrency = to.Currency

	case event.KindAgentPayment:
		ap := d.AgentPayment
		if err := p.requireParty(ctx, uow, ap.AgentID, party.RoleAgent); err != nil {
			return nil, err
		}
		if ap.SaleID != nil {
			sale, err := p.activeSale(ctx, uow, *ap.SaleID, guards)
			if err != nil {
				return nil, err
			}
			s := sale.Draft.Sale
			if !s.Buyer.IsAgent() || *s.Buyer.AgentID != ap.AgentID {
				return nil, ledger.Newf(ledger.ErrInvalidEvent, "sale %s was not sold to agent %s", sale.ID, ap.AgentID)
			}
			if s.PaidToAccountID != nil {
				return nil, ledger.Newf(ledger.ErrInvalidEvent,
					"sale %s was paid to an account and left no agent debt to collect", sale.ID)
			}
			amount, err := ap.Amount()
			if err != nil {
				return nil, err
			}
			if amount.Currency() != s.Currency() {
				return nil, ledger.Newf(ledger.ErrCurrencyMismatch,
					"payment is in %s, sale %s is in %s", amount.Currency(), sale.ID, s.Currency())
			}
		}

	case event.KindAcquisition:
		if err := p.requireParty(ctx, uow, d.Acquisition.SupplierID, party.RoleSupplier); err != nil {
			return nil, err
		}
	}

	effects, err := event.Effects(id, d, refs)
	if err != nil {
		return nil, store.LedgerError(err)
	}
	return effects, nil
}

func (p *EffectPlannerImpl) activeSale(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, guards map[uuid.UUID]int) (*event.Event, error) {
	sale, err := uow.Events().GetByID(ctx, id)
	if errors.Is(err, event.ErrEventNotFound{}) {
		return nil, ledger.Wrap(ledger.ErrUnknownTarget, err, "referenced sale")
	}
	if err != nil {
		return nil, err
	}
	if sale.Kind != event.KindSale || sale.Draft.Sale == nil {
		return nil, ledger.Newf(ledger.ErrInvalidEvent, "event %s is a %s, not a sale", id, sale.Kind)
	}
	if !sale.IsActive() {
		return nil, ledger.Newf(ledger.ErrEventReverted, "sale %s was reverted", id)
	}
	guards[sale.ID] = sale.Version
	return sale, nil
}

func (p *EffectPlannerImpl) account(ctx context.Context, uow store.UnitOfWork, id uuid.UUID) (*account.Account, error) {
	acc, err := uow.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, store.LedgerError(err)
	}
	return acc, nil
}

func (p *EffectPlannerImpl) requireParty(ctx context.Context, uow store.UnitOfWork, id uuid.UUID, role party.Role) error {
	pt, err := uow.Parties().GetByID(ctx, id)
	if err != nil {
		return store.LedgerError(err)
	}
	if pt.Role != role {
		return ledger.Newf(ledger.ErrUnknownTarget, "%s is a %s, not a %s", id, pt.Role, role)
	}
	return nil
}

// CheckSaleRevert refuses to revert a sale that returns or payments still refer to
func CheckSaleRevert(sale *event.Event) error {
	if sale.Kind == event.KindSale && sale.HasDependents() {
		return ledger.Newf(ledger.ErrDependentEvents,
			"sale %s has %d returned units and linked payments of %s; revert those first",
			sale.ID, sale.ReturnedQuantity, sale.PaidRaw)
	}
	return nil
}

// CheckSaleAmend limits what may change on a sale that returns or payments
// refer to: only the price and a quantity no lower than what was returned.
func CheckSaleAmend(sale *event.Event, next *event.Draft) error {
	if sale.Kind != event.KindSale || !sale.HasDependents() || next.Sale == nil {
		return nil
	}
	old, s := sale.Draft.Sale, next.Sale
	switch {
	case old.BatchID != s.BatchID:
		return dependentChange(sale, "batch")
	case !sameID(old.Buyer.AgentID, s.Buyer.AgentID):
		return dependentChange(sale, "buyer")
	case !sameID(old.PaidToAccountID, s.PaidToAccountID):
		return dependentChange(sale, "paid account")
	case old.Currency() != s.Currency():
		return dependentChange(sale, "currency")
	case s.Quantity < sale.ReturnedQuantity:
		return ledger.Newf(ledger.ErrDependentEvents,
			"sale %s already has %d units returned, cannot reduce quantity to %d", sale.ID, sale.ReturnedQuantity, s.Quantity)
	}
	return nil
}

func dependentChange(sale *event.Event, field string) error {
	return ledger.Newf(ledger.ErrDependentEvents, "cannot change the %s of sale %s while returns or payments refer to it", field, sale.ID)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
