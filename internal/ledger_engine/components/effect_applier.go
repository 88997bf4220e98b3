package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// EffectApplierImpl implements the EffectApplier interface
type EffectApplierImpl struct {
	funds  *FundsPolicy
	logger *slog.Logger
}

// NewEffectApplier creates a new EffectApplierImpl
func NewEffectApplier(funds *FundsPolicy, logger *slog.Logger) *EffectApplierImpl {
	return &EffectApplierImpl{
		funds:  funds,
		logger: logger,
	}
}

var _ service.EffectApplier = (*EffectApplierImpl)(nil)

// locked holds every row of a plan as read under its lock
type locked struct {
	accounts map[uuid.UUID]*account.Account
	parties  map[uuid.UUID]*party.Party
	batches  map[uuid.UUID]*inventory.Batch
	events   map[uuid.UUID]*event.Event
}

type stockDelta struct {
	initial, available int64
}

type counterDelta struct {
	paid     decimal.Decimal
	returned int64
}

// Apply locks every resource of the plan in global key order, re-checks the
// plan against the locked rows and writes the deltas. Any failure leaves the
// caller's transaction to roll back.
func (a *EffectApplierImpl) Apply(ctx context.Context, uow store.UnitOfWork, plan *service.Plan) error {
	logger := a.logger.With("action", plan.Op.Action, "event_id", plan.Event.ID.String())

	if plan.NewBatch != nil {
		if err := uow.Batches().Create(ctx, plan.NewBatch); err != nil {
			return fmt.Errorf("failed to create batch %s: %w", plan.NewBatch.ID, err)
		}
	}

	rows, err := a.lock(ctx, uow, plan.Resources())
	if err != nil {
		return err
	}
	logger.Debug("Resources locked", "count", len(plan.Resources()))

	if err := a.verifyGuards(plan, rows); err != nil {
		return err
	}

	stock, counters, err := a.check(plan, rows)
	if err != nil {
		return err
	}

	if plan.BatchUpdate != nil {
		if err := uow.Batches().UpdateDetails(ctx, plan.BatchUpdate); err != nil {
			return fmt.Errorf("failed to update batch %s: %w", plan.BatchUpdate.ID, err)
		}
	}
	return a.write(ctx, uow, plan, stock, counters)
}

func (a *EffectApplierImpl) lock(ctx context.Context, uow store.UnitOfWork, resources []ledger.Resource) (*locked, error) {
	rows := &locked{
		accounts: make(map[uuid.UUID]*account.Account),
		parties:  make(map[uuid.UUID]*party.Party),
		batches:  make(map[uuid.UUID]*inventory.Batch),
		events:   make(map[uuid.UUID]*event.Event),
	}
	for _, r := range resources {
		var err error
		switch r.Kind {
		case ledger.ResourceAccount:
			rows.accounts[r.ID], err = uow.Accounts().LockForUpdate(ctx, r.ID)
		case ledger.ResourceParty:
			rows.parties[r.ID], err = uow.Parties().LockForUpdate(ctx, r.ID)
		case ledger.ResourceBatch:
			rows.batches[r.ID], err = uow.Batches().LockForUpdate(ctx, r.ID)
		case ledger.ResourceEvent:
			rows.events[r.ID], err = uow.Events().LockForUpdate(ctx, r.ID)
		}
		if err != nil {
			if le := store.LedgerError(err); le != err {
				return nil, le
			}
			return nil, fmt.Errorf("failed to lock %s: %w", r.Key(), err)
		}
	}
	return rows, nil
}

// verifyGuards fails when an event the plan read changed before it was locked
func (a *EffectApplierImpl) verifyGuards(plan *service.Plan, rows *locked) error {
	for id, version := range plan.Guards {
		ev := rows.events[id]
		if ev.Version != version {
			return ledger.Newf(ledger.ErrConcurrentModification,
				"event %s moved from version %d to %d", id, version, ev.Version)
		}
		if !ev.IsActive() {
			return ledger.Newf(ledger.ErrEventReverted, "event %s was reverted", id)
		}
	}

	// sale counters do not bump the version, so dependents are re-read here
	if prev := plan.Previous; prev != nil && prev.Kind == event.KindSale {
		current := rows.events[prev.ID]
		switch plan.Op.Action {
		case ledger.ActionRevert:
			return CheckSaleRevert(current)
		case ledger.ActionAmend:
			return CheckSaleAmend(current, plan.Op.Draft)
		}
	}
	return nil
}

// check validates every delta against its locked row and groups the
// quantity deltas per row
func (a *EffectApplierImpl) check(plan *service.Plan, rows *locked) (map[uuid.UUID]*stockDelta, map[uuid.UUID]*counterDelta, error) {
	debiting := plan.Op.Action != ledger.ActionRevert
	incoming := make(map[uuid.UUID]bool)
	if debiting {
		for _, e := range plan.Event.Effects {
			if e.Target.Kind == ledger.TargetAccount {
				incoming[e.Target.ID] = true
			}
		}
	}

	stock := make(map[uuid.UUID]*stockDelta)
	counters := make(map[uuid.UUID]*counterDelta)
	for _, d := range plan.Deltas {
		t := d.Target
		switch t.Kind {
		case ledger.TargetAccount:
			acc := rows.accounts[t.ID]
			if acc.Currency != t.Currency {
				return nil, nil, ledger.Newf(ledger.ErrCurrencyMismatch,
					"account %s holds %s, effect is in %s", acc.Name, acc.Currency, t.Currency)
			}
			if incoming[t.ID] && !acc.Active {
				return nil, nil, ledger.Newf(ledger.ErrInvalidEvent, "account %s is inactive", acc.Name)
			}
			if debiting {
				if err := a.funds.Check(plan.Event.Kind, acc, d.Money()); err != nil {
					return nil, nil, err
				}
			}

		case ledger.TargetAgentDebt, ledger.TargetSupplierDebt:
			p := rows.parties[t.ID]
			want := party.RoleAgent
			if t.Kind == ledger.TargetSupplierDebt {
				want = party.RoleSupplier
			}
			if p.Role != want {
				return nil, nil, ledger.Newf(ledger.ErrUnknownTarget, "%s is a %s, not a %s", t.ID, p.Role, want)
			}

		case ledger.TargetBatchInitial, ledger.TargetBatchAvailable:
			s, ok := stock[t.ID]
			if !ok {
				s = &stockDelta{}
				stock[t.ID] = s
			}
			if t.Kind == ledger.TargetBatchInitial {
				s.initial += d.Quantity()
			} else {
				s.available += d.Quantity()
			}

		case ledger.TargetSalePaid, ledger.TargetSaleReturned:
			sale := rows.events[t.ID]
			if sale.Kind != event.KindSale || sale.Draft.Sale == nil {
				return nil, nil, ledger.Newf(ledger.ErrInvalidEvent, "event %s is a %s, not a sale", t.ID, sale.Kind)
			}
			if !sale.IsActive() {
				return nil, nil, ledger.Newf(ledger.ErrEventReverted, "sale %s was reverted", t.ID)
			}
			c, ok := counters[t.ID]
			if !ok {
				c = &counterDelta{paid: decimal.Zero}
				counters[t.ID] = c
			}
			if t.Kind == ledger.TargetSalePaid {
				if t.Currency != sale.Draft.Sale.Currency() {
					return nil, nil, ledger.Newf(ledger.ErrCurrencyMismatch,
						"sale %s is in %s, payment is in %s", t.ID, sale.Draft.Sale.Currency(), t.Currency)
				}
				c.paid = c.paid.Add(d.Delta)
			} else {
				c.returned += d.Quantity()
			}
		}
	}

	for id, c := range counters {
		sale := rows.events[id]
		returned := sale.ReturnedQuantity + c.returned
		switch {
		case returned > sale.Draft.Sale.Quantity:
			return nil, nil, ledger.Newf(ledger.ErrInvalidAmount,
				"sale %s sold %d, cannot return %d", id, sale.Draft.Sale.Quantity, returned)
		case returned < 0:
			return nil, nil, ledger.Newf(ledger.ErrStockInvariant,
				"sale %s returned quantity would drop to %d", id, returned)
		}
	}
	for id, s := range stock {
		if err := rows.batches[id].CheckStock(s.initial, s.available); err != nil {
			return nil, nil, store.LedgerError(err)
		}
	}
	return stock, counters, nil
}

func (a *EffectApplierImpl) write(ctx context.Context, uow store.UnitOfWork, plan *service.Plan, stock map[uuid.UUID]*stockDelta, counters map[uuid.UUID]*counterDelta) error {
	for _, d := range plan.Deltas {
		t := d.Target
		var err error
		switch t.Kind {
		case ledger.TargetAccount:
			_, err = uow.Accounts().AdjustBalance(ctx, t.ID, d.Money())
		case ledger.TargetAgentDebt, ledger.TargetSupplierDebt:
			_, err = uow.Parties().AdjustDebt(ctx, t.ID, d.Money())
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", t.Key(), store.LedgerError(err))
		}
	}
	for id, s := range stock {
		if _, err := uow.Batches().AdjustStock(ctx, id, s.initial, s.available); err != nil {
			return fmt.Errorf("failed to move stock of batch %s: %w", id, store.LedgerError(err))
		}
	}
	for id, c := range counters {
		if _, err := uow.Events().AdjustCounters(ctx, id, c.paid, c.returned); err != nil {
			return fmt.Errorf("failed to move counters of sale %s: %w", id, err)
		}
	}
	return nil
}
