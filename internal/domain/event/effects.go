package event

import (
	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Refs carries the already-resolved entities an effect function reads.
// Effects never look anything up themselves.
type Refs struct {
	// Sale is the sale a Return refers to
	Sale *Event
	// BatchSupplierID and BatchUnitCost describe the batch of Sale
	BatchSupplierID uuid.UUID
	BatchUnitCost   money.Money
	// ToCurrency is the currency of a Transfer's destination account
	ToCurrency money.Currency
}

// Effects is the balance-effect function: it maps a draft (and the entities it
// references) to the deltas committing it would apply. id is the id the event
// has or will have.
func Effects(id uuid.UUID, d *Draft, refs Refs) ([]ledger.Effect, error) {
	switch d.Kind {
	case KindSale:
		return saleEffects(d.Sale), nil
	case KindReturn:
		return returnEffects(d.Return, refs)
	case KindTransfer:
		t := d.Transfer
		credited, err := t.ToAmount(refs.ToCurrency)
		if err != nil {
			return nil, err
		}
		return []ledger.Effect{
			ledger.MoneyEffect(ledger.AccountTarget(t.FromAccountID, t.Amount.Currency()), t.Amount.Neg()),
			ledger.MoneyEffect(ledger.AccountTarget(t.ToAccountID, credited.Currency()), credited),
		}, nil
	case KindDeposit:
		dep := d.Deposit
		return []ledger.Effect{
			ledger.MoneyEffect(ledger.AccountTarget(dep.ToAccountID, dep.Amount.Currency()), dep.Amount),
		}, nil
	case KindExpenditure:
		exp := d.Expenditure
		return []ledger.Effect{
			ledger.MoneyEffect(ledger.AccountTarget(exp.FromAccountID, exp.Amount.Currency()), exp.Amount.Neg()),
		}, nil
	case KindAgentPayment:
		return agentPaymentEffects(d.AgentPayment)
	case KindAcquisition:
		return acquisitionEffects(id, d.Acquisition), nil
	}
	return nil, ledger.Newf(ledger.ErrInvalidEvent, "no effect function for kind %q", d.Kind)
}

func saleEffects(s *Sale) []ledger.Effect {
	total := s.Total()
	effects := make([]ledger.Effect, 0, 2)
	if s.PaidToAccountID != nil {
		effects = append(effects, ledger.MoneyEffect(ledger.AccountTarget(*s.PaidToAccountID, total.Currency()), total))
	} else if s.Buyer.IsAgent() {
		effects = append(effects, ledger.MoneyEffect(ledger.AgentDebtTarget(*s.Buyer.AgentID, total.Currency()), total))
	}
	return append(effects, ledger.QuantityEffect(ledger.BatchAvailableTarget(s.BatchID), -s.Quantity))
}

// returnEffects refunds at acquisition cost, never at sale price
func returnEffects(r *Return, refs Refs) ([]ledger.Effect, error) {
	if refs.Sale == nil || refs.Sale.Draft.Sale == nil {
		return nil, ledger.Newf(ledger.ErrUnknownTarget, "return references unknown sale %s", r.SaleID)
	}
	sale := refs.Sale.Draft.Sale
	cost := refs.BatchUnitCost.Times(r.QuantityReturned)

	effects := make([]ledger.Effect, 0, 5)
	switch {
	case sale.PaidToAccountID != nil:
		effects = append(effects, ledger.MoneyEffect(ledger.AccountTarget(*sale.PaidToAccountID, cost.Currency()), cost.Neg()))
	case sale.Buyer.IsAgent():
		effects = append(effects, ledger.MoneyEffect(ledger.AgentDebtTarget(*sale.Buyer.AgentID, cost.Currency()), cost.Neg()))
	}
	effects = append(effects,
		ledger.QuantityEffect(ledger.BatchAvailableTarget(sale.BatchID), r.QuantityReturned),
		ledger.QuantityEffect(ledger.SaleReturnedTarget(refs.Sale.ID), r.QuantityReturned),
	)

	if r.Fine != nil && r.Fine.IsPositive() {
		switch {
		case r.FinePaidToAccountID != nil:
			effects = append(effects, ledger.MoneyEffect(ledger.AccountTarget(*r.FinePaidToAccountID, r.Fine.Currency()), *r.Fine))
		case sale.Buyer.IsAgent():
			effects = append(effects, ledger.MoneyEffect(ledger.AgentDebtTarget(*sale.Buyer.AgentID, r.Fine.Currency()), *r.Fine))
		default:
			return nil, ledger.Newf(ledger.ErrInvalidEvent, "fine on a client sale must be paid to an account")
		}
	}
	if r.SupplierFine != nil && r.SupplierFine.IsPositive() {
		if refs.BatchSupplierID == uuid.Nil {
			return nil, ledger.Newf(ledger.ErrUnknownTarget, "supplier fine on a batch without supplier")
		}
		effects = append(effects, ledger.MoneyEffect(ledger.SupplierDebtTarget(refs.BatchSupplierID, r.SupplierFine.Currency()), *r.SupplierFine))
	}
	return effects, nil
}

func agentPaymentEffects(p *AgentPayment) ([]ledger.Effect, error) {
	amount, err := p.Amount()
	if err != nil {
		return nil, err
	}
	effects := []ledger.Effect{
		ledger.MoneyEffect(ledger.AccountTarget(p.ToAccountID, amount.Currency()), amount),
		ledger.MoneyEffect(ledger.AgentDebtTarget(p.AgentID, amount.Currency()), amount.Neg()),
	}
	if p.SaleID != nil {
		effects = append(effects, ledger.MoneyEffect(ledger.SalePaidTarget(*p.SaleID, amount.Currency()), amount))
	}
	return effects, nil
}

func acquisitionEffects(id uuid.UUID, a *Acquisition) []ledger.Effect {
	effects := []ledger.Effect{
		ledger.QuantityEffect(ledger.BatchInitialTarget(id), a.Quantity),
		ledger.QuantityEffect(ledger.BatchAvailableTarget(id), a.Quantity),
	}
	if a.PaidFromAccountID != nil {
		cost := a.Cost()
		effects = append(effects, ledger.MoneyEffect(ledger.AccountTarget(*a.PaidFromAccountID, cost.Currency()), cost.Neg()))
	}
	return effects
}
