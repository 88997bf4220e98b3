package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// TargetKind names the balance, debt slot or counter an effect moves
type TargetKind string

const (
	TargetAccount        TargetKind = "ACCOUNT"
	TargetAgentDebt      TargetKind = "AGENT_DEBT"
	TargetSupplierDebt   TargetKind = "SUPPLIER_DEBT"
	TargetBatchInitial   TargetKind = "BATCH_INITIAL"
	TargetBatchAvailable TargetKind = "BATCH_AVAILABLE"
	TargetSalePaid       TargetKind = "SALE_PAID"
	TargetSaleReturned   TargetKind = "SALE_RETURNED"
)

// IsMonetary reports whether deltas on this target are Money rather than quantities
func (k TargetKind) IsMonetary() bool {
	switch k {
	case TargetAccount, TargetAgentDebt, TargetSupplierDebt, TargetSalePaid:
		return true
	}
	return false
}

// ResourceKind is the table a target's value lives in
type ResourceKind string

const (
	ResourceAccount ResourceKind = "account"
	ResourceBatch   ResourceKind = "batch"
	ResourceEvent   ResourceKind = "event"
	ResourceParty   ResourceKind = "party"
)

// Resource is one lockable row
type Resource struct {
	Kind ResourceKind
	ID   uuid.UUID
}

// Key is the global lock ordering key
func (r Resource) Key() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// SortResources orders resources by Key and drops duplicates
func SortResources(rs []Resource) []Resource {
	seen := make(map[string]Resource, len(rs))
	for _, r := range rs {
		seen[r.Key()] = r
	}
	out := make([]Resource, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Target identifies where a delta lands. Currency is set for monetary targets.
type Target struct {
	Kind     TargetKind     `json:"kind"`
	ID       uuid.UUID      `json:"id"`
	Currency money.Currency `json:"currency,omitempty"`
}

func AccountTarget(id uuid.UUID, c money.Currency) Target {
	return Target{Kind: TargetAccount, ID: id, Currency: c}
}

func AgentDebtTarget(id uuid.UUID, c money.Currency) Target {
	return Target{Kind: TargetAgentDebt, ID: id, Currency: c}
}

func SupplierDebtTarget(id uuid.UUID, c money.Currency) Target {
	return Target{Kind: TargetSupplierDebt, ID: id, Currency: c}
}

func BatchInitialTarget(id uuid.UUID) Target {
	return Target{Kind: TargetBatchInitial, ID: id}
}

func BatchAvailableTarget(id uuid.UUID) Target {
	return Target{Kind: TargetBatchAvailable, ID: id}
}

func SalePaidTarget(saleID uuid.UUID, c money.Currency) Target {
	return Target{Kind: TargetSalePaid, ID: saleID, Currency: c}
}

func SaleReturnedTarget(saleID uuid.UUID) Target {
	return Target{Kind: TargetSaleReturned, ID: saleID}
}

// Key identifies the target for aggregation and ordering
func (t Target) Key() string {
	return string(t.Kind) + ":" + t.ID.String() + ":" + string(t.Currency)
}

// Resource returns the row holding the target's value
func (t Target) Resource() Resource {
	switch t.Kind {
	case TargetAccount:
		return Resource{Kind: ResourceAccount, ID: t.ID}
	case TargetAgentDebt, TargetSupplierDebt:
		return Resource{Kind: ResourceParty, ID: t.ID}
	case TargetBatchInitial, TargetBatchAvailable:
		return Resource{Kind: ResourceBatch, ID: t.ID}
	default:
		return Resource{Kind: ResourceEvent, ID: t.ID}
	}
}

// Effect is a signed delta applied to one target. Quantity targets carry
// integral deltas.
type Effect struct {
	Target Target          `json:"target"`
	Delta  decimal.Decimal `json:"delta"`
}

// MoneyEffect builds an effect from a Money delta, taking the currency from m
func MoneyEffect(t Target, m money.Money) Effect {
	t.Currency = m.Currency()
	return Effect{Target: t, Delta: m.Amount()}
}

// QuantityEffect builds a stock or counter effect
func QuantityEffect(t Target, qty int64) Effect {
	return Effect{Target: t, Delta: decimal.NewFromInt(qty)}
}

// Money returns the delta as Money in the target currency
func (e Effect) Money() money.Money {
	m, err := money.New(e.Delta, e.Target.Currency)
	if err != nil {
		return money.Zero(e.Target.Currency)
	}
	return m
}

// Quantity returns the delta as an integer quantity
func (e Effect) Quantity() int64 {
	return e.Delta.IntPart()
}

// Aggregate sums deltas per target and drops zero results, ordered by target key
func Aggregate(effects []Effect) []Effect {
	sums := make(map[string]Effect, len(effects))
	for _, e := range effects {
		k := e.Target.Key()
		if cur, ok := sums[k]; ok {
			cur.Delta = cur.Delta.Add(e.Delta)
			sums[k] = cur
			continue
		}
		sums[k] = e
	}
	out := make([]Effect, 0, len(sums))
	for _, e := range sums {
		if e.Delta.IsZero() {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target.Key() < out[j].Target.Key() })
	return out
}

// Negate flips the sign of every delta
func Negate(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{Target: e.Target, Delta: e.Delta.Neg()}
	}
	return out
}

// Diff returns next - prev per target, the exact correction to apply when an
// event is amended. Targets present in only one side keep their full delta.
func Diff(next, prev []Effect) []Effect {
	combined := make([]Effect, 0, len(next)+len(prev))
	combined = append(combined, next...)
	combined = append(combined, Negate(prev)...)
	return Aggregate(combined)
}

// Resources lists the rows touched by the effects in lock order
func Resources(effects []Effect) []Resource {
	rs := make([]Resource, 0, len(effects))
	for _, e := range effects {
		rs = append(rs, e.Target.Resource())
	}
	return SortResources(rs)
}
