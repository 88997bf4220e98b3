package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Status is the journal state of a committed event
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusReverted Status = "REVERTED"
)

// Event is a committed draft together with the effects its current revision
// applied. Reverting or amending reverses exactly Effects.
type Event struct {
	ID             uuid.UUID       `json:"id"`
	Kind           Kind            `json:"kind"`
	Version        int             `json:"version"`
	Status         Status          `json:"status"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Draft          Draft           `json:"draft"`
	Effects        []ledger.Effect `json:"effects"`

	// Sale counters, moved by linked payments and returns
	PaidRaw          decimal.Decimal `json:"paid_raw"`
	ReturnedQuantity int64           `json:"returned_quantity"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	RevertedAt *time.Time `json:"reverted_at,omitempty"`
}

// NewEvent records a freshly committed draft
func NewEvent(id uuid.UUID, d Draft, effects []ledger.Effect) *Event {
	now := time.Now().UTC()
	return &Event{
		ID:             id,
		Kind:           d.Kind,
		Version:        1,
		Status:         StatusActive,
		IdempotencyKey: d.IdempotencyKey,
		Draft:          d,
		Effects:        effects,
		PaidRaw:        decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (e *Event) IsActive() bool { return e.Status == StatusActive }

// Supersede replaces the draft and recorded effects with a new revision
func (e *Event) Supersede(d Draft, effects []ledger.Effect) {
	key := e.IdempotencyKey
	e.Draft = d
	e.Draft.IdempotencyKey = key
	e.Effects = effects
	e.Version++
	e.UpdatedAt = time.Now().UTC()
}

// MarkReverted flags the event as deleted; its effects have been reversed
func (e *Event) MarkReverted() {
	now := time.Now().UTC()
	e.Status = StatusReverted
	e.Version++
	e.UpdatedAt = now
	e.RevertedAt = &now
}

// HasDependents reports whether returns or linked payments still refer to the sale
func (e *Event) HasDependents() bool {
	return e.ReturnedQuantity != 0 || !e.PaidRaw.IsZero()
}

// RemainingQuantity is the sold quantity not yet returned
func (e *Event) RemainingQuantity() int64 {
	if e.Draft.Sale == nil {
		return 0
	}
	return e.Draft.Sale.Quantity - e.ReturnedQuantity
}

// PaidAmount is the sale's paid amount clamped to [0, total]. A sale paid to an
// account at the counter is fully paid.
func (e *Event) PaidAmount() money.Money {
	s := e.Draft.Sale
	if s == nil {
		return money.Money{}
	}
	total := s.Total()
	if s.PaidToAccountID != nil {
		return total
	}
	raw, err := money.New(e.PaidRaw, total.Currency())
	if err != nil {
		return money.Zero(total.Currency())
	}
	clamped, err := raw.Clamp(money.Zero(total.Currency()), total)
	if err != nil {
		return money.Zero(total.Currency())
	}
	return clamped
}
