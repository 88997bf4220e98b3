package event

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilter narrows journal listings; zero values match everything
type ListFilter struct {
	Kind   Kind
	Status Status
	Limit  int
	Offset int
}

// Repository is the event journal
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	// GetByIdempotencyKey returns nil, nil when no event carries the key
	GetByIdempotencyKey(ctx context.Context, key string) (*Event, error)
	List(ctx context.Context, filter ListFilter) ([]*Event, error)

	// LockForUpdate acquires an exclusive row lock held until the transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Event, error)

	// Update persists a new revision (draft, effects, status, version)
	Update(ctx context.Context, e *Event) error

	// AdjustCounters moves a sale's raw paid amount and returned quantity
	AdjustCounters(ctx context.Context, id uuid.UUID, paidDelta decimal.Decimal, returnedDelta int64) (*Event, error)
}

// ErrEventNotFound indicates a missing journal row
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "event not found: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrEventNotFound
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || t.EventID == e.EventID
}

// ErrDuplicateIdempotencyKey indicates another event already carries the key
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "duplicate idempotency key: " + e.Key
}

// Is implements the errors.Is interface for ErrDuplicateIdempotencyKey
func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdempotencyKey)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}
