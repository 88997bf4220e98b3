package party

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Repository is the debt store for agents and suppliers
type Repository interface {
	Create(ctx context.Context, party *Party) error
	GetByID(ctx context.Context, id uuid.UUID) (*Party, error)
	List(ctx context.Context, role Role) ([]*Party, error)

	// LockForUpdate acquires an exclusive row lock held until the transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Party, error)

	// AdjustDebt adds delta to the debt slot of delta's currency
	AdjustDebt(ctx context.Context, id uuid.UUID, delta money.Money) (*Party, error)
}

// ErrPartyNotFound indicates a missing agent or supplier
type ErrPartyNotFound struct {
	PartyID uuid.UUID
}

func (e ErrPartyNotFound) Error() string {
	return "party not found: " + e.PartyID.String()
}

// Is implements the errors.Is interface for ErrPartyNotFound
func (e ErrPartyNotFound) Is(target error) bool {
	t, ok := target.(ErrPartyNotFound)
	if !ok {
		return false
	}
	return t.PartyID == uuid.Nil || t.PartyID == e.PartyID
}
