package inventory

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the stock ledger store
type Repository interface {
	// Create inserts a batch with zero quantities
	Create(ctx context.Context, batch *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	List(ctx context.Context) ([]*Batch, error)
	// UpdateDetails rewrites the descriptive fields and unit cost of a batch
	UpdateDetails(ctx context.Context, batch *Batch) error

	// LockForUpdate acquires an exclusive row lock held until the transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Batch, error)

	// AdjustStock moves initial and available quantity by the given deltas
	AdjustStock(ctx context.Context, id uuid.UUID, initialDelta, availableDelta int64) (*Batch, error)
}

// ErrBatchNotFound indicates a missing acquisition batch
type ErrBatchNotFound struct {
	BatchID uuid.UUID
}

func (e ErrBatchNotFound) Error() string {
	return "batch not found: " + e.BatchID.String()
}

// Is implements the errors.Is interface for ErrBatchNotFound
func (e ErrBatchNotFound) Is(target error) bool {
	t, ok := target.(ErrBatchNotFound)
	if !ok {
		return false
	}
	return t.BatchID == uuid.Nil || t.BatchID == e.BatchID
}
