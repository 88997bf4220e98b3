package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Repository defines account persistence operations.
// There is deliberately no way to set a balance: it only moves by AdjustBalance.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByName(ctx context.Context, name string) (*Account, error)
	List(ctx context.Context, activeOnly bool) ([]*Account, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// LockForUpdate acquires an exclusive row lock held until the transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)

	// AdjustBalance adds delta to the balance and returns the updated account.
	// Must run inside the caller's transaction after LockForUpdate.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Money) (*Account, error)
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrDuplicateName indicates account name uniqueness violation
type ErrDuplicateName struct {
	Name string
}

func (e ErrDuplicateName) Error() string {
	return "account with name already exists: " + e.Name
}
