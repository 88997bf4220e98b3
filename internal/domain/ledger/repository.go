package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditLog is the transactional, append-only effect log written alongside
// every balance mutation.
type AuditLog interface {
	// Append assigns the next sequence number; a reused entry id fails with ErrDuplicateEntry
	Append(ctx context.Context, entry *Entry) error
	// GetByID returns nil, nil when no entry has the id
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// List returns entries with Sequence > afterSequence in sequence order
	List(ctx context.Context, afterSequence int64, limit int) ([]*Entry, error)
}

// Repository is the queryable audit history, including failed commands
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) ([]*Entry, error)
	GetByTargetID(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByTargetID(ctx context.Context, targetID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, reason string) error
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
}

// ErrEntryNotFound indicates a missing audit entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "audit entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicateEntry indicates an entry id was already stored
type ErrDuplicateEntry struct {
	EntryID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate audit entry: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
