package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Action is the engine operation that produced an audit entry
type Action string

const (
	ActionCommit Action = "COMMIT"
	ActionAmend  Action = "AMEND"
	ActionRevert Action = "REVERT"
)

func (a Action) IsValid() bool {
	return a == ActionCommit || a == ActionAmend || a == ActionRevert
}

// Status is the processing state of an audit entry
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Entry is one append-only audit record: the exact deltas an action applied.
// Summing Deltas over all entries per target reproduces every balance.
type Entry struct {
	ID             uuid.UUID  `json:"id"`
	Sequence       int64      `json:"sequence,omitempty"`
	EventID        uuid.UUID  `json:"event_id"`
	EventKind      string     `json:"event_kind"`
	Revision       int        `json:"revision"`
	Action         Action     `json:"action"`
	Deltas         []Effect   `json:"deltas"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	CorrelationID  string     `json:"correlation_id,omitempty"`
	Status         Status     `json:"status"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// NewEntry creates an audit entry for deltas applied by action
func NewEntry(eventID uuid.UUID, eventKind string, revision int, action Action, deltas []Effect) *Entry {
	return &Entry{
		ID:        uuid.New(),
		EventID:   eventID,
		EventKind: eventKind,
		Revision:  revision,
		Action:    action,
		Deltas:    deltas,
		Status:    StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
}

// Touches reports whether any delta lands on the given target id
func (e *Entry) Touches(id uuid.UUID) bool {
	for _, d := range e.Deltas {
		if d.Target.ID == id {
			return true
		}
	}
	return false
}
