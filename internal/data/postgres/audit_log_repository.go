package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

const auditColumns = `entry_id, sequence, event_id, event_kind, revision, action, deltas, idempotency_key, correlation_id, status, failure_reason, created_at, processed_at`

// AuditLogRepository implements ledger.AuditLog on the append-only
// ledger_effects table. The database assigns sequence numbers.
type AuditLogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ ledger.AuditLog = (*AuditLogRepository)(nil)

// Append stores the entry and sets its Sequence
func (r *AuditLogRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	deltas, err := json.Marshal(entry.Deltas)
	if err != nil {
		return fmt.Errorf("failed to marshal deltas: %w", err)
	}

	query := `
		INSERT INTO ledger_effects (entry_id, event_id, event_kind, revision, action, deltas,
			idempotency_key, correlation_id, status, failure_reason, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING sequence
	`

	err = r.querier.QueryRow(ctx, query,
		entry.ID,
		entry.EventID,
		entry.EventKind,
		entry.Revision,
		string(entry.Action),
		deltas,
		entry.IdempotencyKey,
		entry.CorrelationID,
		string(entry.Status),
		entry.FailureReason,
		entry.CreatedAt,
		entry.ProcessedAt,
	).Scan(&entry.Sequence)
	if err != nil {
		if isConstraintViolation(err, codeUniqueViolation, constraintEffectsPkey) {
			return ledger.ErrDuplicateEntry{EntryID: entry.ID}
		}
		r.logger.Error("Failed to append audit entry",
			"entry_id", entry.ID.String(),
			"event_id", entry.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// GetByID returns nil, nil when no entry has the id
func (r *AuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM ledger_effects WHERE entry_id = $1`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get audit entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return entry, nil
}

// List pages through the log in sequence order
func (r *AuditLogRepository) List(ctx context.Context, afterSequence int64, limit int) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM ledger_effects
		WHERE sequence > $1
		ORDER BY sequence ASC
		LIMIT $2
	`

	rows, err := r.querier.Query(ctx, query, afterSequence, limit)
	if err != nil {
		r.logger.Error("Failed to list audit entries", "after", afterSequence, "error", err)
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan audit entry", "error", err)
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var (
		entry          ledger.Entry
		action, status string
		deltas         []byte
		processedAt    *time.Time
	)
	err := row.Scan(
		&entry.ID,
		&entry.Sequence,
		&entry.EventID,
		&entry.EventKind,
		&entry.Revision,
		&action,
		&deltas,
		&entry.IdempotencyKey,
		&entry.CorrelationID,
		&status,
		&entry.FailureReason,
		&entry.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Action = ledger.Action(action)
	entry.Status = ledger.Status(status)
	entry.ProcessedAt = processedAt
	if err := json.Unmarshal(deltas, &entry.Deltas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deltas: %w", err)
	}
	return &entry, nil
}
