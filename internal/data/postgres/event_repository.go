package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

const eventColumns = `id, kind, version, status, idempotency_key, draft, effects, paid_raw, returned_quantity, created_at, updated_at, reverted_at`

// EventRepository implements event.Repository for PostgreSQL. Drafts and
// effects are stored as JSONB.
type EventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ event.Repository = (*EventRepository)(nil)

func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	draft, effects, err := encodeEvent(e)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.querier.Exec(ctx, query,
		e.ID,
		string(e.Kind),
		e.Version,
		string(e.Status),
		nullableKey(e.IdempotencyKey),
		draft,
		effects,
		e.PaidRaw,
		e.ReturnedQuantity,
		e.CreatedAt,
		e.UpdatedAt,
		e.RevertedAt,
	)
	if err != nil {
		if isConstraintViolation(err, codeUniqueViolation, constraintEventIdempotency) {
			return event.ErrDuplicateIdempotencyKey{Key: e.IdempotencyKey}
		}
		r.logger.Error("Failed to create event", "id", e.ID.String(), "kind", e.Kind, "error", err)
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound{EventID: id}
		}
		r.logger.Error("Failed to get event", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// GetByIdempotencyKey returns nil, nil when no event carries the key
func (r *EventRepository) GetByIdempotencyKey(ctx context.Context, key string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE idempotency_key = $1`

	e, err := scanEvent(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get event by idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get event by idempotency key: %w", err)
	}

	return e, nil
}

// List returns events newest first. A zero Limit means no limit.
func (r *EventRepository) List(ctx context.Context, filter event.ListFilter) ([]*event.Event, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list events", "error", err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			r.logger.Error("Failed to scan event", "error", err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over events: %w", err)
	}

	return events, nil
}

func (r *EventRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	e, err := scanEvent(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound{EventID: id}
		}
		r.logger.Error("Failed to lock event for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock event for update: %w", err)
	}

	return e, nil
}

// Update writes a new revision. The sale counters belong to AdjustCounters
// and are left alone.
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	draft, effects, err := encodeEvent(e)
	if err != nil {
		return err
	}

	query := `
		UPDATE events
		SET kind = $1, version = $2, status = $3, idempotency_key = $4, draft = $5, effects = $6,
			updated_at = $7, reverted_at = $8
		WHERE id = $9
	`

	result, err := r.querier.Exec(ctx, query,
		string(e.Kind),
		e.Version,
		string(e.Status),
		nullableKey(e.IdempotencyKey),
		draft,
		effects,
		e.UpdatedAt,
		e.RevertedAt,
		e.ID,
	)
	if err != nil {
		if isConstraintViolation(err, codeUniqueViolation, constraintEventIdempotency) {
			return event.ErrDuplicateIdempotencyKey{Key: e.IdempotencyKey}
		}
		r.logger.Error("Failed to update event", "id", e.ID.String(), "error", err)
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return event.ErrEventNotFound{EventID: e.ID}
	}

	return nil
}

func (r *EventRepository) AdjustCounters(ctx context.Context, id uuid.UUID, paidDelta decimal.Decimal, returnedDelta int64) (*event.Event, error) {
	query := `
		UPDATE events
		SET paid_raw = paid_raw + $1, returned_quantity = returned_quantity + $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + eventColumns

	e, err := scanEvent(r.querier.QueryRow(ctx, query, paidDelta, returnedDelta, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrEventNotFound{EventID: id}
		}
		r.logger.Error("Failed to adjust event counters", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to adjust event counters: %w", err)
	}

	return e, nil
}

func encodeEvent(e *event.Event) (draft, effects []byte, err error) {
	if draft, err = json.Marshal(e.Draft); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	if effects, err = json.Marshal(e.Effects); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal effects: %w", err)
	}
	return draft, effects, nil
}

// nullableKey stores an absent idempotency key as NULL so the unique index
// only covers real keys
func nullableKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var (
		e              event.Event
		kind, status   string
		key            *string
		draft, effects []byte
		revertedAt     *time.Time
	)
	err := row.Scan(
		&e.ID,
		&kind,
		&e.Version,
		&status,
		&key,
		&draft,
		&effects,
		&e.PaidRaw,
		&e.ReturnedQuantity,
		&e.CreatedAt,
		&e.UpdatedAt,
		&revertedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Kind = event.Kind(kind)
	e.Status = event.Status(status)
	if key != nil {
		e.IdempotencyKey = *key
	}
	e.RevertedAt = revertedAt
	if err := json.Unmarshal(draft, &e.Draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	if len(effects) > 0 {
		if err := json.Unmarshal(effects, &e.Effects); err != nil {
			return nil, fmt.Errorf("failed to unmarshal effects: %w", err)
		}
	}
	return &e, nil
}
