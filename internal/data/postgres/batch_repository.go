package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

const batchColumns = `id, supplier_id, title, details, currency, unit_cost, initial_quantity, available_quantity, version, created_at, updated_at`

// BatchRepository implements inventory.Repository for PostgreSQL. The table's
// CHECK constraints back up the 0 <= available <= initial rule.
type BatchRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ inventory.Repository = (*BatchRepository)(nil)

// Create inserts the batch with zero quantities; stock arrives through AdjustStock
func (r *BatchRepository) Create(ctx context.Context, b *inventory.Batch) error {
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.SupplierID,
		b.Title,
		b.Details,
		string(b.UnitCost.Currency()),
		b.UnitCost.Amount(),
		b.Version,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create batch", "id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`

	b, err := scanBatch(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrBatchNotFound{BatchID: id}
		}
		r.logger.Error("Failed to get batch", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return b, nil
}

func (r *BatchRepository) List(ctx context.Context) ([]*inventory.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches ORDER BY created_at`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list batches", "error", err)
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer rows.Close()

	var batches []*inventory.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			r.logger.Error("Failed to scan batch", "error", err)
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over batches: %w", err)
	}

	return batches, nil
}

func (r *BatchRepository) UpdateDetails(ctx context.Context, b *inventory.Batch) error {
	query := `
		UPDATE batches
		SET supplier_id = $1, title = $2, details = $3, currency = $4, unit_cost = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		b.SupplierID,
		b.Title,
		b.Details,
		string(b.UnitCost.Currency()),
		b.UnitCost.Amount(),
		b.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update batch details", "id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to update batch details: %w", err)
	}
	if result.RowsAffected() == 0 {
		return inventory.ErrBatchNotFound{BatchID: b.ID}
	}

	return nil
}

func (r *BatchRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1 FOR UPDATE`

	b, err := scanBatch(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrBatchNotFound{BatchID: id}
		}
		r.logger.Error("Failed to lock batch for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock batch for update: %w", err)
	}

	return b, nil
}

// AdjustStock moves both quantities in one statement. A violated CHECK
// constraint is reported as the matching stock error.
func (r *BatchRepository) AdjustStock(ctx context.Context, id uuid.UUID, initialDelta, availableDelta int64) (*inventory.Batch, error) {
	query := `
		UPDATE batches
		SET initial_quantity = initial_quantity + $1,
			available_quantity = available_quantity + $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + batchColumns

	b, err := scanBatch(r.querier.QueryRow(ctx, query, initialDelta, availableDelta, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrBatchNotFound{BatchID: id}
		}
		if stockErr := stockViolation(err); stockErr != nil {
			return nil, fmt.Errorf("%w: batch %s", stockErr, id)
		}
		r.logger.Error("Failed to adjust batch stock", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to adjust batch stock: %w", err)
	}

	return b, nil
}

func stockViolation(err error) error {
	switch {
	case isConstraintViolation(err, codeCheckViolation, constraintBatchAvailableMin):
		return inventory.ErrNegativeStock
	case isConstraintViolation(err, codeCheckViolation, constraintBatchAvailableMax):
		return inventory.ErrStockOverflow
	case isConstraintViolation(err, codeCheckViolation, constraintBatchInitialMin):
		return inventory.ErrNegativeIntake
	}
	return nil
}

func scanBatch(row pgx.Row) (*inventory.Batch, error) {
	var (
		b        inventory.Batch
		currency string
		unitCost decimal.Decimal
	)
	err := row.Scan(
		&b.ID,
		&b.SupplierID,
		&b.Title,
		&b.Details,
		&currency,
		&unitCost,
		&b.InitialQuantity,
		&b.AvailableQuantity,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Currency = money.Currency(currency)
	if b.UnitCost, err = toMoney(unitCost, currency); err != nil {
		return nil, err
	}
	return &b, nil
}
