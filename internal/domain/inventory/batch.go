// Package inventory holds acquisition batches and the stock ledger rules that
// keep their available quantity within bounds.
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

var (
	ErrNegativeStock  = errors.New("available quantity would go negative")
	ErrStockOverflow  = errors.New("available quantity would exceed initial quantity")
	ErrNegativeIntake = errors.New("initial quantity would go negative")
)

// Batch is a lot of tickets bought from a supplier. A batch is identified by
// the id of the acquisition event that created it.
type Batch struct {
	ID                uuid.UUID      `json:"id"`
	SupplierID        uuid.UUID      `json:"supplier_id"`
	Title             string         `json:"title"`
	Details           string         `json:"details,omitempty"`
	Currency          money.Currency `json:"currency"`
	UnitCost          money.Money    `json:"unit_cost"`
	InitialQuantity   int64          `json:"initial_quantity"`
	AvailableQuantity int64          `json:"available_quantity"`
	Version           int            `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewBatch creates an empty batch; quantities arrive through stock effects
func NewBatch(id, supplierID uuid.UUID, title string, unitCost money.Money) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:         id,
		SupplierID: supplierID,
		Title:      title,
		Currency:   unitCost.Currency(),
		UnitCost:   unitCost,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Sold is the net quantity currently out of the batch
func (b *Batch) Sold() int64 {
	return b.InitialQuantity - b.AvailableQuantity
}

// CheckStock reports whether applying the deltas keeps 0 <= available <= initial.
// It does not modify the batch.
func (b *Batch) CheckStock(initialDelta, availableDelta int64) error {
	initial := b.InitialQuantity + initialDelta
	available := b.AvailableQuantity + availableDelta
	switch {
	case initial < 0:
		return fmt.Errorf("%w: batch %s initial %d", ErrNegativeIntake, b.ID, initial)
	case available < 0:
		return fmt.Errorf("%w: batch %s has %d, needs %d", ErrNegativeStock, b.ID, b.AvailableQuantity, -availableDelta)
	case available > initial:
		return fmt.Errorf("%w: batch %s available %d initial %d", ErrStockOverflow, b.ID, available, initial)
	}
	return nil
}

// ApplyStock moves both counters after CheckStock passes
func (b *Batch) ApplyStock(initialDelta, availableDelta int64) error {
	if err := b.CheckStock(initialDelta, availableDelta); err != nil {
		return err
	}
	b.InitialQuantity += initialDelta
	b.AvailableQuantity += availableDelta
	b.Version++
	b.UpdatedAt = time.Now().UTC()
	return nil
}
