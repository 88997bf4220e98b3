package store

import (
	"errors"

	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
)

// LedgerError maps repository and domain errors to the ledger taxonomy.
// Errors already in the taxonomy and infrastructure errors pass through.
func LedgerError(err error) error {
	if err == nil {
		return nil
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		return err
	}
	switch {
	case errors.Is(err, event.ErrEventNotFound{}):
		return ledger.Wrap(ledger.ErrEventNotFound, err, "")
	case errors.Is(err, account.ErrAccountNotFound{}),
		errors.Is(err, party.ErrPartyNotFound{}),
		errors.Is(err, inventory.ErrBatchNotFound{}):
		return ledger.Wrap(ledger.ErrUnknownTarget, err, "")
	case errors.Is(err, money.ErrCurrencyMismatch), errors.Is(err, money.ErrInvalidCurrency):
		return ledger.Wrap(ledger.ErrCurrencyMismatch, err, "")
	case errors.Is(err, money.ErrInvalidRate):
		return ledger.Wrap(ledger.ErrInvalidAmount, err, "")
	case errors.Is(err, inventory.ErrNegativeStock), errors.Is(err, inventory.ErrNegativeIntake):
		return ledger.Wrap(ledger.ErrInsufficientStock, err, "")
	case errors.Is(err, inventory.ErrStockOverflow):
		return ledger.Wrap(ledger.ErrStockInvariant, err, "")
	}
	return err
}
