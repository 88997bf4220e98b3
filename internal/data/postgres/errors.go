package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// PostgreSQL error codes the repositories translate
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Constraint names from migrations/postgres
const (
	constraintAccountName       = "accounts_name_key"
	constraintEventIdempotency  = "events_idempotency_key_key"
	constraintEffectsPkey       = "ledger_effects_pkey"
	constraintOutboxEntry       = "audit_outbox_entry_id_key"
	constraintBatchAvailableMin = "batches_available_nonnegative"
	constraintBatchAvailableMax = "batches_available_within_initial"
	constraintBatchInitialMin   = "batches_initial_nonnegative"
)

// pgError returns the server error behind err, if any
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isConstraintViolation(err error, code, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == code && pgErr.ConstraintName == constraint
}

// txConflict maps aborted transactions to a retryable ledger error
func txConflict(err error) error {
	pgErr, ok := pgError(err)
	if !ok {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return ledger.Wrap(ledger.ErrConcurrentModification, err, "transaction aborted by a concurrent writer")
	}
	return err
}

func toMoney(amount decimal.Decimal, currency string) (money.Money, error) {
	return money.New(amount, money.Currency(currency))
}
