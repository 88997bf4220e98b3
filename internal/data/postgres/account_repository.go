// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository runs on a persistence.Querier, so the same code serves the
// pool for reads and a pgx.Tx inside the ledger engine's transactions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

const accountColumns = `id, name, kind, currency, opening_balance, balance, active, version, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

var _ account.Repository = (*AccountRepository)(nil)

// Create stores a new account. Names are unique ignoring case.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		string(acc.Kind),
		string(acc.Currency),
		acc.OpeningBalance.Amount(),
		acc.Balance.Amount(),
		acc.Active,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err, codeUniqueViolation, constraintAccountName) {
			return account.ErrDuplicateName{Name: acc.Name}
		}
		r.logger.Error("Failed to create account", "name", acc.Name, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByName returns nil, nil when no account has the name
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(name) = lower($1)`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by name", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get account by name: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) List(ctx context.Context, activeOnly bool) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE active OR NOT $1 ORDER BY name`

	rows, err := r.querier.Query(ctx, query, activeOnly)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE accounts SET active = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, active, id)
	if err != nil {
		r.logger.Error("Failed to update account status", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its current state.
// This must be used within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

// AdjustBalance adds delta to the balance. The currency guard makes a
// mismatched delta affect no row.
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Money) (*account.Account, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND currency = $3
		RETURNING ` + accountColumns

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, delta.Amount(), id, string(delta.Currency())))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("account %s: %w", id, money.ErrCurrencyMismatch)
		}
		r.logger.Error("Failed to adjust account balance", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to adjust account balance: %w", err)
	}

	return acc, nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acc              account.Account
		kind, currency   string
		opening, balance decimal.Decimal
	)
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&kind,
		&currency,
		&opening,
		&balance,
		&acc.Active,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	acc.Kind = account.Kind(kind)
	acc.Currency = money.Currency(currency)
	if acc.OpeningBalance, err = toMoney(opening, currency); err != nil {
		return nil, err
	}
	if acc.Balance, err = toMoney(balance, currency); err != nil {
		return nil, err
	}
	return &acc, nil
}
