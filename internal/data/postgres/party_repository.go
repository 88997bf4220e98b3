package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

const partyColumns = `id, role, name, phone, debt_uzs, debt_usd, active, version, created_at, updated_at`

// PartyRepository implements party.Repository for PostgreSQL. Each currency
// has its own debt column.
type PartyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

var _ party.Repository = (*PartyRepository)(nil)

func (r *PartyRepository) Create(ctx context.Context, p *party.Party) error {
	query := `
		INSERT INTO parties (` + partyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		string(p.Role),
		p.Name,
		p.Phone,
		p.DebtUZS.Amount(),
		p.DebtUSD.Amount(),
		p.Active,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create party", "name", p.Name, "role", p.Role, "error", err)
		return fmt.Errorf("failed to create party: %w", err)
	}

	return nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE id = $1`

	p, err := scanParty(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, party.ErrPartyNotFound{PartyID: id}
		}
		r.logger.Error("Failed to get party", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	return p, nil
}

// List returns parties with the role, or every party when role is empty
func (r *PartyRepository) List(ctx context.Context, role party.Role) ([]*party.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE $1 = '' OR role = $1 ORDER BY name`

	rows, err := r.querier.Query(ctx, query, string(role))
	if err != nil {
		r.logger.Error("Failed to list parties", "role", role, "error", err)
		return nil, fmt.Errorf("failed to list parties: %w", err)
	}
	defer rows.Close()

	var parties []*party.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			r.logger.Error("Failed to scan party", "error", err)
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over parties: %w", err)
	}

	return parties, nil
}

func (r *PartyRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*party.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE id = $1 FOR UPDATE`

	p, err := scanParty(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, party.ErrPartyNotFound{PartyID: id}
		}
		r.logger.Error("Failed to lock party for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock party for update: %w", err)
	}

	return p, nil
}

// AdjustDebt adds delta to the debt column of delta's currency
func (r *PartyRepository) AdjustDebt(ctx context.Context, id uuid.UUID, delta money.Money) (*party.Party, error) {
	var column string
	switch delta.Currency() {
	case money.UZS:
		column = "debt_uzs"
	case money.USD:
		column = "debt_usd"
	default:
		return nil, money.ErrInvalidCurrency
	}

	query := `
		UPDATE parties
		SET ` + column + ` = ` + column + ` + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + partyColumns

	p, err := scanParty(r.querier.QueryRow(ctx, query, delta.Amount(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, party.ErrPartyNotFound{PartyID: id}
		}
		r.logger.Error("Failed to adjust party debt", "id", id.String(), "currency", delta.Currency(), "error", err)
		return nil, fmt.Errorf("failed to adjust party debt: %w", err)
	}

	return p, nil
}

func scanParty(row pgx.Row) (*party.Party, error) {
	var (
		p                party.Party
		role             string
		debtUZS, debtUSD decimal.Decimal
	)
	err := row.Scan(
		&p.ID,
		&role,
		&p.Name,
		&p.Phone,
		&debtUZS,
		&debtUSD,
		&p.Active,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = party.Role(role)
	p.DebtUZS, _ = toMoney(debtUZS, string(money.UZS))
	p.DebtUSD, _ = toMoney(debtUSD, string(money.USD))
	return &p, nil
}
