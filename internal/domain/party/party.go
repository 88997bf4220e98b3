// Package party models the agents that buy on credit and the suppliers that
// sell ticket batches. Each carries an outstanding balance per currency.
package party

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

var ErrEmptyName = errors.New("party name cannot be empty")

// Role distinguishes agents from suppliers
type Role string

const (
	// RoleAgent owes the business for tickets taken on credit (positive debt = agent owes)
	RoleAgent Role = "AGENT"
	// RoleSupplier is owed by the business (positive debt = business owes)
	RoleSupplier Role = "SUPPLIER"
)

func (r Role) IsValid() bool {
	return r == RoleAgent || r == RoleSupplier
}

// Party is an agent or supplier with one debt slot per currency
type Party struct {
	ID        uuid.UUID   `json:"id"`
	Role      Role        `json:"role"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	DebtUZS   money.Money `json:"debt_uzs"`
	DebtUSD   money.Money `json:"debt_usd"`
	Active    bool        `json:"active"`
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewParty creates an active party with zero debt in both currencies
func NewParty(role Role, name, phone string) (*Party, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid party role %q", role)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now().UTC()
	return &Party{
		ID:        uuid.New(),
		Role:      role,
		Name:      name,
		Phone:     phone,
		DebtUZS:   money.Zero(money.UZS),
		DebtUSD:   money.Zero(money.USD),
		Active:    true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Debt returns the slot for the given currency
func (p *Party) Debt(c money.Currency) money.Money {
	if c == money.USD {
		return p.DebtUSD
	}
	return p.DebtUZS
}

// ApplyDebt adds a signed delta to the slot matching the delta's currency
func (p *Party) ApplyDebt(delta money.Money) error {
	var err error
	switch delta.Currency() {
	case money.UZS:
		p.DebtUZS, err = p.DebtUZS.Add(delta)
	case money.USD:
		p.DebtUSD, err = p.DebtUSD.Add(delta)
	default:
		return money.ErrInvalidCurrency
	}
	if err != nil {
		return err
	}
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Balance is the pair of debt slots returned by debt queries
type Balance struct {
	PartyID uuid.UUID   `json:"party_id"`
	UZS     money.Money `json:"uzs"`
	USD     money.Money `json:"usd"`
}

func (p *Party) Balance() Balance {
	return Balance{PartyID: p.ID, UZS: p.DebtUZS, USD: p.DebtUSD}
}
