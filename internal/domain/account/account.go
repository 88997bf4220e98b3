package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Common errors
var (
	ErrEmptyName       = errors.New("account name cannot be empty")
	ErrInactiveAccount = errors.New("account is inactive")
)

// Kind describes where the money physically sits
type Kind string

const (
	KindCash Kind = "CASH"
	KindCard Kind = "CARD"
	KindBank Kind = "BANK"
)

func (k Kind) IsValid() bool {
	return k == KindCash || k == KindCard || k == KindBank
}

// Account is a named pool of money in one currency. Balance changes only
// through Apply, which the ledger engine calls with effect deltas.
type Account struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Kind           Kind           `json:"kind"`
	Currency       money.Currency `json:"currency"`
	OpeningBalance money.Money    `json:"opening_balance"`
	Balance        money.Money    `json:"balance"`
	Active         bool           `json:"active"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewAccount creates an active account whose balance starts at the opening balance
func NewAccount(name string, kind Kind, opening money.Money) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid account kind %q", kind)
	}
	if !opening.Currency().IsValid() {
		return nil, money.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	return &Account{
		ID:             uuid.New(),
		Name:           name,
		Kind:           kind,
		Currency:       opening.Currency(),
		OpeningBalance: opening,
		Balance:        opening,
		Active:         true,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply adds a signed delta to the balance. The delta must be in the account currency.
func (a *Account) Apply(delta money.Money) error {
	if delta.Currency() != a.Currency {
		return fmt.Errorf("account %s holds %s, delta is %s: %w", a.Name, a.Currency, delta.Currency(), money.ErrCurrencyMismatch)
	}
	balance, err := a.Balance.Add(delta)
	if err != nil {
		return err
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// CanCover reports whether the balance would stay non-negative after delta
func (a *Account) CanCover(delta money.Money) bool {
	after, err := a.Balance.Add(delta)
	if err != nil {
		return false
	}
	return !after.IsNegative()
}

// Movement returns balance minus opening balance, i.e. the sum of every delta applied
func (a *Account) Movement() money.Money {
	m, err := a.Balance.Sub(a.OpeningBalance)
	if err != nil {
		return money.Zero(a.Currency)
	}
	return m
}
