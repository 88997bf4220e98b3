package components

import (
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// FundsPolicy decides which event kinds may not take an account below zero
type FundsPolicy struct {
	enforced map[event.Kind]bool
}

func NewFundsPolicy(kinds []event.Kind) *FundsPolicy {
	enforced := make(map[event.Kind]bool, len(kinds))
	for _, k := range kinds {
		enforced[k] = true
	}
	return &FundsPolicy{enforced: enforced}
}

// Enforced reports whether kind is subject to the insufficient-funds check
func (p *FundsPolicy) Enforced(kind event.Kind) bool {
	return p != nil && p.enforced[kind]
}

// Check rejects a debit that would leave acc negative. Credits always pass.
func (p *FundsPolicy) Check(kind event.Kind, acc *account.Account, delta money.Money) error {
	if !p.Enforced(kind) || !delta.IsNegative() {
		return nil
	}
	if acc.CanCover(delta) {
		return nil
	}
	return ledger.Newf(ledger.ErrInsufficientFunds,
		"account %s holds %s, %s needs %s", acc.Name, acc.Balance, kind, delta.Neg())
}
