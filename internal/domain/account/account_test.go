package account

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		opening := money.MustNew("250", money.USD)

		before := time.Now().UTC()
		acc, err := NewAccount("CASH-USD", KindCash, opening)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, acc.ID)
		assert.Equal(t, "CASH-USD", acc.Name)
		assert.Equal(t, money.USD, acc.Currency)
		assert.True(t, acc.Balance.Equal(opening))
		assert.True(t, acc.OpeningBalance.Equal(opening))
		assert.True(t, acc.Active)
		assert.Equal(t, 1, acc.Version)
		assert.WithinDuration(t, before, acc.CreatedAt, time.Second)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := NewAccount("  ", KindCash, money.Zero(money.USD))
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("InvalidKind", func(t *testing.T) {
		_, err := NewAccount("X", Kind("SAFE"), money.Zero(money.USD))
		assert.Error(t, err)
	})
}

func TestAccount_Apply(t *testing.T) {
	t.Run("CreditAndDebit", func(t *testing.T) {
		acc, err := NewAccount("CASH-USD", KindCash, money.Zero(money.USD))
		require.NoError(t, err)

		require.NoError(t, acc.Apply(money.MustNew("100", money.USD)))
		require.NoError(t, acc.Apply(money.MustNew("-500", money.USD)))

		assert.True(t, acc.Balance.Equal(money.MustNew("-400", money.USD)), "overdraft is allowed at the model level")
		assert.Equal(t, 3, acc.Version)
		assert.True(t, acc.Movement().Equal(money.MustNew("-400", money.USD)))
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		acc, err := NewAccount("CASH-UZS", KindCash, money.Zero(money.UZS))
		require.NoError(t, err)

		err = acc.Apply(money.MustNew("1", money.USD))
		assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
		assert.True(t, acc.Balance.IsZero())
		assert.Equal(t, 1, acc.Version)
	})
}

func TestAccount_CanCover(t *testing.T) {
	acc := &Account{Currency: money.USD, Balance: money.MustNew("100", money.USD)}
	assert.True(t, acc.CanCover(money.MustNew("-100", money.USD)))
	assert.False(t, acc.CanCover(money.MustNew("-100.01", money.USD)))
	assert.False(t, acc.CanCover(money.MustNew("-1", money.UZS)))
}

func TestErrAccountNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := error(ErrAccountNotFound{AccountID: id})
	assert.ErrorIs(t, err, ErrAccountNotFound{})
	assert.ErrorIs(t, err, ErrAccountNotFound{AccountID: id})
	assert.NotErrorIs(t, err, ErrAccountNotFound{AccountID: uuid.New()})
}
