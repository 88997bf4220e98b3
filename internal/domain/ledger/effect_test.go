package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

func TestDiff(t *testing.T) {
	cash := uuid.New()
	card := uuid.New()
	batch := uuid.New()

	prev := []Effect{
		MoneyEffect(AccountTarget(cash, money.USD), money.MustNew("150", money.USD)),
		QuantityEffect(BatchAvailableTarget(batch), -10),
	}

	t.Run("QuantityChangeOnly", func(t *testing.T) {
		next := []Effect{
			MoneyEffect(AccountTarget(cash, money.USD), money.MustNew("180", money.USD)),
			QuantityEffect(BatchAvailableTarget(batch), -12),
		}
		diff := Diff(next, prev)
		require.Len(t, diff, 2)
		byKind := map[TargetKind]Effect{}
		for _, e := range diff {
			byKind[e.Target.Kind] = e
		}
		assert.True(t, byKind[TargetAccount].Money().Equal(money.MustNew("30", money.USD)))
		assert.Equal(t, int64(-2), byKind[TargetBatchAvailable].Quantity())
	})

	t.Run("TargetDropsOut", func(t *testing.T) {
		next := []Effect{
			MoneyEffect(AccountTarget(card, money.USD), money.MustNew("150", money.USD)),
			QuantityEffect(BatchAvailableTarget(batch), -10),
		}
		diff := Diff(next, prev)
		require.Len(t, diff, 2)
		for _, e := range diff {
			switch e.Target.ID {
			case cash:
				assert.True(t, e.Money().Equal(money.MustNew("-150", money.USD)))
			case card:
				assert.True(t, e.Money().Equal(money.MustNew("150", money.USD)))
			default:
				t.Fatalf("unexpected target %s", e.Target.Key())
			}
		}
	})

	t.Run("Unchanged", func(t *testing.T) {
		assert.Empty(t, Diff(prev, prev))
	})

	t.Run("RevertIsNegation", func(t *testing.T) {
		diff := Diff(nil, prev)
		assert.Equal(t, Aggregate(Negate(prev)), diff)
	})
}

func TestAggregate_KeepsCurrenciesApart(t *testing.T) {
	agent := uuid.New()
	effects := []Effect{
		MoneyEffect(AgentDebtTarget(agent, money.USD), money.MustNew("10", money.USD)),
		MoneyEffect(AgentDebtTarget(agent, money.UZS), money.MustNew("126500", money.UZS)),
		MoneyEffect(AgentDebtTarget(agent, money.USD), money.MustNew("5", money.USD)),
	}
	out := Aggregate(effects)
	require.Len(t, out, 2)
	for _, e := range out {
		if e.Target.Currency == money.USD {
			assert.True(t, e.Money().Equal(money.MustNew("15", money.USD)))
		} else {
			assert.True(t, e.Money().Equal(money.MustNew("126500", money.UZS)))
		}
	}
}

func TestResources_SortedAndUnique(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	effects := []Effect{
		QuantityEffect(BatchInitialTarget(a), 5),
		QuantityEffect(BatchAvailableTarget(a), 5),
		MoneyEffect(AccountTarget(b, money.UZS), money.MustNew("1", money.UZS)),
	}
	rs := Resources(effects)
	require.Len(t, rs, 2)
	assert.Equal(t, ResourceAccount, rs[0].Kind)
	assert.Equal(t, ResourceBatch, rs[1].Kind)
	assert.Less(t, rs[0].Key(), rs[1].Key())
}

func TestError_Is(t *testing.T) {
	err := Newf(ErrInsufficientStock, "batch %s", uuid.New())
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsBusinessError(err))

	wrapped := Wrap(ErrStockInvariant, assert.AnError, "post-check")
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, KindIntegrity, KindOf(wrapped))
	assert.False(t, IsBusinessError(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(assert.AnError))
}
