package components

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
)

func TestReconciler_Reconcile(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, defaultEnforced()...)
	cash := l.account(t, "CASH-USD", "100", money.USD)
	agent := l.party(t, party.RoleAgent, "Agent Smith")
	supplier := l.party(t, party.RoleSupplier, "Iceberg Tickets")

	acq := l.commit(t, acquisitionDraft(supplier, 20, money.MustNew("10", money.USD), &cash))
	sale := l.commit(t, agentSaleDraft(acq.ID, 5, money.MustNew("14", money.USD), agent))
	l.commit(t, returnDraft(sale.ID, 1))
	dep := l.commit(t, depositDraft(cash, money.MustNew("30", money.USD)))
	_, err := l.Ledger.Amend(ctx, dep.ID, depositDraft(cash, money.MustNew("45", money.USD)), nil)
	require.NoError(t, err)

	t.Run("consistent ledger", func(t *testing.T) {
		report, err := l.Reconciler.Reconcile(ctx)
		require.NoError(t, err)
		assert.True(t, report.Consistent(), "drifts: %+v", report.Drifts)
		assert.Equal(t, 5, report.EntriesScanned)
		assert.Equal(t, 1, report.Accounts)
		assert.Equal(t, 2, report.Parties)
		assert.Equal(t, 1, report.Batches)
		assert.Equal(t, 1, report.Sales)
		assert.False(t, report.CheckedAt.IsZero())
	})

	t.Run("balance written outside the engine is reported", func(t *testing.T) {
		_, err := l.store.Reader().Accounts().AdjustBalance(ctx, cash, money.MustNew("7", money.USD))
		require.NoError(t, err)

		report, err := l.Reconciler.Reconcile(ctx)
		require.NoError(t, err)
		require.Len(t, report.Drifts, 1)
		d := report.Drifts[0]
		assert.Equal(t, ledger.AccountTarget(cash, money.USD), d.Target)
		assertAmount(t, "-55", d.Expected)
		assertAmount(t, "-48", d.Actual)
	})
}
