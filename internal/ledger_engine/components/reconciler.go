package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
	"github.com/ticket-backoffice-ledger/internal/platform/metrics"
)

const reconcilePageSize = 500

// ReconcilerImpl replays the audit log over one snapshot and compares the sums
// with every stored balance, debt slot, stock counter and sale counter
type ReconcilerImpl struct {
	txManager store.TxManager
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewReconciler(txManager store.TxManager, m *metrics.Metrics, logger *slog.Logger) *ReconcilerImpl {
	return &ReconcilerImpl{
		txManager: txManager,
		metrics:   m,
		logger:    logger,
	}
}

var _ service.Reconciler = (*ReconcilerImpl)(nil)

type sums struct {
	targets map[string]ledger.Target
	totals  map[string]decimal.Decimal
}

func (s *sums) add(e ledger.Effect) {
	k := e.Target.Key()
	s.targets[k] = e.Target
	s.totals[k] = s.totals[k].Add(e.Delta)
}

// take returns the sum for t and forgets it, so leftovers are targets with no stored row
func (s *sums) take(t ledger.Target) decimal.Decimal {
	k := t.Key()
	v := s.totals[k]
	delete(s.totals, k)
	return v
}

func (r *ReconcilerImpl) Reconcile(ctx context.Context) (*service.ReconcileReport, error) {
	report := &service.ReconcileReport{Drifts: []service.Drift{}}
	err := r.txManager.ExecuteReadOnly(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		s := &sums{targets: make(map[string]ledger.Target), totals: make(map[string]decimal.Decimal)}
		var after int64
		for {
			page, err := uow.AuditLog().List(ctx, after, reconcilePageSize)
			if err != nil {
				return fmt.Errorf("failed to read audit log after %d: %w", after, err)
			}
			for _, entry := range page {
				for _, d := range entry.Deltas {
					s.add(d)
				}
				after = entry.Sequence
			}
			report.EntriesScanned += len(page)
			if len(page) < reconcilePageSize {
				break
			}
		}

		compare := func(t ledger.Target, expected, actual decimal.Decimal) {
			if !expected.Equal(actual) {
				report.Drifts = append(report.Drifts, service.Drift{Target: t, Expected: expected, Actual: actual})
			}
		}

		accounts, err := uow.Accounts().List(ctx, false)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, acc := range accounts {
			t := ledger.AccountTarget(acc.ID, acc.Currency)
			compare(t, acc.OpeningBalance.Amount().Add(s.take(t)), acc.Balance.Amount())
		}
		report.Accounts = len(accounts)

		parties, err := uow.Parties().List(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list parties: %w", err)
		}
		for _, p := range parties {
			for _, c := range money.Currencies() {
				t := ledger.AgentDebtTarget(p.ID, c)
				if p.Role == party.RoleSupplier {
					t = ledger.SupplierDebtTarget(p.ID, c)
				}
				compare(t, s.take(t), p.Debt(c).Amount())
			}
		}
		report.Parties = len(parties)

		batches, err := uow.Batches().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list batches: %w", err)
		}
		for _, b := range batches {
			initial := ledger.BatchInitialTarget(b.ID)
			compare(initial, s.take(initial), decimal.NewFromInt(b.InitialQuantity))
			available := ledger.BatchAvailableTarget(b.ID)
			compare(available, s.take(available), decimal.NewFromInt(b.AvailableQuantity))
		}
		report.Batches = len(batches)

		sales, err := uow.Events().List(ctx, event.ListFilter{Kind: event.KindSale})
		if err != nil {
			return fmt.Errorf("failed to list sales: %w", err)
		}
		for _, sale := range sales {
			if sale.Draft.Sale == nil {
				continue
			}
			paid := ledger.SalePaidTarget(sale.ID, sale.Draft.Sale.Currency())
			compare(paid, s.take(paid), sale.PaidRaw)
			returned := ledger.SaleReturnedTarget(sale.ID)
			compare(returned, s.take(returned), decimal.NewFromInt(sale.ReturnedQuantity))
		}
		report.Sales = len(sales)

		for k, total := range s.totals {
			if !total.IsZero() {
				compare(s.targets[k], total, decimal.Zero)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Reconciliation failed", "error", err)
		return nil, err
	}

	report.CheckedAt = time.Now().UTC()
	r.metrics.SetReconcileDrift(len(report.Drifts))
	if report.Consistent() {
		r.logger.Info("Reconciliation found no drift",
			"entries", report.EntriesScanned,
			"accounts", report.Accounts,
			"parties", report.Parties,
			"batches", report.Batches,
		)
	} else {
		for _, d := range report.Drifts {
			r.logger.Error("Ledger drift detected",
				"target", d.Target.Key(),
				"expected", d.Expected.String(),
				"actual", d.Actual.String(),
			)
		}
	}
	return report, nil
}
