package components

import (
	"log/slog"

	"github.com/ticket-backoffice-ledger/internal/config"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/store"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
	"github.com/ticket-backoffice-ledger/internal/platform/metrics"
)

// Engine groups the services that read and write the ledger
type Engine struct {
	Ledger     service.LedgerService
	MasterData service.MasterDataService
	Reconciler service.Reconciler
}

// CreateEngine wires the ledger engine over txManager
func CreateEngine(
	txManager store.TxManager,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) *Engine {
	planner := NewEffectPlanner(logger.With("component", "planner"))
	applier := NewEffectApplier(NewFundsPolicy(cfg.Ledger.EnforceFunds), logger.With("component", "applier"))
	outboxManager := NewOutboxManager(logger.With("component", "outbox_manager"))

	return &Engine{
		Ledger:     service.NewLedgerService(txManager, planner, applier, outboxManager, m, logger),
		MasterData: service.NewMasterDataService(txManager, logger),
		Reconciler: NewReconciler(txManager, m, logger.With("component", "reconciler")),
	}
}

// CreateCommandProcessor creates the Kafka command processor, running engine
// calls through a worker pool when one can be built.
func CreateCommandProcessor(
	engine service.LedgerService,
	txManager store.TxManager,
	ledgerRepo ledger.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.CommandProcessor {
	validator := NewCommandValidator(txManager, ledgerRepo, logger)
	failureRecorder := NewFailureRecorder(ledgerRepo, logger)

	baseService := service.NewCommandProcessor(engine, validator, failureRecorder, logger)

	workerPoolService, err := service.NewWorkerPoolCommandProcessor(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool command processor", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
