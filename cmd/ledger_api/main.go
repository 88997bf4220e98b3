package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ticket-backoffice-ledger/internal/api"
	"github.com/ticket-backoffice-ledger/internal/api/service"
	"github.com/ticket-backoffice-ledger/internal/config"
	"github.com/ticket-backoffice-ledger/internal/data/mongo"
	"github.com/ticket-backoffice-ledger/internal/data/postgres"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/components"
	"github.com/ticket-backoffice-ledger/internal/logger"
	"github.com/ticket-backoffice-ledger/internal/platform/messaging/producers"
	"github.com/ticket-backoffice-ledger/internal/platform/metrics"
	"github.com/ticket-backoffice-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	txManager := postgres.NewTxManager(postgresDB.Pool(), log)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := ledgerRepo.EnsureIndexes(appCtx); err != nil {
		log.Warn("Audit history indexes not created", "error", err)
	}

	m := metrics.New()
	engine := components.CreateEngine(txManager, m, log, cfg)

	services := api.Services{
		Ledger:     engine.Ledger,
		MasterData: engine.MasterData,
		Reconciler: engine.Reconciler,
		History:    service.NewHistoryService(log, ledgerRepo),
		Metrics:    m,
	}

	// The synchronous API keeps working without Kafka; only /commands is lost
	commandProducer, err := producers.NewCommandProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize command producer, asynchronous commands disabled", "error", err)
	} else {
		services.Commands = service.NewCommandService(log, ledgerRepo, commandProducer)
	}

	server := api.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the pools they use go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if commandProducer != nil {
		if err = commandProducer.Close(); err != nil {
			log.Error("Error closing command producer", "error", err)
		}
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
