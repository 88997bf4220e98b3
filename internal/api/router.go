package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ticket-backoffice-ledger/internal/api/handler"
	"github.com/ticket-backoffice-ledger/internal/api/middleware"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/platform/metrics"
)

// handlers groups everything the router mounts. commands is nil when
// the asynchronous command path is disabled.
type handlers struct {
	events    *handler.EventHandler
	accounts  *handler.AccountHandler
	agents    *handler.PartyHandler
	suppliers *handler.PartyHandler
	batches   *handler.BatchHandler
	reconcile *handler.ReconcileHandler
	commands  *handler.CommandHandler
	metrics   *metrics.Metrics
}

func newHandlers(logger *slog.Logger, services Services) *handlers {
	h := &handlers{
		events:    handler.NewEventHandler(logger, services.Ledger, services.History),
		accounts:  handler.NewAccountHandler(logger, services.MasterData, services.Ledger, services.History),
		agents:    handler.NewPartyHandler(logger, party.RoleAgent, services.MasterData, services.Ledger, services.History),
		suppliers: handler.NewPartyHandler(logger, party.RoleSupplier, services.MasterData, services.Ledger, services.History),
		batches:   handler.NewBatchHandler(logger, services.MasterData, services.History),
		reconcile: handler.NewReconcileHandler(logger, services.Reconciler),
		metrics:   services.Metrics,
	}
	if services.Commands != nil {
		h.commands = handler.NewCommandHandler(logger, services.Commands)
	}
	return h
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h *handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(h.metrics))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.POST("", h.events.Commit)
			events.GET("", h.events.List)
			events.GET("/:id", h.events.GetByID)
			events.PUT("/:id", h.events.Amend)
			events.POST("/:id/revert", h.events.Revert)
			events.GET("/:id/history", h.events.History)
		}

		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.accounts.Create)
			accounts.GET("", h.accounts.List)
			accounts.GET("/:id", h.accounts.GetByID)
			accounts.PATCH("/:id", h.accounts.SetActive)
			accounts.GET("/:id/balance", h.accounts.Balance)
			accounts.GET("/:id/history", h.accounts.History)
		}

		mountParties(v1.Group("/agents"), h.agents)
		mountParties(v1.Group("/suppliers"), h.suppliers)

		batches := v1.Group("/batches")
		{
			batches.GET("", h.batches.List)
			batches.GET("/:id", h.batches.GetByID)
			batches.GET("/:id/history", h.batches.History)
		}

		v1.POST("/reconcile", h.reconcile.Reconcile)

		if h.commands != nil {
			commands := v1.Group("/commands")
			{
				commands.POST("", h.commands.Submit)
				commands.GET("/:id", h.commands.Status)
			}
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}

func mountParties(g *gin.RouterGroup, h *handler.PartyHandler) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/debt", h.Debt)
	g.GET("/:id/history", h.History)
}
