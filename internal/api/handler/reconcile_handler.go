package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// ReconcileHandler triggers a cross-check of stored balances against the audit log
type ReconcileHandler struct {
	reconciler engine.Reconciler
	logger     *slog.Logger
}

func NewReconcileHandler(logger *slog.Logger, reconciler engine.Reconciler) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Reconcile answers 200 with the report whether or not drift was found
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		respondFailure(c, h.logger, "Reconciliation failed", err)
		return
	}

	if !report.Consistent() {
		h.logger.Warn("Reconciliation found drift", "drifts", len(report.Drifts))
	}

	RespondOK(c, ReconcileResponse{Consistent: report.Consistent(), Report: report})
}
