package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ticket-backoffice-ledger/internal/api/service"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// BatchHandler serves acquisition batches. Batches are created and amended
// only through acquisition events.
type BatchHandler struct {
	masterData     engine.MasterDataService
	historyService service.HistoryService
	logger         *slog.Logger
}

func NewBatchHandler(logger *slog.Logger, masterData engine.MasterDataService, historyService service.HistoryService) *BatchHandler {
	return &BatchHandler{
		masterData:     masterData,
		historyService: historyService,
		logger:         logger,
	}
}

func (h *BatchHandler) List(c *gin.Context) {
	batches, err := h.masterData.ListBatches(c.Request.Context())
	if err != nil {
		respondFailure(c, h.logger, "Failed to list batches", err)
		return
	}

	responses := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, mapBatchToResponse(b))
	}
	RespondOK(c, responses)
}

func (h *BatchHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "batch ID")
	if !ok {
		return
	}

	b, err := h.masterData.GetBatch(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get batch", err, "batch_id", id.String())
		return
	}

	RespondOK(c, mapBatchToResponse(b))
}

// History lists the stock movements of a batch
func (h *BatchHandler) History(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "batch ID")
	if !ok {
		return
	}
	respondTargetHistory(c, h.logger, h.historyService, id)
}
