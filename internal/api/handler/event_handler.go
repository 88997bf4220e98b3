package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ticket-backoffice-ledger/internal/api/service"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// EventHandler exposes the ledger engine's event operations
type EventHandler struct {
	ledgerService  engine.LedgerService
	historyService service.HistoryService
	logger         *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(logger *slog.Logger, ledgerService engine.LedgerService, historyService service.HistoryService) *EventHandler {
	return &EventHandler{
		ledgerService:  ledgerService,
		historyService: historyService,
		logger:         logger,
	}
}

// Commit validates a draft, applies its effects and records it in the journal.
// Resubmitting a draft with a used idempotency key returns the original event.
func (h *EventHandler) Commit(c *gin.Context) {
	var draft event.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ev, err := h.ledgerService.Commit(c.Request.Context(), &draft)
	if err != nil {
		respondFailure(c, h.logger, "Failed to commit event", err, "kind", draft.Kind)
		return
	}

	RespondCreated(c, mapEventToResponse(ev))
}

// Amend replaces an event's draft, applying the difference between the new
// and the old effects
func (h *EventHandler) Amend(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "event ID")
	if !ok {
		return
	}

	var req AmendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ev, err := h.ledgerService.Amend(c.Request.Context(), id, req.Draft, req.ExpectedVersion)
	if err != nil {
		respondFailure(c, h.logger, "Failed to amend event", err, "event_id", id.String())
		return
	}

	RespondOK(c, mapEventToResponse(ev))
}

// Revert reverses every effect of an event. The body is optional.
func (h *EventHandler) Revert(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "event ID")
	if !ok {
		return
	}

	var req RevertEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("Invalid request body", "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	ev, err := h.ledgerService.Revert(c.Request.Context(), id, req.ExpectedVersion)
	if err != nil {
		respondFailure(c, h.logger, "Failed to revert event", err, "event_id", id.String())
		return
	}

	RespondOK(c, mapEventToResponse(ev))
}

// GetByID retrieves an event by its ID, returns 404 if not found
func (h *EventHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "event ID")
	if !ok {
		return
	}

	ev, err := h.ledgerService.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get event", err, "event_id", id.String())
		return
	}

	RespondOK(c, mapEventToResponse(ev))
}

// List returns a page of the journal, newest first
func (h *EventHandler) List(c *gin.Context) {
	var params ListEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid list parameters", "error", err)
		RespondBadRequest(c, "Invalid list parameters")
		return
	}

	events, err := h.ledgerService.ListEvents(c.Request.Context(), event.ListFilter{
		Kind:   event.Kind(params.Kind),
		Status: event.Status(params.Status),
		Limit:  params.PerPage,
		Offset: params.Offset(),
	})
	if err != nil {
		respondFailure(c, h.logger, "Failed to list events", err)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, mapEventToResponse(ev))
	}

	RespondWithPage(c, responses, params.Page, params.PerPage)
}

// History returns every audit entry recorded for an event, oldest first
func (h *EventHandler) History(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "event ID")
	if !ok {
		return
	}

	entries, err := h.historyService.GetEventHistory(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get event history", err, "event_id", id.String())
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}
