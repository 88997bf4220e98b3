package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/api/service"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// PartyHandler serves one party role: agents or suppliers
type PartyHandler struct {
	role           party.Role
	masterData     engine.MasterDataService
	ledgerService  engine.LedgerService
	historyService service.HistoryService
	logger         *slog.Logger
}

// NewPartyHandler creates a handler for parties of the given role
func NewPartyHandler(
	logger *slog.Logger,
	role party.Role,
	masterData engine.MasterDataService,
	ledgerService engine.LedgerService,
	historyService service.HistoryService,
) *PartyHandler {
	return &PartyHandler{
		role:           role,
		masterData:     masterData,
		ledgerService:  ledgerService,
		historyService: historyService,
		logger:         logger.With("role", string(role)),
	}
}

func (h *PartyHandler) Create(c *gin.Context) {
	var req CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.masterData.CreateParty(c.Request.Context(), h.role, req.Name, req.Phone)
	if err != nil {
		respondFailure(c, h.logger, "Failed to create party", err, "name", req.Name)
		return
	}

	RespondCreated(c, mapPartyToResponse(p))
}

func (h *PartyHandler) List(c *gin.Context) {
	parties, err := h.masterData.ListParties(c.Request.Context(), h.role)
	if err != nil {
		respondFailure(c, h.logger, "Failed to list parties", err)
		return
	}

	responses := make([]PartyResponse, 0, len(parties))
	for _, p := range parties {
		responses = append(responses, mapPartyToResponse(p))
	}
	RespondOK(c, responses)
}

// GetByID answers 404 for parties of the other role
func (h *PartyHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "party ID")
	if !ok {
		return
	}

	p, err := h.masterData.GetParty(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get party", err, "party_id", id.String())
		return
	}
	if p.Role != h.role {
		RespondError(c, party.ErrPartyNotFound{PartyID: id})
		return
	}

	RespondOK(c, mapPartyToResponse(p))
}

// Debt returns both currency slots of the party's debt
func (h *PartyHandler) Debt(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "party ID")
	if !ok {
		return
	}

	balance, err := h.debt(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get debt", err, "party_id", id.String())
		return
	}

	RespondOK(c, balance)
}

func (h *PartyHandler) debt(ctx context.Context, id uuid.UUID) (party.Balance, error) {
	if h.role == party.RoleSupplier {
		return h.ledgerService.GetSupplierDebt(ctx, id)
	}
	return h.ledgerService.GetAgentDebt(ctx, id)
}

func (h *PartyHandler) History(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "party ID")
	if !ok {
		return
	}
	respondTargetHistory(c, h.logger, h.historyService, id)
}
