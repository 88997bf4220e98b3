package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/api/service"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	engine "github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// AccountHandler handles HTTP requests for financial accounts
type AccountHandler struct {
	masterData     engine.MasterDataService
	ledgerService  engine.LedgerService
	historyService service.HistoryService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(
	logger *slog.Logger,
	masterData engine.MasterDataService,
	ledgerService engine.LedgerService,
	historyService service.HistoryService,
) *AccountHandler {
	return &AccountHandler{
		masterData:     masterData,
		ledgerService:  ledgerService,
		historyService: historyService,
		logger:         logger,
	}
}

// Create registers an account; names are unique regardless of case
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if !req.OpeningBalance.Currency().IsValid() {
		RespondBadRequest(c, "opening_balance must name a currency: "+string(money.UZS)+" or "+string(money.USD))
		return
	}

	acc, err := h.masterData.CreateAccount(c.Request.Context(), req.Name, account.Kind(req.Kind), req.OpeningBalance)
	if err != nil {
		respondFailure(c, h.logger, "Failed to create account", err, "name", req.Name)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// List returns every account, or only active ones with ?active_only=true
func (h *AccountHandler) List(c *gin.Context) {
	var params ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid list parameters")
		return
	}

	accounts, err := h.masterData.ListAccounts(c.Request.Context(), params.ActiveOnly)
	if err != nil {
		respondFailure(c, h.logger, "Failed to list accounts", err)
		return
	}

	responses := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		responses = append(responses, mapAccountToResponse(acc))
	}
	RespondOK(c, responses)
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "account ID")
	if !ok {
		return
	}

	acc, err := h.masterData.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get account", err, "account_id", id.String())
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// SetActive deactivates or reactivates an account. Accounts are never deleted.
func (h *AccountHandler) SetActive(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "account ID")
	if !ok {
		return
	}

	var req SetAccountActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.masterData.SetAccountActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondFailure(c, h.logger, "Failed to change account activity", err, "account_id", id.String())
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Balance returns the account's current balance
func (h *AccountHandler) Balance(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "account ID")
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), id)
	if err != nil {
		respondFailure(c, h.logger, "Failed to get account balance", err, "account_id", id.String())
		return
	}

	RespondOK(c, BalanceResponse{AccountID: id.String(), Balance: balance})
}

// History retrieves the paginated audit history of an account
func (h *AccountHandler) History(c *gin.Context) {
	id, ok := parseID(c, h.logger, "id", "account ID")
	if !ok {
		return
	}
	respondTargetHistory(c, h.logger, h.historyService, id)
}

// respondTargetHistory answers a paginated history request for any balance holder
func respondTargetHistory(c *gin.Context, logger *slog.Logger, historyService service.HistoryService, targetID uuid.UUID) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := historyService.GetTargetHistory(
		c.Request.Context(),
		targetID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondFailure(c, logger, "Failed to get history", err, "target_id", targetID.String())
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, mapEntriesToResponse(entries), pagination.Page, pagination.PerPage, int(total))
}
