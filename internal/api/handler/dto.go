package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
	"github.com/ticket-backoffice-ledger/internal/domain/shared"
	"github.com/ticket-backoffice-ledger/internal/ledger_engine/service"
)

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Name           string      `json:"name" binding:"required,max=128"`
	Kind           string      `json:"kind" binding:"required,oneof=CASH CARD BANK"`
	OpeningBalance money.Money `json:"opening_balance"`
}

// SetAccountActiveRequest deactivates or reactivates an account
type SetAccountActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreatePartyRequest represents a request to register an agent or supplier
type CreatePartyRequest struct {
	Name  string `json:"name" binding:"required,max=128"`
	Phone string `json:"phone" binding:"omitempty,max=32"`
}

// AmendEventRequest carries the replacement draft of an event
type AmendEventRequest struct {
	ExpectedVersion *int         `json:"expected_version" binding:"omitempty,min=1"`
	Draft           *event.Draft `json:"draft" binding:"required"`
}

// RevertEventRequest is the optional body of a revert
type RevertEventRequest struct {
	ExpectedVersion *int `json:"expected_version" binding:"omitempty,min=1"`
}

// SubmitCommandRequest queues an engine operation for the processor
type SubmitCommandRequest struct {
	CommandID       string       `json:"command_id" binding:"omitempty,uuid"`
	Action          string       `json:"action" binding:"required,oneof=COMMIT AMEND REVERT"`
	EventID         string       `json:"event_id" binding:"omitempty,uuid"`
	ExpectedVersion *int         `json:"expected_version" binding:"omitempty,min=1"`
	Draft           *event.Draft `json:"draft"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// Offset is the number of items before the requested page
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ListEventsParams filters the event journal
type ListEventsParams struct {
	PaginationParams
	Kind   string `form:"kind" binding:"omitempty,oneof=SALE RETURN TRANSFER DEPOSIT EXPENDITURE AGENT_PAYMENT ACQUISITION"`
	Status string `form:"status" binding:"omitempty,oneof=ACTIVE REVERTED"`
}

// ListAccountsParams filters the account list
type ListAccountsParams struct {
	ActiveOnly bool `form:"active_only"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Kind           string      `json:"kind"`
	Currency       string      `json:"currency"`
	OpeningBalance money.Money `json:"opening_balance"`
	Balance        money.Money `json:"balance"`
	Active         bool        `json:"active"`
	Version        int         `json:"version"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

// PartyResponse represents an agent or supplier in API responses
type PartyResponse struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	DebtUZS   money.Money `json:"debt_uzs"`
	DebtUSD   money.Money `json:"debt_usd"`
	Active    bool        `json:"active"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

// BatchResponse represents an acquisition batch in API responses
type BatchResponse struct {
	ID                string      `json:"id"`
	SupplierID        string      `json:"supplier_id"`
	Title             string      `json:"title"`
	Details           string      `json:"details,omitempty"`
	UnitCost          money.Money `json:"unit_cost"`
	InitialQuantity   int64       `json:"initial_quantity"`
	AvailableQuantity int64       `json:"available_quantity"`
	SoldQuantity      int64       `json:"sold_quantity"`
	CreatedAt         string      `json:"created_at"`
	UpdatedAt         string      `json:"updated_at"`
}

// EventResponse represents a journal event in API responses
type EventResponse struct {
	ID               string          `json:"id"`
	Kind             string          `json:"kind"`
	Version          int             `json:"version"`
	Status           string          `json:"status"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"`
	Draft            event.Draft     `json:"draft"`
	Effects          []ledger.Effect `json:"effects"`
	PaidAmount       *money.Money    `json:"paid_amount,omitempty"`
	ReturnedQuantity int64           `json:"returned_quantity,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
	RevertedAt       string          `json:"reverted_at,omitempty"`
}

// EntryResponse represents an audit history entry in API responses
type EntryResponse struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	EventKind     string          `json:"event_kind"`
	Revision      int             `json:"revision"`
	Action        string          `json:"action"`
	Deltas        []ledger.Effect `json:"deltas"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     string          `json:"created_at"`
	ProcessedAt   string          `json:"processed_at,omitempty"`
}

// BalanceResponse is an account balance
type BalanceResponse struct {
	AccountID string      `json:"account_id"`
	Balance   money.Money `json:"balance"`
}

// CommandResponse reports the state of an asynchronous command
type CommandResponse struct {
	CommandID     string         `json:"command_id"`
	Status        string         `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
	Entry         *EntryResponse `json:"entry,omitempty"`
}

// ReconcileResponse wraps a reconciliation report
type ReconcileResponse struct {
	Consistent bool                     `json:"consistent"`
	Report     *service.ReconcileReport `json:"report"`
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:             acc.ID.String(),
		Name:           acc.Name,
		Kind:           string(acc.Kind),
		Currency:       string(acc.Currency),
		OpeningBalance: acc.OpeningBalance,
		Balance:        acc.Balance,
		Active:         acc.Active,
		Version:        acc.Version,
		CreatedAt:      formatTime(acc.CreatedAt),
		UpdatedAt:      formatTime(acc.UpdatedAt),
	}
}

func mapPartyToResponse(p *party.Party) PartyResponse {
	return PartyResponse{
		ID:        p.ID.String(),
		Role:      string(p.Role),
		Name:      p.Name,
		Phone:     p.Phone,
		DebtUZS:   p.DebtUZS,
		DebtUSD:   p.DebtUSD,
		Active:    p.Active,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func mapBatchToResponse(b *inventory.Batch) BatchResponse {
	return BatchResponse{
		ID:                b.ID.String(),
		SupplierID:        b.SupplierID.String(),
		Title:             b.Title,
		Details:           b.Details,
		UnitCost:          b.UnitCost,
		InitialQuantity:   b.InitialQuantity,
		AvailableQuantity: b.AvailableQuantity,
		SoldQuantity:      b.Sold(),
		CreatedAt:         formatTime(b.CreatedAt),
		UpdatedAt:         formatTime(b.UpdatedAt),
	}
}

func mapEventToResponse(e *event.Event) EventResponse {
	response := EventResponse{
		ID:             e.ID.String(),
		Kind:           string(e.Kind),
		Version:        e.Version,
		Status:         string(e.Status),
		IdempotencyKey: e.IdempotencyKey,
		Draft:          e.Draft,
		Effects:        e.Effects,
		CreatedAt:      formatTime(e.CreatedAt),
		UpdatedAt:      formatTime(e.UpdatedAt),
	}
	if e.Kind == event.KindSale {
		paid := e.PaidAmount()
		response.PaidAmount = &paid
		response.ReturnedQuantity = e.ReturnedQuantity
	}
	if e.RevertedAt != nil {
		response.RevertedAt = formatTime(*e.RevertedAt)
	}
	if response.Effects == nil {
		response.Effects = []ledger.Effect{}
	}
	return response
}

func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	response := EntryResponse{
		ID:            entry.ID.String(),
		EventID:       entry.EventID.String(),
		EventKind:     entry.EventKind,
		Revision:      entry.Revision,
		Action:        string(entry.Action),
		Deltas:        entry.Deltas,
		CorrelationID: entry.CorrelationID,
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		CreatedAt:     formatTime(entry.CreatedAt),
	}
	if entry.ProcessedAt != nil {
		response.ProcessedAt = formatTime(*entry.ProcessedAt)
	}
	return response
}

func mapEntriesToResponse(entries []*ledger.Entry) []EntryResponse {
	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}
	return responses
}

func mapCommandToResponse(commandID string, entry *ledger.Entry) CommandResponse {
	if entry == nil {
		return CommandResponse{CommandID: commandID, Status: string(ledger.StatusPending)}
	}
	mapped := mapEntryToResponse(entry)
	return CommandResponse{
		CommandID:     commandID,
		Status:        string(entry.Status),
		FailureReason: entry.FailureReason,
		Entry:         &mapped,
	}
}

// toLedgerCommand converts a validated request; ids were checked by binding
func (r *SubmitCommandRequest) toLedgerCommand() *shared.LedgerCommand {
	cmd := &shared.LedgerCommand{
		Action:          ledger.Action(r.Action),
		ExpectedVersion: r.ExpectedVersion,
		Draft:           r.Draft,
	}
	if r.CommandID != "" {
		cmd.CommandID = uuid.MustParse(r.CommandID)
	}
	if r.EventID != "" {
		cmd.EventID = uuid.MustParse(r.EventID)
	}
	return cmd
}
