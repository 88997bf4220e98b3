package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/ticket-backoffice-ledger/internal/domain/account"
	"github.com/ticket-backoffice-ledger/internal/domain/event"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantKind   string
	}{
		{"validation", ledger.Newf(ledger.ErrInvalidAmount, "amount must be positive"), http.StatusBadRequest, "INVALID_AMOUNT", "VALIDATION"},
		{"not found", ledger.Newf(ledger.ErrEventNotFound, "no event"), http.StatusNotFound, "EVENT_NOT_FOUND", "NOT_FOUND"},
		{"conflict", ledger.Newf(ledger.ErrInsufficientFunds, "cash"), http.StatusConflict, "INSUFFICIENT_FUNDS", "CONFLICT"},
		{"concurrency", fmt.Errorf("amend: %w", ledger.ErrConcurrentModification), http.StatusConflict, "CONCURRENT_MODIFICATION", "CONCURRENCY"},
		{"integrity", ledger.Newf(ledger.ErrStockInvariant, "batch over initial"), http.StatusInternalServerError, "STOCK_INVARIANT", "INTEGRITY"},
		{"repository not found", event.ErrEventNotFound{EventID: uuid.New()}, http.StatusNotFound, "EVENT_NOT_FOUND", "NOT_FOUND"},
		{"missing batch", inventory.ErrBatchNotFound{BatchID: uuid.New()}, http.StatusNotFound, "UNKNOWN_TARGET", "NOT_FOUND"},
		{"negative stock", inventory.ErrNegativeStock, http.StatusConflict, "INSUFFICIENT_STOCK", "CONFLICT"},
		{"duplicate account", account.ErrDuplicateName{Name: "Cash"}, http.StatusConflict, "CONFLICT", ""},
		{"empty party name", party.ErrEmptyName, http.StatusBadRequest, "BAD_REQUEST", ""},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rr)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			status := RespondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decode[Response](t, rr)
			if assert.NotNil(t, resp.Error) {
				assert.Equal(t, tt.wantCode, resp.Error.Code)
				assert.Equal(t, tt.wantKind, resp.Error.Kind)
			}
		})
	}
}

func TestRespondError_HidesIntegrityDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, ledger.Newf(ledger.ErrStockInvariant, "batch 42 available 30 over initial 20"))

	resp := decode[Response](t, rr)
	assert.Equal(t, "Ledger integrity violation", resp.Error.Message)
	assert.NotContains(t, rr.Body.String(), "batch 42")
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, 2, 2, 5)

	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, 5, resp.Meta.TotalItems)
}
