package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
	"github.com/ticket-backoffice-ledger/internal/domain/party"
)

func newPartyRouter(role party.Role, masterData *MockMasterDataService, ledgerService *MockLedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPartyHandler(testLogger(), role, masterData, ledgerService, new(MockHistoryService))
	router := gin.New()
	router.POST("/parties", h.Create)
	router.GET("/parties", h.List)
	router.GET("/parties/:id", h.GetByID)
	router.GET("/parties/:id/debt", h.Debt)
	return router
}

func testParty(t *testing.T, role party.Role, name string) *party.Party {
	t.Helper()
	p, err := party.NewParty(role, name, "+998901234567")
	require.NoError(t, err)
	return p
}

func TestPartyHandler_Create(t *testing.T) {
	t.Run("Agent", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newPartyRouter(party.RoleAgent, masterData, new(MockLedgerService))
		agent := testParty(t, party.RoleAgent, "Samarkand Tours")

		masterData.On("CreateParty", mock.Anything, party.RoleAgent, "Samarkand Tours", "+998901234567").Return(agent, nil).Once()

		rr := performRequest(router, http.MethodPost, "/parties", `{"name":"Samarkand Tours","phone":"+998901234567"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)
		resp := decode[DataResponse[PartyResponse]](t, rr)
		assert.Equal(t, "AGENT", resp.Data.Role)
		assert.True(t, resp.Data.DebtUZS.IsZero())
		masterData.AssertExpectations(t)
	})

	t.Run("EmptyName", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newPartyRouter(party.RoleSupplier, masterData, new(MockLedgerService))

		masterData.On("CreateParty", mock.Anything, party.RoleSupplier, "  ", "").Return(nil, party.ErrEmptyName).Once()

		rr := performRequest(router, http.MethodPost, "/parties", `{"name":"  "}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPartyHandler_List(t *testing.T) {
	masterData := new(MockMasterDataService)
	router := newPartyRouter(party.RoleSupplier, masterData, new(MockLedgerService))

	masterData.On("ListParties", mock.Anything, party.RoleSupplier).
		Return([]*party.Party{testParty(t, party.RoleSupplier, "Uzbekistan Airways")}, nil).Once()

	rr := performRequest(router, http.MethodGet, "/parties", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[PaginatedResponse[PartyResponse]](t, rr)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "SUPPLIER", resp.Data[0].Role)
	masterData.AssertExpectations(t)
}

func TestPartyHandler_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newPartyRouter(party.RoleAgent, masterData, new(MockLedgerService))
		agent := testParty(t, party.RoleAgent, "Bukhara Travel")

		masterData.On("GetParty", mock.Anything, agent.ID).Return(agent, nil).Once()

		rr := performRequest(router, http.MethodGet, "/parties/"+agent.ID.String(), "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Bukhara Travel", decode[DataResponse[PartyResponse]](t, rr).Data.Name)
	})

	t.Run("OtherRoleIsNotFound", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newPartyRouter(party.RoleAgent, masterData, new(MockLedgerService))
		supplier := testParty(t, party.RoleSupplier, "Air Samarkand")

		masterData.On("GetParty", mock.Anything, supplier.ID).Return(supplier, nil).Once()

		rr := performRequest(router, http.MethodGet, "/parties/"+supplier.ID.String(), "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPartyHandler_Debt(t *testing.T) {
	t.Run("AgentDebt", func(t *testing.T) {
		ledgerService := new(MockLedgerService)
		router := newPartyRouter(party.RoleAgent, new(MockMasterDataService), ledgerService)
		id := uuid.New()
		balance := party.Balance{PartyID: id, UZS: money.MustNew("3000000", money.UZS), USD: money.Zero(money.USD)}

		ledgerService.On("GetAgentDebt", mock.Anything, id).Return(balance, nil).Once()

		rr := performRequest(router, http.MethodGet, "/parties/"+id.String()+"/debt", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decode[DataResponse[party.Balance]](t, rr)
		assert.True(t, resp.Data.UZS.Equal(balance.UZS))
		ledgerService.AssertNotCalled(t, "GetSupplierDebt", mock.Anything, mock.Anything)
	})

	t.Run("SupplierDebt", func(t *testing.T) {
		ledgerService := new(MockLedgerService)
		router := newPartyRouter(party.RoleSupplier, new(MockMasterDataService), ledgerService)
		id := uuid.New()

		ledgerService.On("GetSupplierDebt", mock.Anything, id).
			Return(party.Balance{}, ledger.Newf(ledger.ErrUnknownTarget, "%s is a AGENT, not a SUPPLIER", id)).Once()

		rr := performRequest(router, http.MethodGet, "/parties/"+id.String()+"/debt", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		ledgerService.AssertExpectations(t)
	})
}
