package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ticket-backoffice-ledger/internal/domain/inventory"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

func newBatchRouter(masterData *MockMasterDataService, history *MockHistoryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBatchHandler(testLogger(), masterData, history)
	router := gin.New()
	router.GET("/batches", h.List)
	router.GET("/batches/:id", h.GetByID)
	router.GET("/batches/:id/history", h.History)
	return router
}

func testBatch() *inventory.Batch {
	b := inventory.NewBatch(uuid.New(), uuid.New(), "TAS-IST 12 May", money.MustNew("350", money.USD))
	b.InitialQuantity = 20
	b.AvailableQuantity = 14
	return b
}

func TestBatchHandler_List(t *testing.T) {
	masterData := new(MockMasterDataService)
	router := newBatchRouter(masterData, new(MockHistoryService))

	masterData.On("ListBatches", mock.Anything).Return([]*inventory.Batch{testBatch()}, nil).Once()

	rr := performRequest(router, http.MethodGet, "/batches", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[PaginatedResponse[BatchResponse]](t, rr)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(6), resp.Data[0].SoldQuantity)
}

func TestBatchHandler_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newBatchRouter(masterData, new(MockHistoryService))
		b := testBatch()

		masterData.On("GetBatch", mock.Anything, b.ID).Return(b, nil).Once()

		rr := performRequest(router, http.MethodGet, "/batches/"+b.ID.String(), "")

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decode[DataResponse[BatchResponse]](t, rr)
		assert.Equal(t, "TAS-IST 12 May", resp.Data.Title)
		assert.Equal(t, int64(14), resp.Data.AvailableQuantity)
	})

	t.Run("NotFound", func(t *testing.T) {
		masterData := new(MockMasterDataService)
		router := newBatchRouter(masterData, new(MockHistoryService))
		id := uuid.New()

		masterData.On("GetBatch", mock.Anything, id).Return(nil, inventory.ErrBatchNotFound{BatchID: id}).Once()

		rr := performRequest(router, http.MethodGet, "/batches/"+id.String(), "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestBatchHandler_History(t *testing.T) {
	history := new(MockHistoryService)
	router := newBatchRouter(new(MockMasterDataService), history)
	id := uuid.New()

	history.On("GetTargetHistory", mock.Anything, id, 1, 10).Return(nil, int64(0), nil).Once()

	rr := performRequest(router, http.MethodGet, "/batches/"+id.String()+"/history", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[PaginatedResponse[EntryResponse]](t, rr)
	assert.Empty(t, resp.Data)
	history.AssertExpectations(t)
}
