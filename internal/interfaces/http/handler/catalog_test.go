package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalogEngine(catalog CatalogManager, logs SyncLogLister) *gin.Engine {
	h := NewCatalogHandler(catalog, logs)
	engine := newTestEngine()
	engine.GET("/catalog/remote-products", h.ListRemoteProducts)
	engine.POST("/stores/:id/imports", h.ImportSelected)
	engine.POST("/stores/:id/sync", h.TriggerProxySync)
	engine.POST("/stores/:id/inventory-sync", h.SyncInventory)
	engine.GET("/stores/:id/sync-logs", h.ListSyncLogs)
	return engine
}

func TestCatalogHandler_ListRemoteProducts(t *testing.T) {
	catalog := new(MockCatalogManager)
	storeID := uuid.New()
	catalog.On("ListRemoteProducts", mock.Anything, mock.MatchedBy(func(in app.ListRemoteProductsInput) bool {
		return in.StoreID != nil && *in.StoreID == storeID &&
			in.BrandID == nil &&
			in.Platform == integration.StoreTypeShopify &&
			in.Limit == 25
	})).Return(&integration.RemoteCatalog{
		Success:   true,
		StoreID:   storeID,
		StoreName: "demo",
		Source:    integration.CatalogOriginDirect,
		Products: []integration.RemoteProduct{
			{ID: "1", Title: "Mug", Price: "10.00", AlreadyImported: true},
			{ID: "2", Title: "Cap", Price: "15.50"},
		},
	}, nil)

	var result integration.RemoteCatalog
	w, _ := performRequest(t, newCatalogEngine(catalog, nil), http.MethodGet,
		"/catalog/remote-products?store_id="+storeID.String()+"&platform=shopify&limit=25", "", &result)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, result.Products, 2)
	assert.True(t, result.Products[0].AlreadyImported)
	assert.False(t, result.Products[1].AlreadyImported)
	assert.Equal(t, integration.CatalogOriginDirect, result.Source)
	catalog.AssertExpectations(t)
}

func TestCatalogHandler_ListRemoteProducts_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no selector", "", integration.ErrStoreSelectorNone, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"no store for brand", "?brand_id=" + testBrandID, integration.ErrStoreNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"ladder exhausted", "?brand_id=" + testBrandID, &integration.RemoteFetchError{Attempts: []integration.AttemptError{
			{Attempt: "https", Err: integration.ErrPlatformUnavailable},
		}}, http.StatusBadGateway, dto.ErrCodeRemoteFetch},
		{"proxy rejected", "?brand_id=" + testBrandID, fmt.Errorf("%w: store not linked", integration.ErrProxyRejected), http.StatusBadGateway, dto.ErrCodeProxyRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := new(MockCatalogManager)
			catalog.On("ListRemoteProducts", mock.Anything, mock.Anything).Return(nil, tt.err)

			w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodGet, "/catalog/remote-products"+tt.query, "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("malformed store id", func(t *testing.T) {
		catalog := new(MockCatalogManager)

		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodGet, "/catalog/remote-products?store_id=7", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		catalog.AssertNotCalled(t, "ListRemoteProducts", mock.Anything, mock.Anything)
	})
}

func TestCatalogHandler_ImportSelected(t *testing.T) {
	storeID := uuid.New()
	body := `{"products":[{"id":"1","title":"Mug","price":"10.00"},{"id":"2","title":"Cap","price":"oops"}]}`
	selected := []integration.RemoteProduct{
		{ID: "1", Title: "Mug", Price: "10.00"},
		{ID: "2", Title: "Cap", Price: "oops"},
	}

	t.Run("partial", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("ImportSelected", mock.Anything, storeID, selected).Return(&app.ImportResult{
			InsertedCount: 1,
			PerItemErrors: []integration.ItemError{{ExternalProductID: "2", Title: "Cap", Message: "invalid price"}},
			Status:        integration.SyncStatusPartial,
		}, nil)

		var result app.ImportResult
		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/imports", body, &result)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, result.InsertedCount)
		assert.Equal(t, integration.SyncStatusPartial, result.Status)
		require.Len(t, result.PerItemErrors, 1)
		assert.Equal(t, "2", result.PerItemErrors[0].ExternalProductID)
	})

	t.Run("every item failed", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("ImportSelected", mock.Anything, storeID, selected).Return(&app.ImportResult{
			PerItemErrors: []integration.ItemError{
				{ExternalProductID: "1", Message: "insert failed"},
				{ExternalProductID: "2", Message: "invalid price"},
			},
			Status: integration.SyncStatusFailed,
		}, nil)

		var result app.ImportResult
		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/imports", body, &result)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodePartialImport, resp.Error.Code)
		assert.Len(t, result.PerItemErrors, 2)
	})

	t.Run("store busy", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("ImportSelected", mock.Anything, storeID, mock.Anything).Return(nil, integration.ErrSyncInProgress)

		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/imports", body, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeSyncInProgress, resp.Error.Code)
	})

	t.Run("missing products", func(t *testing.T) {
		catalog := new(MockCatalogManager)

		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/imports", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestCatalogHandler_TriggerProxySync(t *testing.T) {
	storeID := uuid.New()

	t.Run("synced", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("TriggerProxySync", mock.Anything, storeID).Return(7, nil)

		var data SyncedData
		w, _ := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/sync", "", &data)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 7, data.Synced)
	})

	t.Run("proxy not configured", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("TriggerProxySync", mock.Anything, storeID).
			Return(0, fmt.Errorf("%w: catalog proxy is not configured", integration.ErrConfiguration))

		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/sync", "", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeConfiguration, resp.Error.Code)
	})

	t.Run("proxy down", func(t *testing.T) {
		catalog := new(MockCatalogManager)
		catalog.On("TriggerProxySync", mock.Anything, storeID).Return(0, integration.ErrProxyUnavailable)

		w, resp := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/sync", "", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeUpstreamDown, resp.Error.Code)
	})
}

func TestCatalogHandler_SyncInventory(t *testing.T) {
	catalog := new(MockCatalogManager)
	storeID := uuid.New()
	catalog.On("SyncInventory", mock.Anything, storeID).Return(&app.InventorySyncResult{Updated: 4, Unmatched: 2}, nil)

	var result app.InventorySyncResult
	w, _ := performRequest(t, newCatalogEngine(catalog, nil), http.MethodPost, "/stores/"+storeID.String()+"/inventory-sync", "", &result)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), result.Updated)
	assert.Equal(t, 2, result.Unmatched)
}

func TestCatalogHandler_ListSyncLogs(t *testing.T) {
	logs := new(MockSyncLogLister)
	storeID := uuid.New()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Second)
	msg := "imported 3, skipped 0, failed 0"
	logs.On("ListSyncLogs", mock.Anything, storeID, 5).Return([]integration.SyncLog{
		{ID: uuid.New(), StoreID: storeID, SyncType: integration.SyncTypeProducts, Status: integration.SyncLogStatusSuccess,
			StartedAt: started, FinishedAt: &finished, Message: &msg},
		{ID: uuid.New(), StoreID: storeID, SyncType: integration.SyncTypeInventory, Status: integration.SyncLogStatusInProgress,
			StartedAt: finished},
	}, nil)

	var views []map[string]any
	w, _ := performRequest(t, newCatalogEngine(nil, logs), http.MethodGet, "/stores/"+storeID.String()+"/sync-logs?limit=5", "", &views)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, views, 2)
	assert.Equal(t, "products", views[0]["sync_type"])
	assert.Equal(t, msg, views[0]["message"])
	_, hasFinished := views[1]["finished_at"]
	assert.False(t, hasFinished)
	logs.AssertExpectations(t)
}
