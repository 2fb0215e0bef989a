package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/interfaces/http/dto"
	"github.com/brandlive/storesync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockStoreConnector is a mock implementation of StoreConnector
type MockStoreConnector struct {
	mock.Mock
}

func (m *MockStoreConnector) Connect(ctx context.Context, in app.ConnectWooCommerceInput) (*integration.Store, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Store), args.Error(1)
}

func (m *MockStoreConnector) ConnectShopify(ctx context.Context, in app.ConnectShopifyInput) (*integration.Store, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Store), args.Error(1)
}

func (m *MockStoreConnector) CompleteShopifyOAuth(ctx context.Context, in app.CompleteShopifyOAuthInput) (*app.ShopifyOAuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.ShopifyOAuthResult), args.Error(1)
}

func (m *MockStoreConnector) Disconnect(ctx context.Context, storeID uuid.UUID) error {
	return m.Called(ctx, storeID).Error(0)
}

func (m *MockStoreConnector) GetStatus(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) *app.ConnectionStatus {
	return m.Called(ctx, brandID, storeType).Get(0).(*app.ConnectionStatus)
}

// MockCatalogManager is a mock implementation of CatalogManager
type MockCatalogManager struct {
	mock.Mock
}

func (m *MockCatalogManager) ListRemoteProducts(ctx context.Context, in app.ListRemoteProductsInput) (*integration.RemoteCatalog, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteCatalog), args.Error(1)
}

func (m *MockCatalogManager) ImportSelected(ctx context.Context, storeID uuid.UUID, selected []integration.RemoteProduct) (*app.ImportResult, error) {
	args := m.Called(ctx, storeID, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.ImportResult), args.Error(1)
}

func (m *MockCatalogManager) TriggerProxySync(ctx context.Context, storeID uuid.UUID) (int, error) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Error(1)
}

func (m *MockCatalogManager) SyncInventory(ctx context.Context, storeID uuid.UUID) (*app.InventorySyncResult, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.InventorySyncResult), args.Error(1)
}

// MockSyncLogLister is a mock implementation of SyncLogLister
type MockSyncLogLister struct {
	mock.Mock
}

func (m *MockSyncLogLister) ListSyncLogs(ctx context.Context, storeID uuid.UUID, limit int) ([]integration.SyncLog, error) {
	args := m.Called(ctx, storeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLog), args.Error(1)
}

// MockOrderPublisher is a mock implementation of OrderPublisher
type MockOrderPublisher struct {
	mock.Mock
}

func (m *MockOrderPublisher) Publish(ctx context.Context, orderID uuid.UUID) (*app.PublishResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*app.PublishResult), args.Error(1)
}

// newTestEngine returns an engine with the request id middleware, ready for route registration
func newTestEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	return engine
}

// performRequest serves one request and decodes the standard envelope.
// data, when non-nil, receives the decoded data field.
func performRequest(t *testing.T, engine *gin.Engine, method, path, body string, data any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.RequestIDHeader, "req-test")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp dto.Response
	if w.Code == http.StatusNoContent {
		return w, resp
	}
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	resp = raw.Response
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return w, resp
}
