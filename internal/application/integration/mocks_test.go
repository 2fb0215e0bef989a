package integration

import (
	"context"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoreRepository is a mock implementation of integration.StoreRepository
type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Store), args.Error(1)
}

func (m *MockStoreRepository) FindByBrandAndType(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) (*integration.Store, error) {
	args := m.Called(ctx, brandID, storeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Store), args.Error(1)
}

func (m *MockStoreRepository) FindLatestByBrand(ctx context.Context, brandID uuid.UUID) (*integration.Store, error) {
	args := m.Called(ctx, brandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Store), args.Error(1)
}

func (m *MockStoreRepository) Create(ctx context.Context, store *integration.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *MockStoreRepository) Reconnect(ctx context.Context, store *integration.Store, purgeProducts bool) error {
	args := m.Called(ctx, store, purgeProducts)
	return args.Error(0)
}

func (m *MockStoreRepository) DeleteWithProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of integration.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]integration.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Product), args.Error(1)
}

func (m *MockProductRepository) ExternalIDsByStore(ctx context.Context, storeID uuid.UUID) (map[string]struct{}, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// copy so the service may mutate its set
	src := args.Get(0).(map[string]struct{})
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out, args.Error(1)
}

func (m *MockProductRepository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *integration.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) UpdateStockByExternalID(ctx context.Context, storeID uuid.UUID, externalID string, quantity int) (int64, error) {
	args := m.Called(ctx, storeID, externalID, quantity)
	return args.Get(0).(int64), args.Error(1)
}

// MockSyncLogRepository is a mock implementation of integration.SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Create(ctx context.Context, log *integration.SyncLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockSyncLogRepository) Finish(ctx context.Context, log *integration.SyncLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockSyncLogRepository) FindInProgress(ctx context.Context, storeID uuid.UUID) ([]integration.SyncLog, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLog), args.Error(1)
}

func (m *MockSyncLogRepository) FindLatest(ctx context.Context, storeID uuid.UUID) (*integration.SyncLog, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncLog), args.Error(1)
}

func (m *MockSyncLogRepository) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]integration.SyncLog, error) {
	args := m.Called(ctx, storeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLog), args.Error(1)
}

// MockOrderRepository is a mock implementation of integration.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *integration.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

func (m *MockOrderRepository) MarkPublished(ctx context.Context, id uuid.UUID, externalOrderID string) (bool, error) {
	args := m.Called(ctx, id, externalOrderID)
	return args.Bool(0), args.Error(1)
}

// MockCatalogProxy is a mock implementation of integration.CatalogProxy
type MockCatalogProxy struct {
	mock.Mock
}

func (m *MockCatalogProxy) ListProducts(ctx context.Context, req integration.ProxyListRequest) (*integration.RemoteCatalog, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteCatalog), args.Error(1)
}

func (m *MockCatalogProxy) TriggerSync(ctx context.Context, storeID uuid.UUID) (int, error) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Error(1)
}

// MockCatalogSource is a mock implementation of integration.CatalogSource
type MockCatalogSource struct {
	mock.Mock
	platform integration.StoreType
}

func (m *MockCatalogSource) Platform() integration.StoreType {
	return m.platform
}

func (m *MockCatalogSource) ListProducts(ctx context.Context, store *integration.Store, limit int) ([]integration.RemoteProduct, error) {
	args := m.Called(ctx, store, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteProduct), args.Error(1)
}

// MockOrderGateway is a mock implementation of integration.OrderGateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) CreateOrder(ctx context.Context, creds integration.WooCredentials, order integration.RemoteOrder, idempotencyKey string) (string, error) {
	args := m.Called(ctx, creds, order, idempotencyKey)
	return args.String(0), args.Error(1)
}

// MockOAuthExchanger is a mock implementation of integration.OAuthExchanger
type MockOAuthExchanger struct {
	mock.Mock
}

func (m *MockOAuthExchanger) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	args := m.Called(ctx, shop, code)
	return args.String(0), args.Error(1)
}
