package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newWooTestStore(t *testing.T) *integration.Store {
	t.Helper()
	store, err := integration.NewWooCommerceStore(uuid.New(), "https://shop.example.com/", "ck_test", "cs_test")
	require.NoError(t, err)
	return store
}

func newShopifyTestStore(t *testing.T) *integration.Store {
	t.Helper()
	store, err := integration.NewShopifyStore(uuid.New(), "demo.myshopify.com", "shpat_test")
	require.NoError(t, err)
	return store
}

// expectSyncRun accepts one sync run of the store closed with status
func expectSyncRun(logs *MockSyncLogRepository, storeID uuid.UUID, status integration.SyncLogStatus) {
	expectIdleStore(logs, storeID)
	logs.On("Finish", mock.Anything, finishedWith(status)).Return(nil).Once()
}

type catalogFixture struct {
	stores   *MockStoreRepository
	products *MockProductRepository
	logs     *MockSyncLogRepository
	proxy    *MockCatalogProxy
	woo      *MockCatalogSource
	shopify  *MockCatalogSource
}

func newCatalogFixture() *catalogFixture {
	return &catalogFixture{
		stores:   new(MockStoreRepository),
		products: new(MockProductRepository),
		logs:     new(MockSyncLogRepository),
		proxy:    new(MockCatalogProxy),
		woo:      &MockCatalogSource{platform: integration.StoreTypeWooCommerce},
		shopify:  &MockCatalogSource{platform: integration.StoreTypeShopify},
	}
}

func (f *catalogFixture) service(t *testing.T, withProxy bool) *CatalogService {
	t.Helper()
	var opts []CatalogOption
	if withProxy {
		opts = append(opts, WithCatalogProxy(f.proxy))
	}
	return NewCatalogService(
		f.stores,
		f.products,
		newTestOrchestrator(t, f.logs, newTestLocker(t)),
		[]integration.CatalogSource{f.woo, f.shopify},
		DefaultCatalogServiceConfig(),
		zaptest.NewLogger(t),
		opts...,
	)
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ---------------------------------------------------------------------------
// ListRemoteProducts
// ---------------------------------------------------------------------------

func TestCatalogService_ListRemoteProducts_FromProxy(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)
	storeID := store.ID

	f.stores.On("FindByID", mock.Anything, storeID).Return(store, nil)
	f.proxy.On("ListProducts", mock.Anything, mock.MatchedBy(func(req integration.ProxyListRequest) bool {
		return req.StoreID != nil && *req.StoreID == storeID && req.Limit == 50
	})).Return(&integration.RemoteCatalog{
		Success:  true,
		Products: []integration.RemoteProduct{{ID: "1", Title: "Mug"}, {ID: "2", Title: "Cap"}},
	}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, storeID).Return(idSet("2"), nil)

	catalog, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{StoreID: &storeID})

	require.NoError(t, err)
	assert.Equal(t, integration.CatalogOriginProxy, catalog.Source)
	assert.Equal(t, storeID, catalog.StoreID)
	assert.Equal(t, "shop.example.com", catalog.StoreName)
	require.Len(t, catalog.Products, 2)
	assert.False(t, catalog.Products[0].AlreadyImported)
	assert.True(t, catalog.Products[1].AlreadyImported)
	f.woo.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_ListRemoteProducts_ProxyUnavailableFallsBack(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)
	storeID := store.ID

	f.stores.On("FindByID", mock.Anything, storeID).Return(store, nil)
	f.proxy.On("ListProducts", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: connection refused", integration.ErrProxyUnavailable))
	f.woo.On("ListProducts", mock.Anything, store, 50).
		Return([]integration.RemoteProduct{{ID: "7", Title: "Tee"}}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, storeID).Return(idSet(), nil)

	catalog, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{StoreID: &storeID})

	require.NoError(t, err)
	assert.Equal(t, integration.CatalogOriginDirect, catalog.Source)
	assert.True(t, catalog.Success)
	require.Len(t, catalog.Products, 1)
	assert.Equal(t, "7", catalog.Products[0].ID)
	f.woo.AssertExpectations(t)
}

func TestCatalogService_ListRemoteProducts_ProxyRejectionIsFinal(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)
	storeID := store.ID

	f.stores.On("FindByID", mock.Anything, storeID).Return(store, nil)
	f.proxy.On("ListProducts", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: store has no credentials", integration.ErrProxyRejected))

	_, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{StoreID: &storeID})

	assert.ErrorIs(t, err, integration.ErrProxyRejected)
	f.woo.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_ListRemoteProducts_DirectFetchError(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)
	storeID := store.ID
	fetchErr := &integration.RemoteFetchError{Attempts: []integration.AttemptError{
		{Attempt: "https-query-auth", Err: errors.New("401")},
	}}

	f.stores.On("FindByID", mock.Anything, storeID).Return(store, nil)
	f.woo.On("ListProducts", mock.Anything, store, 50).Return(nil, fetchErr)

	_, err := f.service(t, false).ListRemoteProducts(context.Background(), ListRemoteProductsInput{StoreID: &storeID})

	assert.ErrorIs(t, err, integration.ErrRemoteFetch)
}

func TestCatalogService_ListRemoteProducts_ShopifyByBrandSkipsProxy(t *testing.T) {
	f := newCatalogFixture()
	store := newShopifyTestStore(t)
	brandID := store.BrandID

	f.stores.On("FindByBrandAndType", mock.Anything, brandID, integration.StoreTypeShopify).Return(store, nil)
	f.shopify.On("ListProducts", mock.Anything, store, 100).
		Return([]integration.RemoteProduct{{ID: "8001", Title: "Hoodie"}}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet("8001"), nil)

	catalog, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{
		BrandID:  &brandID,
		Platform: integration.StoreTypeShopify,
		Limit:    500,
	})

	require.NoError(t, err)
	assert.Equal(t, integration.CatalogOriginDirect, catalog.Source)
	assert.True(t, catalog.Products[0].AlreadyImported)
	f.proxy.AssertNotCalled(t, "ListProducts", mock.Anything, mock.Anything)
}

func TestCatalogService_ListRemoteProducts_Rejections(t *testing.T) {
	t.Run("no selector", func(t *testing.T) {
		f := newCatalogFixture()
		_, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{})
		assert.ErrorIs(t, err, integration.ErrStoreSelectorNone)
	})

	t.Run("invalid platform", func(t *testing.T) {
		f := newCatalogFixture()
		id := uuid.New()
		_, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{
			StoreID:  &id,
			Platform: integration.StoreType("magento"),
		})
		assert.ErrorIs(t, err, integration.ErrInvalidStoreType)
	})

	t.Run("store type differs from platform", func(t *testing.T) {
		f := newCatalogFixture()
		store := newWooTestStore(t)
		f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)

		_, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{
			StoreID:  &store.ID,
			Platform: integration.StoreTypeShopify,
		})
		assert.ErrorIs(t, err, integration.ErrCredential)
	})

	t.Run("shopify store without token", func(t *testing.T) {
		f := newCatalogFixture()
		store, err := integration.NewShopifyStore(uuid.New(), "pending.myshopify.com", "")
		require.NoError(t, err)
		f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)

		_, err = f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{
			StoreID:  &store.ID,
			Platform: integration.StoreTypeShopify,
		})
		assert.ErrorIs(t, err, integration.ErrCredential)
	})

	t.Run("unknown store", func(t *testing.T) {
		f := newCatalogFixture()
		id := uuid.New()
		f.stores.On("FindByID", mock.Anything, id).Return(nil, integration.ErrStoreNotFound)

		_, err := f.service(t, true).ListRemoteProducts(context.Background(), ListRemoteProductsInput{StoreID: &id})
		assert.ErrorIs(t, err, integration.ErrStoreNotFound)
	})
}

// ---------------------------------------------------------------------------
// ImportSelected
// ---------------------------------------------------------------------------

func createdExternalID(id string) any {
	return mock.MatchedBy(func(p *integration.Product) bool {
		return p.ExternalProductID != nil && *p.ExternalProductID == id
	})
}

func TestCatalogService_ImportSelected_MixedBatch(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet("a"), nil)
	f.products.On("Create", mock.Anything, createdExternalID("b")).Return(nil).Once()
	f.products.On("Create", mock.Anything, createdExternalID("c")).Return(shared.ErrAlreadyExists).Once()
	f.products.On("Create", mock.Anything, createdExternalID("d")).Return(errors.New("connection reset")).Once()
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusSuccess)

	selected := []integration.RemoteProduct{
		{ID: "a", Title: "Already there"},
		{ID: "b", Title: "Mug", Price: "12.50", Inventory: 4},
		{ID: "b", Title: "Mug again"},
		{ID: "", Title: "No id"},
		{ID: "c", Title: "Raced"},
		{ID: "d", Title: "Broken"},
	}
	result, err := f.service(t, false).ImportSelected(context.Background(), store.ID, selected)

	require.NoError(t, err)
	assert.Equal(t, 1, result.InsertedCount)
	assert.Equal(t, 3, result.SkippedCount)
	require.Len(t, result.PerItemErrors, 2)
	assert.Equal(t, "remote product id is required", result.PerItemErrors[0].Message)
	assert.Equal(t, "d", result.PerItemErrors[1].ExternalProductID)
	assert.Equal(t, "connection reset", result.PerItemErrors[1].Message)
	assert.Equal(t, integration.SyncStatusPartial, result.Status)

	partial := result.Err()
	assert.ErrorIs(t, partial, integration.ErrPartialImport)
	var pie *integration.PartialImportError
	require.ErrorAs(t, partial, &pie)
	assert.Equal(t, len(selected), pie.Attempted)
	assert.Equal(t, 1, pie.Inserted)

	f.products.AssertExpectations(t)
	f.logs.AssertExpectations(t)
}

func TestCatalogService_ImportSelected_AllFailed(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet(), nil)
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusFailed)

	result, err := f.service(t, false).ImportSelected(context.Background(), store.ID, []integration.RemoteProduct{
		{ID: "1", Title: ""},
		{ID: "2", Title: "Bad price", Price: "abc"},
	})

	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusFailed, result.Status)
	assert.Zero(t, result.InsertedCount)
	assert.Len(t, result.PerItemErrors, 2)
	f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.logs.AssertExpectations(t)
}

func TestCatalogService_ImportSelected_EmptySelection(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet(), nil)
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusSuccess)

	result, err := f.service(t, false).ImportSelected(context.Background(), store.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, result.Status)
	assert.NotNil(t, result.PerItemErrors)
	assert.NoError(t, result.Err())
}

func TestCatalogService_ImportSelected_Failures(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		f := newCatalogFixture()
		id := uuid.New()
		f.stores.On("FindByID", mock.Anything, id).Return(nil, integration.ErrStoreNotFound)

		_, err := f.service(t, false).ImportSelected(context.Background(), id, nil)
		assert.ErrorIs(t, err, integration.ErrStoreNotFound)
		f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("imported ids unavailable", func(t *testing.T) {
		f := newCatalogFixture()
		store := newWooTestStore(t)
		f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
		f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(nil, errors.New("timeout"))
		expectSyncRun(f.logs, store.ID, integration.SyncLogStatusFailed)

		result, err := f.service(t, false).ImportSelected(context.Background(), store.ID, []integration.RemoteProduct{{ID: "1", Title: "x"}})
		assert.Nil(t, result)
		assert.ErrorContains(t, err, "timeout")
		f.logs.AssertExpectations(t)
	})
}

// ---------------------------------------------------------------------------
// TriggerProxySync / SyncInventory
// ---------------------------------------------------------------------------

func TestCatalogService_TriggerProxySync(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newCatalogFixture()
		_, err := f.service(t, false).TriggerProxySync(context.Background(), uuid.New())
		assert.ErrorIs(t, err, integration.ErrConfiguration)
	})

	t.Run("synced", func(t *testing.T) {
		f := newCatalogFixture()
		store := newWooTestStore(t)
		f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
		f.proxy.On("TriggerSync", mock.Anything, store.ID).Return(7, nil)
		expectSyncRun(f.logs, store.ID, integration.SyncLogStatusSuccess)

		n, err := f.service(t, true).TriggerProxySync(context.Background(), store.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		f.logs.AssertExpectations(t)
	})

	t.Run("rejected", func(t *testing.T) {
		f := newCatalogFixture()
		store := newWooTestStore(t)
		f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
		f.proxy.On("TriggerSync", mock.Anything, store.ID).Return(0, fmt.Errorf("%w: bad key", integration.ErrProxyRejected))
		expectSyncRun(f.logs, store.ID, integration.SyncLogStatusFailed)

		_, err := f.service(t, true).TriggerProxySync(context.Background(), store.ID)
		assert.ErrorIs(t, err, integration.ErrProxyRejected)
	})
}

func TestCatalogService_SyncInventory(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.woo.On("ListProducts", mock.Anything, store, 100).Return([]integration.RemoteProduct{
		{ID: "1", Title: "Mug", Inventory: 5},
		{ID: "2", Title: "Cap", Inventory: -3},
		{ID: "9", Title: "Not imported", Inventory: 40},
	}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet("1", "2"), nil)
	f.products.On("UpdateStockByExternalID", mock.Anything, store.ID, "1", 5).Return(int64(1), nil).Once()
	f.products.On("UpdateStockByExternalID", mock.Anything, store.ID, "2", 0).Return(int64(1), nil).Once()
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusSuccess)

	result, err := f.service(t, false).SyncInventory(context.Background(), store.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Updated)
	assert.Equal(t, 1, result.Unmatched)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.NotRefreshed)
	f.products.AssertExpectations(t)
	f.logs.AssertExpectations(t)
}

func TestCatalogService_SyncInventory_CountsProductsBeyondPage(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.woo.On("ListProducts", mock.Anything, store, 100).Return([]integration.RemoteProduct{
		{ID: "1", Title: "Mug", Inventory: 5},
	}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet("1", "150", "151"), nil)
	f.products.On("UpdateStockByExternalID", mock.Anything, store.ID, "1", 5).Return(int64(1), nil).Once()
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusSuccess)

	result, err := f.service(t, false).SyncInventory(context.Background(), store.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Updated)
	assert.Equal(t, 2, result.NotRefreshed)
	f.products.AssertExpectations(t)
}

func TestCatalogService_SyncInventory_AllUpdatesFailed(t *testing.T) {
	f := newCatalogFixture()
	store := newWooTestStore(t)

	f.stores.On("FindByID", mock.Anything, store.ID).Return(store, nil)
	f.woo.On("ListProducts", mock.Anything, store, 100).Return([]integration.RemoteProduct{{ID: "1", Title: "Mug", Inventory: 5}}, nil)
	f.products.On("ExternalIDsByStore", mock.Anything, store.ID).Return(idSet("1"), nil)
	f.products.On("UpdateStockByExternalID", mock.Anything, store.ID, "1", 5).Return(int64(0), errors.New("deadlock"))
	expectSyncRun(f.logs, store.ID, integration.SyncLogStatusFailed)

	_, err := f.service(t, false).SyncInventory(context.Background(), store.ID)

	assert.ErrorContains(t, err, "deadlock")
	f.logs.AssertExpectations(t)
}
