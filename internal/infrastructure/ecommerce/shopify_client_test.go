package ecommerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandlive/storesync/internal/domain/integration"
)

// rewriteTransport sends every request to a test server regardless of the shop host
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newTestShopifyClient(t *testing.T, cfg ShopifyConfig, handler http.HandlerFunc) *ShopifyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	return NewShopifyClient(cfg, WithShopifyHTTPClient(&http.Client{Transport: rewriteTransport{target: target}}))
}

func newShopifyStore(t *testing.T) *integration.Store {
	t.Helper()
	store, err := integration.NewShopifyStore(uuid.New(), "demo-shop.myshopify.com", "shpat_token")
	require.NoError(t, err)
	return store
}

func TestShopifyClient_ListProducts(t *testing.T) {
	client := newTestShopifyClient(t, ShopifyConfig{APIVersion: "2024-10"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-10/products.json", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "shpat_token", r.Header.Get("X-Shopify-Access-Token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products": [{
			"id": 632910392,
			"title": "IPod Nano",
			"vendor": "Apple",
			"product_type": "Cult Products",
			"handle": "ipod-nano",
			"image": {"src": "https://cdn.shopify.com/ipod.png"},
			"variants": [
				{"id": 1, "sku": "IPOD2008PINK", "price": "199.00", "inventory_quantity": 10},
				{"id": 2, "sku": "IPOD2008RED", "price": "199.00", "inventory_quantity": 20}
			]
		}]}`))
	})

	products, err := client.ListProducts(context.Background(), newShopifyStore(t), 50)
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "632910392", p.ID)
	assert.Equal(t, "IPod Nano", p.Title)
	assert.Equal(t, "https://cdn.shopify.com/ipod.png", p.Image)
	assert.Equal(t, "199", p.Price)
	assert.Equal(t, "IPOD2008PINK", p.SKU)
	assert.Equal(t, 30, p.Inventory)
	assert.Equal(t, "Apple", p.Vendor)
	assert.Equal(t, "Cult Products", p.ProductType)
	assert.Equal(t, "ipod-nano", p.Handle)
}

func TestShopifyClient_ListProducts_Errors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		client := newTestShopifyClient(t, ShopifyConfig{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
		})
		_, err := client.ListProducts(context.Background(), newShopifyStore(t), 10)
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestShopifyClient(t, ShopifyConfig{}, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"errors":"internal"}`))
		})
		_, err := client.ListProducts(context.Background(), newShopifyStore(t), 10)
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
	})

	t.Run("missing token", func(t *testing.T) {
		store, err := integration.NewShopifyStore(uuid.New(), "demo-shop.myshopify.com", "")
		require.NoError(t, err)
		_, err = NewShopifyClient(ShopifyConfig{}).ListProducts(context.Background(), store, 10)
		assert.ErrorIs(t, err, integration.ErrConfiguration)
	})
}

func TestShopifyClient_ExchangeToken(t *testing.T) {
	client := newTestShopifyClient(t, ShopifyConfig{APIKey: "app-key", APISecret: "app-secret"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "app-key", body["client_id"])
		assert.Equal(t, "app-secret", body["client_secret"])
		assert.Equal(t, "auth-code", body["code"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "shpat_new", "scope": "read_products"}`))
	})

	token, err := client.ExchangeToken(context.Background(), "demo-shop.myshopify.com", "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "shpat_new", token)
}

func TestShopifyClient_ExchangeToken_RequiresAppCredentials(t *testing.T) {
	_, err := NewShopifyClient(ShopifyConfig{APIKey: "app-key"}).ExchangeToken(context.Background(), "demo-shop.myshopify.com", "code")
	assert.ErrorIs(t, err, integration.ErrConfiguration)
	assert.ErrorIs(t, err, ErrShopifyConfigMissingSecret)
}
