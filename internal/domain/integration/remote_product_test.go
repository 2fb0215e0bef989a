package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagAlreadyImported(t *testing.T) {
	existing := map[string]struct{}{"123": {}}
	products := []RemoteProduct{
		{ID: "123", Title: "Imported"},
		{ID: "456", Title: "Fresh", AlreadyImported: true},
	}

	tagged := TagAlreadyImported(existing, products)

	require.Len(t, tagged, 2)
	assert.True(t, tagged[0].AlreadyImported)
	assert.False(t, tagged[1].AlreadyImported)
	// input is untouched
	assert.False(t, products[0].AlreadyImported)
	assert.True(t, products[1].AlreadyImported)

	assert.Equal(t, []RemoteProduct{tagged[1]}, FilterNotImported(tagged))
}

func TestTagAlreadyImported_EmptySet(t *testing.T) {
	tagged := TagAlreadyImported(nil, []RemoteProduct{{ID: "1"}})
	assert.False(t, tagged[0].AlreadyImported)
	assert.Empty(t, TagAlreadyImported(nil, nil))
}

func TestNewImportedProduct(t *testing.T) {
	store, err := NewWooCommerceStore(uuid.New(), "example.com", "ck", "cs")
	require.NoError(t, err)

	t.Run("maps remote fields", func(t *testing.T) {
		p, err := NewImportedProduct(store, RemoteProduct{
			ID: "42", Title: " Mug ", Price: "12.50", Image: "https://img/1.png", Inventory: 7,
		})
		require.NoError(t, err)
		assert.Equal(t, store.ID, p.StoreID)
		assert.Equal(t, "Mug", p.Name)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))
		assert.Equal(t, "42", *p.ExternalProductID)
		assert.Equal(t, ProductSourceWooCommerce, p.SourceType)
		assert.Equal(t, 7, p.StockQuantity)
		assert.True(t, p.IsImported())
	})

	t.Run("empty price is zero and negative stock is clamped", func(t *testing.T) {
		p, err := NewImportedProduct(store, RemoteProduct{ID: "43", Title: "Free", Inventory: -3})
		require.NoError(t, err)
		assert.True(t, p.Price.IsZero())
		assert.Equal(t, 0, p.StockQuantity)
	})

	t.Run("invalid price", func(t *testing.T) {
		_, err := NewImportedProduct(store, RemoteProduct{ID: "44", Title: "Bad", Price: "abc"})
		assert.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := NewImportedProduct(store, RemoteProduct{Title: "No id"})
		assert.Error(t, err)
	})
}

func TestSourceTypeFor(t *testing.T) {
	assert.Equal(t, ProductSourceShopify, SourceTypeFor(StoreTypeShopify))
	assert.Equal(t, ProductSourceWooCommerce, SourceTypeFor(StoreTypeWooCommerce))
	assert.Equal(t, ProductSourceManual, SourceTypeFor(StoreTypeInternal))
	assert.True(t, ProductSourceWooCommerce.IsValid())
	assert.False(t, ProductSourceType("amazon").IsValid())
}
