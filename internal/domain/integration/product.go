package integration

import (
	"context"
	"strings"

	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSourceType records where a catalog item came from
type ProductSourceType string

const (
	// ProductSourceShopify marks a product imported from a Shopify store
	ProductSourceShopify ProductSourceType = "shopify"
	// ProductSourceWooCommerce marks a product imported from a WooCommerce store
	ProductSourceWooCommerce ProductSourceType = "woocommerce"
	// ProductSourceManual marks a locally authored product
	ProductSourceManual ProductSourceType = "manual"
)

// IsValid returns true if the source type is valid
func (t ProductSourceType) IsValid() bool {
	switch t {
	case ProductSourceShopify, ProductSourceWooCommerce, ProductSourceManual:
		return true
	default:
		return false
	}
}

// SourceTypeFor returns the product source type for items imported from a store type.
func SourceTypeFor(storeType StoreType) ProductSourceType {
	switch storeType {
	case StoreTypeShopify:
		return ProductSourceShopify
	case StoreTypeWooCommerce:
		return ProductSourceWooCommerce
	default:
		return ProductSourceManual
	}
}

// Product is a catalog item owned by a Store.
// ExternalProductID is nil for locally authored products.
type Product struct {
	shared.BaseEntity
	StoreID           uuid.UUID
	Name              string
	Price             decimal.Decimal
	ImageURL          string
	ExternalProductID *string
	SourceType        ProductSourceType
	StockQuantity     int
}

// NewImportedProduct builds a Product row from a selected remote catalog item.
func NewImportedProduct(store *Store, remote RemoteProduct) (*Product, error) {
	externalID := strings.TrimSpace(remote.ID)
	if externalID == "" {
		return nil, shared.InvalidInputf("remote product id is required")
	}
	name := strings.TrimSpace(remote.Title)
	if name == "" {
		return nil, shared.InvalidInputf("remote product %s has no title", externalID)
	}

	price := decimal.Zero
	if p := strings.TrimSpace(remote.Price); p != "" {
		parsed, err := decimal.NewFromString(p)
		if err != nil {
			return nil, shared.InvalidInputf("remote product %s has invalid price %q", externalID, remote.Price)
		}
		price = parsed
	}
	if price.IsNegative() {
		return nil, shared.InvalidInputf("remote product %s has negative price", externalID)
	}

	stock := remote.Inventory
	if stock < 0 {
		stock = 0
	}

	return &Product{
		BaseEntity:        shared.NewBaseEntity(),
		StoreID:           store.ID,
		Name:              name,
		Price:             price,
		ImageURL:          remote.Image,
		ExternalProductID: &externalID,
		SourceType:        SourceTypeFor(store.StoreType),
		StockQuantity:     stock,
	}, nil
}

// IsImported reports whether the product came from a remote platform.
func (p *Product) IsImported() bool {
	return p.ExternalProductID != nil && *p.ExternalProductID != ""
}

// ---------------------------------------------------------------------------
// ProductRepository
// ---------------------------------------------------------------------------

// ProductReader defines read operations for products
type ProductReader interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs finds products by IDs; missing ids are absent from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// ExternalIDsByStore returns the set of external product ids already imported for a store
	ExternalIDsByStore(ctx context.Context, storeID uuid.UUID) (map[string]struct{}, error)
	// CountByStore counts products of a store
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// ProductWriter defines write operations for products
type ProductWriter interface {
	// Create inserts a single product row
	Create(ctx context.Context, product *Product) error
	// UpdateStockByExternalID sets stock_quantity of an imported product; returns rows affected
	UpdateStockByExternalID(ctx context.Context, storeID uuid.UUID, externalID string, quantity int) (int64, error)
}

// ProductRepository combines read and write operations for products
type ProductRepository interface {
	ProductReader
	ProductWriter
}
