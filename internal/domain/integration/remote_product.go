package integration

import "github.com/google/uuid"

// RemoteProduct is a normalized remote catalog entry. It is never persisted as-is;
// AlreadyImported is computed locally by TagAlreadyImported.
type RemoteProduct struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Image           string `json:"image"`
	Price           string `json:"price"`
	SKU             string `json:"sku"`
	Inventory       int    `json:"inventory"`
	Vendor          string `json:"vendor"`
	ProductType     string `json:"product_type"`
	Handle          string `json:"handle"`
	AlreadyImported bool   `json:"already_imported"`
}

// RemoteCatalog is the result of listing a store's remote products.
type RemoteCatalog struct {
	Success   bool            `json:"success"`
	Products  []RemoteProduct `json:"products"`
	StoreID   uuid.UUID       `json:"store_id"`
	StoreName string          `json:"store_name"`
	Source    CatalogOrigin   `json:"source"`
}

// CatalogOrigin tells which path produced a remote catalog
type CatalogOrigin string

const (
	// CatalogOriginProxy means the trusted proxy function answered
	CatalogOriginProxy CatalogOrigin = "proxy"
	// CatalogOriginDirect means the direct fetch fallback answered
	CatalogOriginDirect CatalogOrigin = "direct"
)

// TagAlreadyImported returns a copy of products with AlreadyImported set for every id
// contained in existing and cleared for all others. It has no side effects.
func TagAlreadyImported(existing map[string]struct{}, products []RemoteProduct) []RemoteProduct {
	tagged := make([]RemoteProduct, len(products))
	for i, p := range products {
		_, ok := existing[p.ID]
		p.AlreadyImported = ok
		tagged[i] = p
	}
	return tagged
}

// FilterNotImported returns the products whose AlreadyImported flag is false.
func FilterNotImported(products []RemoteProduct) []RemoteProduct {
	out := make([]RemoteProduct, 0, len(products))
	for _, p := range products {
		if !p.AlreadyImported {
			out = append(out, p)
		}
	}
	return out
}
