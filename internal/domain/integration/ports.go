package integration

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Outbound ports implemented by infrastructure adapters
// ---------------------------------------------------------------------------

// ProxyListRequest is the selector sent to the trusted catalog listing function
type ProxyListRequest struct {
	StoreID *uuid.UUID `json:"store_id,omitempty"`
	BrandID *uuid.UUID `json:"brand_id,omitempty"`
	Limit   int        `json:"limit"`
}

// CatalogProxy is the trusted server-side function pair that talks to remote platforms
// on behalf of the service.
//
// ListProducts returns an error wrapping ErrProxyUnavailable when the function cannot be
// reached, and ErrProxyRejected when it was reached but answered with an application error.
type CatalogProxy interface {
	ListProducts(ctx context.Context, req ProxyListRequest) (*RemoteCatalog, error)
	TriggerSync(ctx context.Context, storeID uuid.UUID) (int, error)
}

// CatalogSource fetches a store's catalog directly from its platform.
type CatalogSource interface {
	// Platform returns the store type this source serves
	Platform() StoreType
	// ListProducts returns normalized remote products
	ListProducts(ctx context.Context, store *Store, limit int) ([]RemoteProduct, error)
}

// OrderGateway creates orders on a remote platform.
type OrderGateway interface {
	// CreateOrder posts the order and returns the remote order id
	CreateOrder(ctx context.Context, creds WooCredentials, order RemoteOrder, idempotencyKey string) (string, error)
}

// OAuthExchanger trades an OAuth authorization code for a shop access token.
type OAuthExchanger interface {
	ExchangeToken(ctx context.Context, shop, code string) (string, error)
}
