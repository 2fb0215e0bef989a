package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// StoreType represents the external platform of a store connection
// ---------------------------------------------------------------------------

// StoreType represents the external platform of a store connection
type StoreType string

const (
	// StoreTypeShopify is a Shopify store connected through OAuth
	StoreTypeShopify StoreType = "shopify"
	// StoreTypeWooCommerce is a WooCommerce store connected with REST API keys
	StoreTypeWooCommerce StoreType = "woocommerce"
	// StoreTypeInternal is a brand-managed catalog without a remote platform
	StoreTypeInternal StoreType = "internal"
)

// IsValid returns true if the store type is valid
func (t StoreType) IsValid() bool {
	switch t {
	case StoreTypeShopify, StoreTypeWooCommerce, StoreTypeInternal:
		return true
	default:
		return false
	}
}

// String returns the string representation of StoreType
func (t StoreType) String() string {
	return string(t)
}

// ---------------------------------------------------------------------------
// Store entity
// ---------------------------------------------------------------------------

// Store is one brand's connection to one external e-commerce platform.
type Store struct {
	shared.BaseEntity
	BrandID         uuid.UUID
	Name            string
	StoreType       StoreType
	ExternalStoreID string
	Credentials     Credentials
}

// NewWooCommerceStore builds a WooCommerce store from raw connection parameters.
// The site URL is normalized; name and external store id are the canonical URL without protocol.
func NewWooCommerceStore(brandID uuid.UUID, siteURL, consumerKey, consumerSecret string) (*Store, error) {
	if brandID == uuid.Nil {
		return nil, ErrInvalidBrandID
	}
	if err := ValidateWooCredentials(siteURL, consumerKey, consumerSecret); err != nil {
		return nil, err
	}

	canonical := NormalizeSiteURL(siteURL)
	if err := ValidateSiteHost(canonical); err != nil {
		return nil, err
	}
	host := StripProtocol(canonical)

	return &Store{
		BaseEntity:      shared.NewBaseEntity(),
		BrandID:         brandID,
		Name:            host,
		StoreType:       StoreTypeWooCommerce,
		ExternalStoreID: host,
		Credentials: Credentials{
			Woo: &WooCredentials{
				SiteURL:        canonical,
				ConsumerKey:    strings.TrimSpace(consumerKey),
				ConsumerSecret: strings.TrimSpace(consumerSecret),
			},
		},
	}, nil
}

// NewShopifyStore builds a Shopify store for a shop domain and its Admin API token.
func NewShopifyStore(brandID uuid.UUID, shopDomain, accessToken string) (*Store, error) {
	if brandID == uuid.Nil {
		return nil, ErrInvalidBrandID
	}
	if err := ValidateShopifyCredentials(shopDomain); err != nil {
		return nil, err
	}

	domain := NormalizeShopDomain(shopDomain)
	return &Store{
		BaseEntity:      shared.NewBaseEntity(),
		BrandID:         brandID,
		Name:            domain,
		StoreType:       StoreTypeShopify,
		ExternalStoreID: domain,
		Credentials: Credentials{
			Shopify: &ShopifyCredentials{
				ShopDomain:  domain,
				AccessToken: strings.TrimSpace(accessToken),
			},
		},
	}, nil
}

// Reconnect overwrites this store's identity and credentials with those of a freshly
// built connection of the same type. It returns true when the remote site changed.
func (s *Store) Reconnect(fresh *Store) (bool, error) {
	if fresh.StoreType != s.StoreType {
		return false, fmt.Errorf("%w: cannot reconnect %s store as %s", ErrInvalidStoreType, s.StoreType, fresh.StoreType)
	}
	siteChanged := s.ExternalStoreID != fresh.ExternalStoreID
	s.Name = fresh.Name
	s.ExternalStoreID = fresh.ExternalStoreID
	s.Credentials = fresh.Credentials
	s.Touch()
	return siteChanged, nil
}

// WooCredentials returns the WooCommerce credentials of the store.
// It fails with ErrConfiguration when the store is not a complete WooCommerce connection.
func (s *Store) WooCredentials() (WooCredentials, error) {
	if s.StoreType != StoreTypeWooCommerce {
		return WooCredentials{}, fmt.Errorf("%w: store %s is %s, not woocommerce", ErrConfiguration, s.ID, s.StoreType)
	}
	if s.Credentials.Woo == nil || !s.Credentials.Woo.Complete() {
		return WooCredentials{}, fmt.Errorf("%w: store %s has incomplete woocommerce credentials", ErrConfiguration, s.ID)
	}
	return *s.Credentials.Woo, nil
}

// ShopifyCredentials returns the Shopify credentials of the store.
// It fails with ErrConfiguration when the store is not a Shopify connection with a token.
func (s *Store) ShopifyCredentials() (ShopifyCredentials, error) {
	if s.StoreType != StoreTypeShopify {
		return ShopifyCredentials{}, fmt.Errorf("%w: store %s is %s, not shopify", ErrConfiguration, s.ID, s.StoreType)
	}
	if s.Credentials.Shopify == nil || !s.Credentials.Shopify.Complete() {
		return ShopifyCredentials{}, fmt.Errorf("%w: store %s has incomplete shopify credentials", ErrConfiguration, s.ID)
	}
	return *s.Credentials.Shopify, nil
}

// HasCompleteCredentials reports whether the store can reach its platform.
func (s *Store) HasCompleteCredentials() bool {
	switch s.StoreType {
	case StoreTypeWooCommerce:
		_, err := s.WooCredentials()
		return err == nil
	case StoreTypeShopify:
		_, err := s.ShopifyCredentials()
		return err == nil
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// StoreRepository
// ---------------------------------------------------------------------------

// StoreReader defines read operations for stores
type StoreReader interface {
	// FindByID finds a store by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	// FindByBrandAndType finds the store of a brand for one platform
	FindByBrandAndType(ctx context.Context, brandID uuid.UUID, storeType StoreType) (*Store, error)
	// FindLatestByBrand finds the most recently updated store of a brand
	FindLatestByBrand(ctx context.Context, brandID uuid.UUID) (*Store, error)
}

// StoreWriter defines write operations for stores
type StoreWriter interface {
	// Create persists a new store
	Create(ctx context.Context, store *Store) error
	// Reconnect updates an existing store; when purgeProducts is set the store's
	// products are deleted in the same transaction
	Reconnect(ctx context.Context, store *Store, purgeProducts bool) error
	// DeleteWithProducts removes the store's products and then the store, atomically
	DeleteWithProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// StoreRepository combines read and write operations for stores
type StoreRepository interface {
	StoreReader
	StoreWriter
}
