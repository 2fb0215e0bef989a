package integration

import (
	"fmt"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Connection DTOs
// ---------------------------------------------------------------------------

// ConnectWooCommerceInput contains input for connecting a WooCommerce store
type ConnectWooCommerceInput struct {
	BrandID        uuid.UUID
	SiteURL        string
	ConsumerKey    string
	ConsumerSecret string
}

// ConnectShopifyInput contains input for connecting a Shopify store with a known token
type ConnectShopifyInput struct {
	BrandID     uuid.UUID
	ShopDomain  string
	AccessToken string
}

// CompleteShopifyOAuthInput is the OAuth callback payload
type CompleteShopifyOAuthInput struct {
	BrandID uuid.UUID
	Code    string
	Shop    string
	State   string
}

// ShopifyOAuthResult is returned once the OAuth code has been exchanged and stored
type ShopifyOAuthResult struct {
	StoreID    uuid.UUID `json:"store_id"`
	ShopDomain string    `json:"shop_domain"`
}

// StoreView is a store without its credentials
type StoreView struct {
	ID              uuid.UUID             `json:"id"`
	BrandID         uuid.UUID             `json:"brand_id"`
	Name            string                `json:"name"`
	StoreType       integration.StoreType `json:"store_type"`
	ExternalStoreID string                `json:"external_store_id"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewStoreView strips credentials from a store
func NewStoreView(s *integration.Store) *StoreView {
	if s == nil {
		return nil
	}
	return &StoreView{
		ID:              s.ID,
		BrandID:         s.BrandID,
		Name:            s.Name,
		StoreType:       s.StoreType,
		ExternalStoreID: s.ExternalStoreID,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// SyncLogView is the API form of a sync log
type SyncLogView struct {
	ID         uuid.UUID                 `json:"id"`
	StoreID    uuid.UUID                 `json:"store_id"`
	SyncType   integration.SyncType      `json:"sync_type"`
	Status     integration.SyncLogStatus `json:"status"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
	Message    *string                   `json:"message,omitempty"`
}

// NewSyncLogView converts a sync log for API output
func NewSyncLogView(l *integration.SyncLog) *SyncLogView {
	if l == nil {
		return nil
	}
	return &SyncLogView{
		ID:         l.ID,
		StoreID:    l.StoreID,
		SyncType:   l.SyncType,
		Status:     l.Status,
		StartedAt:  l.StartedAt,
		FinishedAt: l.FinishedAt,
		Message:    l.Message,
	}
}

// NewSyncLogViews converts a page of sync logs
func NewSyncLogViews(logs []integration.SyncLog) []SyncLogView {
	views := make([]SyncLogView, 0, len(logs))
	for i := range logs {
		views = append(views, *NewSyncLogView(&logs[i]))
	}
	return views
}

// ConnectionStatus is the dashboard view of a brand's store connection.
// The zero value means "not connected".
type ConnectionStatus struct {
	Connected     bool         `json:"connected"`
	Store         *StoreView   `json:"store"`
	ProductsCount int64        `json:"products_count"`
	LastSync      *SyncLogView `json:"last_sync"`
}

// ---------------------------------------------------------------------------
// Catalog DTOs
// ---------------------------------------------------------------------------

// ListRemoteProductsInput selects the store whose remote catalog is listed.
// StoreID wins over BrandID; Platform defaults to woocommerce.
type ListRemoteProductsInput struct {
	StoreID  *uuid.UUID
	BrandID  *uuid.UUID
	Platform integration.StoreType
	Limit    int
}

// ImportResult reports the outcome of importing selected remote products
type ImportResult struct {
	InsertedCount int                     `json:"inserted_count"`
	SkippedCount  int                     `json:"skipped_count"`
	PerItemErrors []integration.ItemError `json:"per_item_errors"`
	Status        integration.SyncStatus  `json:"status"`
	attempted     int
}

// Err returns a *integration.PartialImportError when any item failed, nil otherwise
func (r *ImportResult) Err() error {
	if r == nil || len(r.PerItemErrors) == 0 {
		return nil
	}
	return &integration.PartialImportError{
		Attempted: r.attempted,
		Inserted:  r.InsertedCount,
		Items:     r.PerItemErrors,
	}
}

// Summary is the sync log message of the import
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("imported %d, skipped %d, failed %d", r.InsertedCount, r.SkippedCount, len(r.PerItemErrors))
}

// InventorySyncResult reports the outcome of a stock refresh. A refresh reads one
// catalog page of up to max_limit products; NotRefreshed counts imported products
// that page did not include.
type InventorySyncResult struct {
	Updated      int64 `json:"updated"`
	Unmatched    int   `json:"unmatched"`
	Failed       int   `json:"failed"`
	NotRefreshed int   `json:"not_refreshed"`
}

// ---------------------------------------------------------------------------
// Publish DTOs
// ---------------------------------------------------------------------------

// PublishResult reports the outcome of pushing an order to its store
type PublishResult struct {
	Success          bool                      `json:"success"`
	RemoteOrderID    string                    `json:"remote_order_id"`
	AlreadyPublished bool                      `json:"already_published"`
	SkippedItems     []integration.SkippedItem `json:"skipped_items,omitempty"`
}
