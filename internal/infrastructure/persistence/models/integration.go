package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreModel is the persistence model for the Store entity.
// One row per (brand_id, store_type).
type StoreModel struct {
	BaseModel
	BrandID         uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_store_brand_type,priority:1"`
	Name            string                `gorm:"type:varchar(255);not null"`
	StoreType       integration.StoreType `gorm:"type:varchar(20);not null;uniqueIndex:idx_store_brand_type,priority:2"`
	ExternalStoreID string                `gorm:"type:varchar(255);not null;index"`
	CredentialsJSON string                `gorm:"type:jsonb;column:api_credentials;not null"`
}

// TableName returns the table name for GORM
func (StoreModel) TableName() string {
	return "stores"
}

// ToDomain converts the persistence model to a domain Store.
// Malformed credentials decode to an empty variant, which operations report as ErrConfiguration.
func (m *StoreModel) ToDomain() *integration.Store {
	store := &integration.Store{
		BaseEntity:      m.BaseModel.ToDomain(),
		BrandID:         m.BrandID,
		Name:            m.Name,
		StoreType:       m.StoreType,
		ExternalStoreID: m.ExternalStoreID,
	}
	if creds, err := DecodeCredentials(m.StoreType, m.CredentialsJSON); err == nil {
		store.Credentials = creds
	}
	return store
}

// FromDomain populates the persistence model from a domain Store.
func (m *StoreModel) FromDomain(s *integration.Store) error {
	raw, err := EncodeCredentials(s.StoreType, s.Credentials)
	if err != nil {
		return err
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	m.BrandID = s.BrandID
	m.Name = s.Name
	m.StoreType = s.StoreType
	m.ExternalStoreID = s.ExternalStoreID
	m.CredentialsJSON = raw
	return nil
}

// EncodeCredentials serializes the credential variant that matches storeType.
func EncodeCredentials(storeType integration.StoreType, c integration.Credentials) (string, error) {
	var v any
	switch storeType {
	case integration.StoreTypeWooCommerce:
		if c.Woo == nil {
			return "", fmt.Errorf("%w: woocommerce store without woocommerce credentials", integration.ErrCredential)
		}
		v = c.Woo
	case integration.StoreTypeShopify:
		if c.Shopify == nil {
			return "", fmt.Errorf("%w: shopify store without shopify credentials", integration.ErrCredential)
		}
		v = c.Shopify
	default:
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeCredentials parses the api_credentials blob of a store of the given type.
func DecodeCredentials(storeType integration.StoreType, raw string) (integration.Credentials, error) {
	var creds integration.Credentials
	if raw == "" {
		return creds, nil
	}
	switch storeType {
	case integration.StoreTypeWooCommerce:
		var woo integration.WooCredentials
		if err := json.Unmarshal([]byte(raw), &woo); err != nil {
			return creds, fmt.Errorf("decode woocommerce credentials: %w", err)
		}
		creds.Woo = &woo
	case integration.StoreTypeShopify:
		var shop integration.ShopifyCredentials
		if err := json.Unmarshal([]byte(raw), &shop); err != nil {
			return creds, fmt.Errorf("decode shopify credentials: %w", err)
		}
		creds.Shopify = &shop
	}
	return creds, nil
}

// ProductModel is the persistence model for catalog items.
type ProductModel struct {
	BaseModel
	StoreID           uuid.UUID                     `gorm:"type:uuid;not null;index;uniqueIndex:idx_product_store_external,priority:1"`
	Name              string                        `gorm:"type:varchar(500);not null"`
	Price             decimal.Decimal               `gorm:"type:decimal(18,4);not null;default:0"`
	ImageURL          string                        `gorm:"type:text"`
	ExternalProductID *string                       `gorm:"type:varchar(100);uniqueIndex:idx_product_store_external,priority:2"`
	SourceType        integration.ProductSourceType `gorm:"type:varchar(20);not null;default:'manual'"`
	StockQuantity     int                           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *integration.Product {
	return &integration.Product{
		BaseEntity:        m.BaseModel.ToDomain(),
		StoreID:           m.StoreID,
		Name:              m.Name,
		Price:             m.Price,
		ImageURL:          m.ImageURL,
		ExternalProductID: m.ExternalProductID,
		SourceType:        m.SourceType,
		StockQuantity:     m.StockQuantity,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *integration.Product) *ProductModel {
	m := &ProductModel{
		StoreID:           p.StoreID,
		Name:              p.Name,
		Price:             p.Price,
		ImageURL:          p.ImageURL,
		ExternalProductID: p.ExternalProductID,
		SourceType:        p.SourceType,
		StockQuantity:     p.StockQuantity,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// SyncLogModel is the persistence model for sync run records.
type SyncLogModel struct {
	ID         uuid.UUID                 `gorm:"type:uuid;primary_key"`
	StoreID    uuid.UUID                 `gorm:"type:uuid;not null;index:idx_sync_log_store_started,priority:1"`
	SyncType   integration.SyncType      `gorm:"type:varchar(20);not null"`
	Status     integration.SyncLogStatus `gorm:"type:varchar(20);not null;index"`
	StartedAt  time.Time                 `gorm:"not null;index:idx_sync_log_store_started,priority:2"`
	FinishedAt *time.Time
	Message    *string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog.
func (m *SyncLogModel) ToDomain() *integration.SyncLog {
	return &integration.SyncLog{
		ID:         m.ID,
		StoreID:    m.StoreID,
		SyncType:   m.SyncType,
		Status:     m.Status,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Message:    m.Message,
	}
}

// SyncLogModelFromDomain creates a persistence model from a domain SyncLog.
func SyncLogModelFromDomain(l *integration.SyncLog) *SyncLogModel {
	return &SyncLogModel{
		ID:         l.ID,
		StoreID:    l.StoreID,
		SyncType:   l.SyncType,
		Status:     l.Status,
		StartedAt:  l.StartedAt,
		FinishedAt: l.FinishedAt,
		Message:    l.Message,
	}
}

// OrderModel is the persistence model for local orders.
type OrderModel struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key"`
	BrandID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	StoreID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerEmail     string           `gorm:"type:varchar(255)"`
	CustomerFirstName string           `gorm:"type:varchar(255)"`
	ExternalOrderID   *string          `gorm:"type:varchar(100)"`
	Items             []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"not null"`
	UpdatedAt         time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for order lines.
type OrderItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity  int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Order with its items.
func (m *OrderModel) ToDomain() *integration.Order {
	order := &integration.Order{
		ID:                m.ID,
		BrandID:           m.BrandID,
		StoreID:           m.StoreID,
		CustomerEmail:     m.CustomerEmail,
		CustomerFirstName: m.CustomerFirstName,
		ExternalOrderID:   m.ExternalOrderID,
		Items:             make([]integration.OrderItem, len(m.Items)),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	for i, item := range m.Items {
		order.Items[i] = integration.OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}
	return order
}

// OrderModelFromDomain creates a persistence model from a domain Order.
// Missing ids are generated.
func OrderModelFromDomain(o *integration.Order) *OrderModel {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m := &OrderModel{
		ID:                o.ID,
		BrandID:           o.BrandID,
		StoreID:           o.StoreID,
		CustomerEmail:     o.CustomerEmail,
		CustomerFirstName: o.CustomerFirstName,
		ExternalOrderID:   o.ExternalOrderID,
		Items:             make([]OrderItemModel, len(o.Items)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for i := range o.Items {
		item := &o.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = o.ID
		m.Items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}
	return m
}

// IntegrationModels lists the tables owned by this service, in migration order.
func IntegrationModels() []any {
	return []any{
		&StoreModel{},
		&ProductModel{},
		&SyncLogModel{},
		&OrderModel{},
		&OrderItemModel{},
	}
}
