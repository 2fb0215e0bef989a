package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is a locally finalized order that can be pushed to the store's remote platform.
// ExternalOrderID is nil until the order has been published.
type Order struct {
	ID                uuid.UUID
	BrandID           uuid.UUID
	StoreID           uuid.UUID
	CustomerEmail     string
	CustomerFirstName string
	Items             []OrderItem
	ExternalOrderID   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem is one line of a local order
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// IsPublished reports whether the order already has a remote counterpart
func (o *Order) IsPublished() bool {
	return o.ExternalOrderID != nil && *o.ExternalOrderID != ""
}

// ProductIDs returns the distinct product ids referenced by the order lines
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// PublishIdempotencyKey is the token that makes publishing an order happen at most once.
func PublishIdempotencyKey(orderID uuid.UUID) string {
	return "order-publish:" + orderID.String()
}

// ---------------------------------------------------------------------------
// Remote order payload
// ---------------------------------------------------------------------------

// RemoteOrder is the minimal order payload accepted by the remote order-creation endpoint.
type RemoteOrder struct {
	Billing   RemoteBilling    `json:"billing"`
	LineItems []RemoteLineItem `json:"line_items"`
	SetPaid   bool             `json:"set_paid"`
}

// RemoteBilling is the billing identity of a remote order
type RemoteBilling struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

// RemoteLineItem references a remote product by its platform id
type RemoteLineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SkippedItem is an order line that could not be mapped to a remote product.
type SkippedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// BuildRemoteOrder maps order lines to remote line items using externalIDs (local product id ->
// remote product id). Lines whose product has no mapping, or a non-positive quantity, are skipped.
func BuildRemoteOrder(order *Order, externalIDs map[uuid.UUID]string) (RemoteOrder, []SkippedItem) {
	payload := RemoteOrder{
		Billing: RemoteBilling{
			Email:     order.CustomerEmail,
			FirstName: order.CustomerFirstName,
		},
		LineItems: make([]RemoteLineItem, 0, len(order.Items)),
		SetPaid:   false,
	}

	var skipped []SkippedItem
	for _, item := range order.Items {
		if item.Quantity <= 0 {
			skipped = append(skipped, SkippedItem{ProductID: item.ProductID, Reason: fmt.Sprintf("invalid quantity %d", item.Quantity)})
			continue
		}
		remoteID := strings.TrimSpace(externalIDs[item.ProductID])
		if remoteID == "" {
			skipped = append(skipped, SkippedItem{ProductID: item.ProductID, Reason: "product has no external product id"})
			continue
		}
		payload.LineItems = append(payload.LineItems, RemoteLineItem{ProductID: remoteID, Quantity: item.Quantity})
	}
	return payload, skipped
}

// ---------------------------------------------------------------------------
// OrderRepository
// ---------------------------------------------------------------------------

// OrderRepository reads local orders and records their remote ids
type OrderRepository interface {
	// Create persists an order with its items
	Create(ctx context.Context, order *Order) error
	// FindByID loads an order with its items, or ErrOrderNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// MarkPublished sets external_order_id only while it is still null.
	// It returns false when another publisher already set it.
	MarkPublished(ctx context.Context, id uuid.UUID, externalOrderID string) (bool, error)
}
