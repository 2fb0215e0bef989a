package ecommerce

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/brandlive/storesync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Flexible scalars
// ---------------------------------------------------------------------------

// flexString decodes a JSON string or number into its string form.
// WooCommerce returns ids as numbers and prices as strings; proxies are not consistent either.
type flexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", truncate(data, 32))
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number, numeric string, or null into an int
type flexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := cast.ToFloat64E(string(s))
	if err != nil {
		return fmt.Errorf("invalid integer %q", string(s))
	}
	*f = flexInt(int(v))
	return nil
}

// ---------------------------------------------------------------------------
// WooCommerce REST v3
// ---------------------------------------------------------------------------

// WooProduct is the subset of a WooCommerce product used by the catalog
type WooProduct struct {
	ID            flexString    `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	SKU           string        `json:"sku"`
	Price         flexString    `json:"price"`
	RegularPrice  flexString    `json:"regular_price"`
	StockQuantity *flexInt      `json:"stock_quantity"`
	Images        []WooImage    `json:"images"`
	Categories    []WooCategory `json:"categories"`
}

// WooImage is a product image
type WooImage struct {
	Src string `json:"src"`
}

// WooCategory is a product category reference
type WooCategory struct {
	Name string `json:"name"`
}

// WooOrderResponse is the subset of the order creation response we read
type WooOrderResponse struct {
	ID flexString `json:"id"`
}

// WooErrorResponse is the WooCommerce REST error body
type WooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToRemoteProduct normalizes a WooCommerce product
func (p WooProduct) ToRemoteProduct() integration.RemoteProduct {
	remote := integration.RemoteProduct{
		ID:     string(p.ID),
		Title:  p.Name,
		Price:  string(p.Price),
		SKU:    p.SKU,
		Handle: p.Slug,
	}
	if remote.Price == "" {
		remote.Price = string(p.RegularPrice)
	}
	if p.StockQuantity != nil {
		remote.Inventory = int(*p.StockQuantity)
	}
	if len(p.Images) > 0 {
		remote.Image = p.Images[0].Src
	}
	if len(p.Categories) > 0 {
		remote.ProductType = p.Categories[0].Name
	}
	return remote
}

// ---------------------------------------------------------------------------
// Proxy functions
// ---------------------------------------------------------------------------

// proxyProduct is a product as returned by the listing function. It is already
// normalized, but ids and prices may arrive as numbers.
type proxyProduct struct {
	ID          flexString `json:"id"`
	Title       string     `json:"title"`
	Image       string     `json:"image"`
	Price       flexString `json:"price"`
	SKU         string     `json:"sku"`
	Inventory   flexInt    `json:"inventory"`
	Vendor      string     `json:"vendor"`
	ProductType string     `json:"product_type"`
	Handle      string     `json:"handle"`
}

type proxyListResponse struct {
	Success   bool           `json:"success"`
	Products  []proxyProduct `json:"products"`
	StoreID   string         `json:"store_id"`
	StoreName string         `json:"store_name"`
	Error     string         `json:"error"`
}

type proxySyncRequest struct {
	StoreID string `json:"store_id"`
}

type proxySyncResponse struct {
	Success *bool   `json:"success"`
	Synced  flexInt `json:"synced"`
	Error   string  `json:"error"`
}

func (p proxyProduct) toRemoteProduct() integration.RemoteProduct {
	return integration.RemoteProduct{
		ID:          string(p.ID),
		Title:       p.Title,
		Image:       p.Image,
		Price:       string(p.Price),
		SKU:         p.SKU,
		Inventory:   int(p.Inventory),
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Handle:      p.Handle,
	}
}
