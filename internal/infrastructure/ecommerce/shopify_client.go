package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"go.uber.org/zap"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
)

// ShopifyClient lists Shopify catalogs through the Admin API and exchanges OAuth codes.
// It implements integration.CatalogSource and integration.OAuthExchanger.
type ShopifyClient struct {
	config     ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// ShopifyOption configures a ShopifyClient
type ShopifyOption func(*ShopifyClient)

// WithShopifyHTTPClient replaces the default traced http.Client
func WithShopifyHTTPClient(hc *http.Client) ShopifyOption {
	return func(c *ShopifyClient) {
		c.httpClient = hc
	}
}

// WithShopifyLogger sets the logger
func WithShopifyLogger(l *zap.Logger) ShopifyOption {
	return func(c *ShopifyClient) {
		c.logger = l
	}
}

// NewShopifyClient creates a new Shopify client
func NewShopifyClient(cfg ShopifyConfig, opts ...ShopifyOption) *ShopifyClient {
	cfg.applyDefaults()
	c := &ShopifyClient{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg.Timeout)
	}
	return c
}

var (
	_ integration.CatalogSource  = (*ShopifyClient)(nil)
	_ integration.OAuthExchanger = (*ShopifyClient)(nil)
)

// Platform returns shopify
func (c *ShopifyClient) Platform() integration.StoreType {
	return integration.StoreTypeShopify
}

func (c *ShopifyClient) app() goshopify.App {
	return goshopify.App{
		ApiKey:    c.config.APIKey,
		ApiSecret: c.config.APISecret,
	}
}

func (c *ShopifyClient) newClient(shop, token string) (*goshopify.Client, error) {
	opts := []goshopify.Option{goshopify.WithHTTPClient(c.httpClient)}
	if c.config.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.config.APIVersion))
	}
	client, err := goshopify.NewClient(c.app(), shop, token, opts...)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create client: %w", err)
	}
	return client, nil
}

// ListProducts lists products with the store's access token
func (c *ShopifyClient) ListProducts(ctx context.Context, store *integration.Store, limit int) ([]integration.RemoteProduct, error) {
	creds, err := store.ShopifyCredentials()
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "shopify.list_products",
		telemetry.WithAttribute(telemetry.SpanAttrStoreID, store.ID.String()))
	defer span.End()

	client, err := c.newClient(creds.ShopDomain, creds.AccessToken)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	opts := goshopify.ListOptions{}
	if limit > 0 {
		opts.Limit = limit
	}
	products, err := client.Product.List(ctx, opts)
	if err != nil {
		err = classifyShopifyError(err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	out := make([]integration.RemoteProduct, 0, len(products))
	for _, p := range products {
		out = append(out, shopifyToRemoteProduct(p))
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(out))
	c.logger.Debug("shopify catalog fetched",
		zap.String("store_id", store.ID.String()),
		zap.Int("count", len(out)))
	return out, nil
}

// ExchangeToken trades an OAuth authorization code for a permanent access token
func (c *ShopifyClient) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	if err := c.config.ValidateOAuth(); err != nil {
		return "", fmt.Errorf("%w: %w", integration.ErrConfiguration, err)
	}

	ctx, span := telemetry.StartSpan(ctx, "shopify.exchange_token")
	defer span.End()

	client, err := c.newClient(shop, "")
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}
	app := c.app()
	app.Client = client

	token, err := app.GetAccessToken(ctx, shop, code)
	if err != nil {
		err = classifyShopifyError(err)
		telemetry.RecordError(span, err)
		return "", err
	}
	if token == "" {
		err := fmt.Errorf("%w: empty access token", integration.ErrPlatformInvalidResponse)
		telemetry.RecordError(span, err)
		return "", err
	}
	return token, nil
}

// classifyShopifyError maps go-shopify errors onto the platform error sentinels
func classifyShopifyError(err error) error {
	var rateErr goshopify.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: rate limited, retry after %ds", integration.ErrPlatformUnavailable, rateErr.RetryAfter)
	}
	var respErr goshopify.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.Status
		if status == http.StatusTooManyRequests || status >= 500 {
			return fmt.Errorf("%w: HTTP %d", integration.ErrPlatformUnavailable, status)
		}
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformRequestFailed, status, respErr.Error())
	}
	return fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
}

func shopifyToRemoteProduct(p goshopify.Product) integration.RemoteProduct {
	remote := integration.RemoteProduct{
		ID:          strconv.FormatUint(p.Id, 10),
		Title:       p.Title,
		Image:       p.Image.Src,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Handle:      p.Handle,
	}
	if remote.Image == "" && len(p.Images) > 0 {
		remote.Image = p.Images[0].Src
	}
	if len(p.Variants) > 0 {
		first := p.Variants[0]
		remote.SKU = first.Sku
		if first.Price != nil {
			remote.Price = first.Price.String()
		}
	}
	for _, v := range p.Variants {
		remote.Inventory += v.InventoryQuantity
	}
	return remote
}
