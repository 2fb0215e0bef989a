package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
)

const (
	wooProductsPath = "/wp-json/wc/v3/products"
	wooOrdersPath   = "/wp-json/wc/v3/orders"

	// wooMaxPageSize is the largest per_page WooCommerce accepts
	wooMaxPageSize = 100
)

// Ladder attempt names
const (
	AttemptHTTPSQueryAuth  = "https-query-auth"
	AttemptHTTPQueryAuth   = "http-query-auth"
	AttemptBasicAuthHeader = "basic-auth-header"
)

// LadderAttempt is one way of authenticating against a WooCommerce REST API.
type LadderAttempt struct {
	Name string
	// Applies reports whether the attempt makes sense for the store; nil means always
	Applies func(creds integration.WooCredentials) bool
	// Build creates the request for path and query on the store's site
	Build func(ctx context.Context, creds integration.WooCredentials, path string, query url.Values) (*http.Request, error)
}

// DefaultLadder returns the WooCommerce fallback ladder:
// query-string auth over the stored https URL, the same over plain http
// (only for https sites), then an HTTP Basic Authorization header.
func DefaultLadder() []LadderAttempt {
	return []LadderAttempt{
		{
			Name:  AttemptHTTPSQueryAuth,
			Build: queryAuthRequest(""),
		},
		{
			Name: AttemptHTTPQueryAuth,
			Applies: func(creds integration.WooCredentials) bool {
				return integration.IsHTTPS(creds.SiteURL)
			},
			Build: queryAuthRequest("http"),
		},
		{
			Name:  AttemptBasicAuthHeader,
			Build: basicAuthRequest,
		},
	}
}

func siteEndpoint(siteURL, scheme, path string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimRight(siteURL, "/") + path)
	if err != nil {
		return "", fmt.Errorf("invalid site URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid site URL %q: missing host", siteURL)
	}
	if scheme != "" {
		u.Scheme = scheme
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func queryAuthRequest(scheme string) func(context.Context, integration.WooCredentials, string, url.Values) (*http.Request, error) {
	return func(ctx context.Context, creds integration.WooCredentials, path string, query url.Values) (*http.Request, error) {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("consumer_key", creds.ConsumerKey)
		q.Set("consumer_secret", creds.ConsumerSecret)

		endpoint, err := siteEndpoint(creds.SiteURL, scheme, path, q)
		if err != nil {
			return nil, err
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
}

func basicAuthRequest(ctx context.Context, creds integration.WooCredentials, path string, query url.Values) (*http.Request, error) {
	endpoint, err := siteEndpoint(creds.SiteURL, "", path, query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)
	return req, nil
}

// ---------------------------------------------------------------------------
// WooCommerceClient
// ---------------------------------------------------------------------------

// WooCommerceClient reads WooCommerce catalogs through the fallback ladder and creates orders.
// It implements integration.CatalogSource and integration.OrderGateway.
type WooCommerceClient struct {
	config     WooCommerceConfig
	ladder     []LadderAttempt
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.SyncMetrics
}

// WooCommerceOption configures a WooCommerceClient
type WooCommerceOption func(*WooCommerceClient)

// WithLadder replaces the default fallback ladder
func WithLadder(ladder []LadderAttempt) WooCommerceOption {
	return func(c *WooCommerceClient) {
		c.ladder = ladder
	}
}

// WithWooHTTPClient replaces the default traced http.Client
func WithWooHTTPClient(hc *http.Client) WooCommerceOption {
	return func(c *WooCommerceClient) {
		c.httpClient = hc
	}
}

// WithWooLogger sets the logger
func WithWooLogger(l *zap.Logger) WooCommerceOption {
	return func(c *WooCommerceClient) {
		c.logger = l
	}
}

// WithWooMetrics records ladder attempts on m
func WithWooMetrics(m *telemetry.SyncMetrics) WooCommerceOption {
	return func(c *WooCommerceClient) {
		c.metrics = m
	}
}

// NewWooCommerceClient creates a new WooCommerce client
func NewWooCommerceClient(cfg WooCommerceConfig, opts ...WooCommerceOption) *WooCommerceClient {
	cfg.applyDefaults()
	c := &WooCommerceClient{
		config: cfg,
		ladder: DefaultLadder(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		// per-call deadlines come from the attempt and order timeouts
		c.httpClient = NewHTTPClient(0)
	}
	return c
}

var (
	_ integration.CatalogSource = (*WooCommerceClient)(nil)
	_ integration.OrderGateway  = (*WooCommerceClient)(nil)
)

// Platform returns woocommerce
func (c *WooCommerceClient) Platform() integration.StoreType {
	return integration.StoreTypeWooCommerce
}

// ListProducts walks the ladder until one attempt returns a decodable product list.
// When every attempt fails the error is a *integration.RemoteFetchError.
func (c *WooCommerceClient) ListProducts(ctx context.Context, store *integration.Store, limit int) ([]integration.RemoteProduct, error) {
	creds, err := store.WooCredentials()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > wooMaxPageSize {
		limit = wooMaxPageSize
	}
	query := url.Values{
		"per_page": {strconv.Itoa(limit)},
		"status":   {"publish"},
	}

	fetchErr := &integration.RemoteFetchError{}
	for _, attempt := range c.ladder {
		if attempt.Applies != nil && !attempt.Applies(creds) {
			continue
		}

		products, err := c.tryAttempt(ctx, attempt, creds, query)
		c.metrics.RecordLadderAttempt(ctx, attempt.Name, err == nil)
		if err == nil {
			c.logger.Debug("woocommerce catalog fetched",
				zap.String("store_id", store.ID.String()),
				zap.String("attempt", attempt.Name),
				zap.Int("count", len(products)))
			return products, nil
		}

		c.logger.Info("woocommerce ladder attempt failed",
			zap.String("store_id", store.ID.String()),
			zap.String("attempt", attempt.Name),
			zap.Error(err))
		fetchErr.Attempts = append(fetchErr.Attempts, integration.AttemptError{Attempt: attempt.Name, Err: err})

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fetchErr
}

func (c *WooCommerceClient) tryAttempt(ctx context.Context, attempt LadderAttempt, creds integration.WooCredentials, query url.Values) ([]integration.RemoteProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "woocommerce.ladder_attempt",
		telemetry.WithAttribute(telemetry.SpanAttrAttempt, attempt.Name))
	defer span.End()

	products, err := c.fetchProducts(ctx, attempt, creds, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(products))
	return products, nil
}

func (c *WooCommerceClient) fetchProducts(ctx context.Context, attempt LadderAttempt, creds integration.WooCredentials, query url.Values) ([]integration.RemoteProduct, error) {
	req, err := attempt.Build(ctx, creds, wooProductsPath, query)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, redactURLError(err))
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	var raw []WooProduct
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	products := make([]integration.RemoteProduct, 0, len(raw))
	for _, p := range raw {
		products = append(products, p.ToRemoteProduct())
	}
	return products, nil
}

// CreateOrder posts order to the store and returns the WooCommerce order id.
// idempotencyKey is sent as the Idempotency-Key header.
func (c *WooCommerceClient) CreateOrder(ctx context.Context, creds integration.WooCredentials, order integration.RemoteOrder, idempotencyKey string) (string, error) {
	if !creds.Complete() {
		return "", integration.ErrConfiguration
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.OrderTimeout)
	defer cancel()

	payload, err := json.Marshal(wooOrderPayload(order))
	if err != nil {
		return "", fmt.Errorf("woocommerce: failed to marshal order: %w", err)
	}

	endpoint, err := siteEndpoint(creds.SiteURL, "", wooOrdersPath, nil)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, redactURLError(err))
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: HTTP %d", integration.ErrPlatformUnavailable, resp.StatusCode)
	case !isSuccess(resp.StatusCode):
		var wooErr WooErrorResponse
		if json.Unmarshal(body, &wooErr) == nil && wooErr.Message != "" {
			return "", fmt.Errorf("%w: HTTP %d: %s (%s)", integration.ErrPlatformRequestFailed, resp.StatusCode, wooErr.Message, wooErr.Code)
		}
		return "", fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}

	var created WooOrderResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if created.ID == "" || created.ID == "0" {
		return "", fmt.Errorf("%w: order id missing", integration.ErrPlatformInvalidResponse)
	}
	return string(created.ID), nil
}

// wooOrderLineItem sends numeric product ids when possible, since that is what WooCommerce stores
type wooOrderLineItem struct {
	ProductID any `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type wooOrder struct {
	Billing   integration.RemoteBilling `json:"billing"`
	LineItems []wooOrderLineItem        `json:"line_items"`
	SetPaid   bool                      `json:"set_paid"`
}

func wooOrderPayload(order integration.RemoteOrder) wooOrder {
	out := wooOrder{
		Billing:   order.Billing,
		LineItems: make([]wooOrderLineItem, len(order.LineItems)),
		SetPaid:   order.SetPaid,
	}
	for i, item := range order.LineItems {
		var id any = item.ProductID
		if n, err := strconv.ParseInt(item.ProductID, 10, 64); err == nil {
			id = n
		}
		out.LineItems[i] = wooOrderLineItem{ProductID: id, Quantity: item.Quantity}
	}
	return out
}

// redactURLError drops the request URL from transport errors so that
// query-string credentials never reach logs or responses.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
