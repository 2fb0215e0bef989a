package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
)

// ProxyClient calls the trusted server-side functions that fetch remote catalogs
// on behalf of the service. It implements integration.CatalogProxy.
type ProxyClient struct {
	config     ProxyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// ProxyOption configures a ProxyClient
type ProxyOption func(*ProxyClient)

// WithProxyHTTPClient replaces the default traced http.Client
func WithProxyHTTPClient(c *http.Client) ProxyOption {
	return func(p *ProxyClient) {
		p.httpClient = c
	}
}

// WithProxyLogger sets the logger
func WithProxyLogger(l *zap.Logger) ProxyOption {
	return func(p *ProxyClient) {
		p.logger = l
	}
}

// NewProxyClient creates a new proxy client
func NewProxyClient(cfg ProxyConfig, opts ...ProxyOption) (*ProxyClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	c := &ProxyClient{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(cfg.Timeout)
	}
	return c, nil
}

var _ integration.CatalogProxy = (*ProxyClient)(nil)

// ListProducts calls the listing function
func (c *ProxyClient) ListProducts(ctx context.Context, req integration.ProxyListRequest) (*integration.RemoteCatalog, error) {
	ctx, span := telemetry.StartSpan(ctx, "proxy.list_products",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrSource, string(integration.CatalogOriginProxy)))
	defer span.End()

	body, err := c.call(ctx, c.config.ListFunction, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp proxyListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		err = fmt.Errorf("%w: undecodable listing response: %v", integration.ErrProxyUnavailable, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !resp.Success {
		err := fmt.Errorf("%w: %s", integration.ErrProxyRejected, messageOr(resp.Error, "listing function reported failure"))
		telemetry.RecordError(span, err)
		return nil, err
	}

	catalog := &integration.RemoteCatalog{
		Success:   true,
		Products:  make([]integration.RemoteProduct, 0, len(resp.Products)),
		StoreName: resp.StoreName,
		Source:    integration.CatalogOriginProxy,
	}
	if id, err := uuid.Parse(resp.StoreID); err == nil {
		catalog.StoreID = id
	} else if req.StoreID != nil {
		catalog.StoreID = *req.StoreID
	}
	for _, p := range resp.Products {
		catalog.Products = append(catalog.Products, p.toRemoteProduct())
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(catalog.Products))
	return catalog, nil
}

// TriggerSync calls the sync function and returns how many products it synced
func (c *ProxyClient) TriggerSync(ctx context.Context, storeID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "proxy.trigger_sync",
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrStoreID, storeID.String()))
	defer span.End()

	body, err := c.call(ctx, c.config.SyncFunction, proxySyncRequest{StoreID: storeID.String()})
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	var resp proxySyncResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		err = fmt.Errorf("%w: undecodable sync response: %v", integration.ErrProxyUnavailable, err)
		telemetry.RecordError(span, err)
		return 0, err
	}
	if resp.Success != nil && !*resp.Success {
		err := fmt.Errorf("%w: %s", integration.ErrProxyRejected, messageOr(resp.Error, "sync function reported failure"))
		telemetry.RecordError(span, err)
		return 0, err
	}
	return int(resp.Synced), nil
}

// call POSTs payload to the named function. The returned error wraps
// ErrProxyUnavailable or ErrProxyRejected.
func (c *ProxyClient) call(ctx context.Context, function string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("proxy: failed to marshal request: %w", err)
	}

	endpoint := c.config.BaseURL + "/" + strings.TrimLeft(function, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProxyUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", integration.ErrProxyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProxyUnavailable, err)
	}

	if !isSuccess(resp.StatusCode) {
		c.logger.Debug("proxy function returned an error status",
			zap.String("function", function),
			zap.Int("status", resp.StatusCode))
		if proxyUnavailableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: HTTP %d", integration.ErrProxyUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", integration.ErrProxyRejected, resp.StatusCode, proxyErrorMessage(body))
	}
	return body, nil
}

// proxyUnavailableStatus reports statuses meaning the function is not deployed or not reachable
func proxyUnavailableStatus(status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func proxyErrorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return truncate(bytes.TrimSpace(body), 200)
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
