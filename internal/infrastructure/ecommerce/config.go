package ecommerce

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ProxyConfig holds configuration for the trusted catalog proxy functions
type ProxyConfig struct {
	// BaseURL is the functions endpoint, e.g. https://xyz.functions.example.com/v1
	BaseURL string
	// ServiceKey is sent as a bearer token on every call
	ServiceKey string
	// ListFunction is the name of the remote product listing function
	ListFunction string
	// SyncFunction is the name of the catalog sync trigger function
	SyncFunction string
	// Timeout bounds each proxy call
	Timeout time.Duration
}

// WooCommerceConfig holds settings shared by all WooCommerce stores
type WooCommerceConfig struct {
	// AttemptTimeout bounds each fallback ladder attempt
	AttemptTimeout time.Duration
	// OrderTimeout bounds the order creation call
	OrderTimeout time.Duration
}

// ShopifyConfig holds the Shopify app credentials
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	APIVersion string
	// Timeout bounds every Admin API call
	Timeout time.Duration
}

const (
	// DefaultProxyListFunction is the listing function name used when none is configured
	DefaultProxyListFunction = "woocommerce-products"
	// DefaultProxySyncFunction is the sync function name used when none is configured
	DefaultProxySyncFunction = "sync-woocommerce"

	defaultProxyTimeout   = 15 * time.Second
	defaultAttemptTimeout = 8 * time.Second
	defaultOrderTimeout   = 20 * time.Second
	defaultShopifyTimeout = 15 * time.Second

	// maxResponseSize caps how much of a remote body is read
	maxResponseSize = 10 * 1024 * 1024
)

// Errors for adapter configuration
var (
	ErrProxyConfigMissingBaseURL    = errors.New("proxy: base URL is required")
	ErrProxyConfigInvalidBaseURL    = errors.New("proxy: base URL must be an absolute http(s) URL")
	ErrProxyConfigMissingServiceKey = errors.New("proxy: service key is required")
	ErrShopifyConfigMissingAPIKey   = errors.New("shopify: api key is required")
	ErrShopifyConfigMissingSecret   = errors.New("shopify: api secret is required")
)

// Validate validates the proxy configuration
func (c *ProxyConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrProxyConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrProxyConfigInvalidBaseURL
	}
	if c.ServiceKey == "" {
		return ErrProxyConfigMissingServiceKey
	}
	return nil
}

func (c *ProxyConfig) applyDefaults() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.ListFunction == "" {
		c.ListFunction = DefaultProxyListFunction
	}
	if c.SyncFunction == "" {
		c.SyncFunction = DefaultProxySyncFunction
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultProxyTimeout
	}
}

func (c *WooCommerceConfig) applyDefaults() {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	if c.OrderTimeout <= 0 {
		c.OrderTimeout = defaultOrderTimeout
	}
}

// ValidateOAuth checks the app credentials needed for the OAuth code exchange
func (c *ShopifyConfig) ValidateOAuth() error {
	if c.APIKey == "" {
		return ErrShopifyConfigMissingAPIKey
	}
	if c.APISecret == "" {
		return ErrShopifyConfigMissingSecret
	}
	return nil
}

func (c *ShopifyConfig) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultShopifyTimeout
	}
}
