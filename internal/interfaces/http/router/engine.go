package router

import (
	"fmt"
	"slices"

	"github.com/brandlive/storesync/internal/infrastructure/config"
	"github.com/brandlive/storesync/internal/infrastructure/logger"
	"github.com/brandlive/storesync/internal/interfaces/http/handler"
	"github.com/brandlive/storesync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Stores  *handler.StoreHandler
	Catalog *handler.CatalogHandler
	Orders  *handler.OrderHandler
	Health  *handler.HealthHandler
}

// Options configures the engine built by NewEngine
type Options struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter enables HTTP request metrics when set
	Meter metric.Meter
	// ConnectLimiter guards the credential endpoints when set
	ConnectLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the global middleware chain and every route
func NewEngine(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(logger.Recovery(log), middleware.RequestID())
	engine.Use(middleware.Tracing(opts.Tracing)...)
	if opts.Meter != nil {
		metrics, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
		}
		engine.Use(metrics)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	engine.Use(
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine)
	for _, group := range apiGroups(h, opts.ConnectLimiter) {
		r.Register(group)
	}
	r.Setup()

	return engine, nil
}

func apiGroups(h Handlers, limiter *middleware.RateLimiter) []*ResourceGroup {
	var limited []gin.HandlerFunc
	if limiter != nil {
		limited = []gin.HandlerFunc{middleware.RateLimit(limiter)}
	}
	guard := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clip(limited), fn)
	}

	var groups []*ResourceGroup
	if h.Stores != nil {
		groups = append(groups,
			NewResourceGroup("stores", "/stores").
				POST("/woocommerce/connect", guard(h.Stores.ConnectWooCommerce)...).
				POST("/shopify/connect", guard(h.Stores.ConnectShopify)...).
				POST("/shopify/oauth/complete", guard(h.Stores.CompleteShopifyOAuth)...).
				DELETE("/:id", h.Stores.Disconnect),
			NewResourceGroup("brands", "/brands").
				GET("/:brand_id/store-status", h.Stores.GetStatus),
		)
	}
	if h.Catalog != nil {
		groups = append(groups,
			NewResourceGroup("catalog", "/catalog").
				GET("/remote-products", h.Catalog.ListRemoteProducts),
			NewResourceGroup("store-sync", "/stores").
				POST("/:id/imports", h.Catalog.ImportSelected).
				POST("/:id/sync", h.Catalog.TriggerProxySync).
				POST("/:id/inventory-sync", h.Catalog.SyncInventory).
				GET("/:id/sync-logs", h.Catalog.ListSyncLogs),
		)
	}
	if h.Orders != nil {
		groups = append(groups,
			NewResourceGroup("orders", "/orders").
				POST("/:id/publish", h.Orders.Publish),
		)
	}
	return groups
}
