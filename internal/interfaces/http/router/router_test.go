package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brandlive/storesync/internal/infrastructure/config"
	"github.com/brandlive/storesync/internal/interfaces/http/handler"
	"github.com/brandlive/storesync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.version)
	assert.Empty(t, r.mounts)

	r = NewRouter(gin.New(), WithVersion("v2"))
	assert.Equal(t, "v2", r.version)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithVersion("v1"))

	group := NewResourceGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestResourceGroupMiddleware(t *testing.T) {
	engine := gin.New()
	var calls int

	group := NewResourceGroup("guarded", "/guarded").
		Use(func(c *gin.Context) {
			calls++
			c.Next()
		}).
		POST("/a", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		DELETE("/b", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	NewRouter(engine).Register(group).Setup()

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/v1/guarded/a", http.StatusCreated},
		{http.MethodDelete, "/api/v1/guarded/b", http.StatusNoContent},
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, w.Code)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, "guarded", group.Name())
	assert.Equal(t, "/guarded", group.Prefix())
}

func allHandlers() Handlers {
	return Handlers{
		Stores:  handler.NewStoreHandler(nil),
		Catalog: handler.NewCatalogHandler(nil, nil),
		Orders:  handler.NewOrderHandler(nil),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": func(context.Context) error { return nil },
		}, time.Second, nil),
	}
}

func newTestOptions(t *testing.T) Options {
	return Options{
		Logger: zaptest.NewLogger(t),
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"https://admin.example.com"},
		},
		Tracing: middleware.TracingConfig{
			ServiceName:    "storesync-test",
			Enabled:        true,
			TracerProvider: sdktrace.NewTracerProvider(),
		},
	}
}

func TestNewEngine_Routes(t *testing.T) {
	engine, err := NewEngine(newTestOptions(t), allHandlers())
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, route := range engine.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"POST /api/v1/stores/woocommerce/connect",
		"POST /api/v1/stores/shopify/connect",
		"POST /api/v1/stores/shopify/oauth/complete",
		"DELETE /api/v1/stores/:id",
		"POST /api/v1/stores/:id/imports",
		"POST /api/v1/stores/:id/sync",
		"POST /api/v1/stores/:id/inventory-sync",
		"GET /api/v1/stores/:id/sync-logs",
		"GET /api/v1/brands/:brand_id/store-status",
		"GET /api/v1/catalog/remote-products",
		"POST /api/v1/orders/:id/publish",
	} {
		assert.True(t, registered[want], "route %s is not registered", want)
	}
}

func TestNewEngine_SkipsMissingHandlers(t *testing.T) {
	engine, err := NewEngine(newTestOptions(t), Handlers{})
	require.NoError(t, err)
	assert.Empty(t, engine.Routes())
}

func TestNewEngine_GlobalMiddleware(t *testing.T) {
	engine, err := NewEngine(newTestOptions(t), allHandlers())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	opts := newTestOptions(t)
	opts.HTTP.MaxBodySize = 16
	engine, err := NewEngine(opts, allHandlers())
	require.NoError(t, err)

	body := strings.NewReader(`{"brand_id":"` + strings.Repeat("x", 64) + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/woocommerce/connect", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_ConnectRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	opts := newTestOptions(t)
	opts.ConnectLimiter = limiter
	engine, err := NewEngine(opts, allHandlers())
	require.NoError(t, err)

	connect := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/woocommerce/connect", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	// the empty body fails validation before any service call
	assert.Equal(t, http.StatusBadRequest, connect())
	assert.Equal(t, http.StatusTooManyRequests, connect())

	// status reads are not limited
	for range 3 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/brands/not-a-uuid/store-status", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestNewEngine_HTTPMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	opts := newTestOptions(t)
	opts.Meter = provider.Meter("router-test")
	engine, err := NewEngine(opts, allHandlers())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	var names []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names = append(names, m.Name)
		}
	}
	assert.Contains(t, names, "http_server_request_total")
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	opts := newTestOptions(t)
	opts.HTTP.TrustedProxies = []string{"not-an-ip"}

	_, err := NewEngine(opts, allHandlers())
	assert.Error(t, err)
}
