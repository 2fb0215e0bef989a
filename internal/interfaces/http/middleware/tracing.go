package middleware

import (
	"net/http"

	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider, mostly for tests
	TracerProvider trace.TracerProvider
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "storesync",
		Enabled:     true,
	}
}

// Tracing returns the request tracing chain: the otelgin span, then the
// span attribute injector and error marker running inside it.
//
// Span names follow "HTTP METHOD route" (e.g. "GET /api/v1/stores/:id/sync-logs").
func Tracing(cfg TracingConfig) []gin.HandlerFunc {
	if !cfg.Enabled {
		return []gin.HandlerFunc{func(c *gin.Context) { c.Next() }}
	}

	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}

	return []gin.HandlerFunc{
		otelgin.Middleware(cfg.ServiceName, opts...),
		TracingAttributeInjector(),
		SpanErrorMarker(),
	}
}

// TracingAttributeInjector copies request identifiers onto the current span.
// brand_id and store_id come from path params or query strings and are only
// recorded when they parse as UUIDs.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}
		c.Next()
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if brandID := uuidParam(c, "brand_id"); brandID != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrBrandID, brandID))
	}
	if storeID := uuidParam(c, "store_id"); storeID != "" {
		span.SetAttributes(attribute.String(telemetry.SpanAttrStoreID, storeID))
	}
}

// uuidParam reads a path param, then the query string. Values that are not
// UUIDs are dropped so arbitrary client input never reaches trace storage.
func uuidParam(c *gin.Context, name string) string {
	value := c.Param(name)
	if value == "" {
		value = c.Query(name)
	}
	if value == "" {
		return ""
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return ""
	}
	return id.String()
}

// SpanErrorMarker marks the span as failed for 5xx responses and records the
// status of every error response.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			msg := http.StatusText(status)
			if len(c.Errors) > 0 {
				msg = c.Errors.Last().Error()
			}
			span.SetStatus(codes.Error, msg)
		}
	}
}
