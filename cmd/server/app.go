package main

import (
	"context"
	"fmt"
	"time"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/brandlive/storesync/internal/infrastructure/cache"
	"github.com/brandlive/storesync/internal/infrastructure/config"
	"github.com/brandlive/storesync/internal/infrastructure/ecommerce"
	"github.com/brandlive/storesync/internal/infrastructure/logger"
	"github.com/brandlive/storesync/internal/infrastructure/persistence"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
	"github.com/brandlive/storesync/internal/interfaces/http/handler"
	"github.com/brandlive/storesync/internal/interfaces/http/middleware"
	"github.com/brandlive/storesync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

// application owns every long-lived component of the process
type application struct {
	engine  *gin.Engine
	logger  *zap.Logger
	db      *persistence.Database
	locker  shared.KeyedLocker
	limiter *middleware.RateLimiter
	tracer  *telemetry.TracerProvider
	meter   *telemetry.MeterProvider
}

func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (a *application, err error) {
	a = &application{logger: log}
	defer func() {
		if err != nil {
			a.close(ctx)
		}
	}()

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	a.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	a.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		ServiceVersion:    serviceVersion,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("meter provider: %w", err)
	}
	meter := a.meter.Meter(telemetry.TracerName)

	syncMetrics, err := telemetry.NewSyncMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("sync metrics: %w", err)
	}

	a.db, err = openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a.locker, err = cache.NewLockerFactory(cfg.Redis, cache.WithLogger(log)).CreateLocker()
	if err != nil {
		return nil, fmt.Errorf("locker: %w", err)
	}

	stores := persistence.NewGormStoreRepository(a.db.DB)
	products := persistence.NewGormProductRepository(a.db.DB)
	syncLogs := persistence.NewGormSyncLogRepository(a.db.DB)
	orders := persistence.NewGormOrderRepository(a.db.DB)

	woo := ecommerce.NewWooCommerceClient(ecommerce.WooCommerceConfig{
		AttemptTimeout: cfg.Integration.AttemptTimeout,
	}, ecommerce.WithWooLogger(log), ecommerce.WithWooMetrics(syncMetrics))

	shopifyCfg := ecommerce.ShopifyConfig{
		APIKey:     cfg.Integration.ShopifyAPIKey,
		APISecret:  cfg.Integration.ShopifyAPISecret,
		APIVersion: cfg.Integration.ShopifyAPIVersion,
	}
	shopify := ecommerce.NewShopifyClient(shopifyCfg, ecommerce.WithShopifyLogger(log))

	var oauth integration.OAuthExchanger
	if err := shopifyCfg.ValidateOAuth(); err != nil {
		log.Warn("Shopify OAuth disabled", zap.Error(err))
	} else {
		oauth = shopify
	}

	catalogOpts := []app.CatalogOption{app.WithCatalogMetrics(syncMetrics)}
	if cfg.Integration.ProxyEnabled() {
		proxy, err := ecommerce.NewProxyClient(ecommerce.ProxyConfig{
			BaseURL:      cfg.Integration.ProxyBaseURL,
			ServiceKey:   cfg.Integration.ProxyServiceKey,
			ListFunction: cfg.Integration.ProxyListFunction,
			SyncFunction: cfg.Integration.ProxySyncFunction,
			Timeout:      cfg.Integration.ProxyTimeout,
		}, ecommerce.WithProxyLogger(log))
		if err != nil {
			return nil, fmt.Errorf("catalog proxy: %w", err)
		}
		catalogOpts = append(catalogOpts, app.WithCatalogProxy(proxy))
	}

	orchestrator := app.NewSyncOrchestrator(syncLogs, a.locker, app.SyncOrchestratorConfig{
		LockTTL:    cfg.Integration.LockTTL,
		StaleAfter: cfg.Integration.StaleSyncAfter,
	}, syncMetrics, log)

	connections := app.NewConnectionService(stores, products, syncLogs, oauth, app.ConnectionServiceConfig{
		StatusTimeout: cfg.Integration.StatusTimeout,
	}, log)

	catalog := app.NewCatalogService(
		stores, products, orchestrator,
		[]integration.CatalogSource{woo, shopify},
		app.CatalogServiceConfig{
			DefaultLimit: cfg.Integration.DefaultLimit,
			MaxLimit:     cfg.Integration.MaxLimit,
		},
		log,
		catalogOpts...,
	)

	publisher := app.NewOrderPublisher(orders, products, stores, woo, a.locker, orchestrator, cfg.Integration.LockTTL, log)

	a.limiter = middleware.NewRateLimiter(cfg.HTTP.ConnectRateLimit, cfg.HTTP.ConnectRateWindow)

	tracing := middleware.DefaultTracingConfig()
	tracing.ServiceName = serviceName
	tracing.Enabled = a.tracer.IsEnabled()

	opts := router.Options{
		Logger:         log,
		HTTP:           cfg.HTTP,
		Tracing:        tracing,
		ConnectLimiter: a.limiter,
	}
	if cfg.Telemetry.MetricsEnabled {
		opts.Meter = meter
	}

	a.engine, err = router.NewEngine(opts, router.Handlers{
		Stores:  handler.NewStoreHandler(connections),
		Catalog: handler.NewCatalogHandler(catalog, orchestrator),
		Orders:  handler.NewOrderHandler(publisher),
		Health:  handler.NewHealthHandler(a.healthChecks(), 2*time.Second, log),
	})
	if err != nil {
		return nil, fmt.Errorf("http engine: %w", err)
	}

	return a, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLevel := cfg.Log.GormLevel
	if gormLevel == "" {
		gormLevel = cfg.Log.Level
	}
	opts := []persistence.DatabaseOption{
		persistence.WithGormLogger(logger.NewGormLogger(log, logger.MapGormLogLevel(gormLevel),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))),
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.DBName = cfg.Database.DBName
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		opts = append(opts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracingCfg, log)))
	}

	db, err := persistence.NewDatabase(&cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Info("Database connected successfully")

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Database schema migrated")
	}
	return db, nil
}

func (a *application) healthChecks() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"database": a.db.Ping,
	}
	if rl, ok := a.locker.(*cache.RedisLocker); ok {
		checks["redis"] = func(ctx context.Context) error {
			return rl.GetClient().Ping(ctx).Err()
		}
	}
	return checks
}

// close releases everything newApplication opened, in reverse order
func (a *application) close(ctx context.Context) {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.locker != nil {
		if err := a.locker.Close(); err != nil {
			a.logger.Error("Error closing locker", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing database", zap.Error(err))
		}
	}
	if a.meter != nil {
		if err := a.meter.Shutdown(ctx); err != nil {
			a.logger.Error("Error shutting down meter provider", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
}
