package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogServiceConfig holds remote catalog settings
type CatalogServiceConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultCatalogServiceConfig returns the default listing limits
func DefaultCatalogServiceConfig() CatalogServiceConfig {
	return CatalogServiceConfig{DefaultLimit: 50, MaxLimit: 100}
}

// CatalogService lists remote catalogs and imports selected products.
type CatalogService struct {
	stores       integration.StoreRepository
	products     integration.ProductRepository
	orchestrator *SyncOrchestrator
	sources      map[integration.StoreType]integration.CatalogSource
	proxy        integration.CatalogProxy
	config       CatalogServiceConfig
	metrics      *telemetry.SyncMetrics
	logger       *zap.Logger
}

// CatalogOption configures a CatalogService
type CatalogOption func(*CatalogService)

// WithCatalogProxy makes the service try the trusted proxy before the direct sources
func WithCatalogProxy(proxy integration.CatalogProxy) CatalogOption {
	return func(s *CatalogService) {
		s.proxy = proxy
	}
}

// WithCatalogMetrics records fetch and import metrics
func WithCatalogMetrics(m *telemetry.SyncMetrics) CatalogOption {
	return func(s *CatalogService) {
		s.metrics = m
	}
}

// NewCatalogService creates a new CatalogService. sources are keyed by their Platform.
func NewCatalogService(
	stores integration.StoreRepository,
	products integration.ProductRepository,
	orchestrator *SyncOrchestrator,
	sources []integration.CatalogSource,
	cfg CatalogServiceConfig,
	logger *zap.Logger,
	opts ...CatalogOption,
) *CatalogService {
	defaults := DefaultCatalogServiceConfig()
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = defaults.MaxLimit
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(defaults.DefaultLimit, cfg.MaxLimit)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &CatalogService{
		stores:       stores,
		products:     products,
		orchestrator: orchestrator,
		sources:      make(map[integration.StoreType]integration.CatalogSource, len(sources)),
		config:       cfg,
		logger:       logger,
	}
	for _, src := range sources {
		s.sources[src.Platform()] = src
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CatalogService) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.config.DefaultLimit
	case limit > s.config.MaxLimit:
		return s.config.MaxLimit
	default:
		return limit
	}
}

// ---------------------------------------------------------------------------
// Remote catalog
// ---------------------------------------------------------------------------

// ListRemoteProducts lists the remote catalog of a store, proxy first and direct fetch second,
// with every product tagged AlreadyImported against the local catalog.
func (s *CatalogService) ListRemoteProducts(ctx context.Context, in ListRemoteProductsInput) (*integration.RemoteCatalog, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.list_remote_products")
	defer span.End()

	platform := in.Platform
	if platform == "" {
		platform = integration.StoreTypeWooCommerce
	}
	if !platform.IsValid() {
		return nil, integration.ErrInvalidStoreType
	}

	store, err := s.resolveStore(ctx, in.StoreID, in.BrandID, platform)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrStoreID, store.ID.String(),
		telemetry.SpanAttrStoreType, string(store.StoreType))

	if store.StoreType != platform {
		return nil, fmt.Errorf("%w: store %s is %s, not %s", integration.ErrCredential, store.ID, store.StoreType, platform)
	}
	if !store.HasCompleteCredentials() {
		return nil, fmt.Errorf("%w: store %s has incomplete %s credentials", integration.ErrCredential, store.ID, store.StoreType)
	}

	catalog, err := s.fetchCatalog(ctx, store, in.BrandID, s.clampLimit(in.Limit))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	tagged, err := s.TagAlreadyImported(ctx, store.ID, catalog.Products)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	catalog.Products = tagged
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSource, string(catalog.Source),
		telemetry.SpanAttrCount, len(tagged))
	return catalog, nil
}

func (s *CatalogService) resolveStore(ctx context.Context, storeID, brandID *uuid.UUID, platform integration.StoreType) (*integration.Store, error) {
	switch {
	case storeID != nil && *storeID != uuid.Nil:
		return s.stores.FindByID(ctx, *storeID)
	case brandID != nil && *brandID != uuid.Nil:
		return s.stores.FindByBrandAndType(ctx, *brandID, platform)
	default:
		return nil, integration.ErrStoreSelectorNone
	}
}

// fetchCatalog tries the proxy and falls back to the direct source only when the proxy
// could not be reached. An application error from a reachable proxy is final.
func (s *CatalogService) fetchCatalog(ctx context.Context, store *integration.Store, brandID *uuid.UUID, limit int) (*integration.RemoteCatalog, error) {
	if s.proxy != nil && store.StoreType == integration.StoreTypeWooCommerce {
		storeID := store.ID
		catalog, err := s.proxy.ListProducts(ctx, integration.ProxyListRequest{
			StoreID: &storeID,
			BrandID: brandID,
			Limit:   limit,
		})
		switch {
		case err == nil:
			if catalog.StoreID == uuid.Nil {
				catalog.StoreID = store.ID
			}
			if catalog.StoreName == "" {
				catalog.StoreName = store.Name
			}
			catalog.Source = integration.CatalogOriginProxy
			s.metrics.RecordCatalogFetch(ctx, string(store.StoreType), string(catalog.Source))
			return catalog, nil
		case errors.Is(err, integration.ErrProxyUnavailable):
			s.logger.Info("catalog proxy unavailable, fetching directly",
				zap.String("store_id", store.ID.String()),
				zap.Error(err))
		default:
			return nil, err
		}
	}

	source, ok := s.sources[store.StoreType]
	if !ok {
		return nil, fmt.Errorf("%w: no catalog source for %s stores", integration.ErrConfiguration, store.StoreType)
	}
	products, err := source.ListProducts(ctx, store, limit)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordCatalogFetch(ctx, string(store.StoreType), string(integration.CatalogOriginDirect))

	return &integration.RemoteCatalog{
		Success:   true,
		Products:  products,
		StoreID:   store.ID,
		StoreName: store.Name,
		Source:    integration.CatalogOriginDirect,
	}, nil
}

// TagAlreadyImported marks the products whose id is already imported into the store
func (s *CatalogService) TagAlreadyImported(ctx context.Context, storeID uuid.UUID, products []integration.RemoteProduct) ([]integration.RemoteProduct, error) {
	existing, err := s.products.ExternalIDsByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load imported product ids: %w", err)
	}
	return integration.TagAlreadyImported(existing, products), nil
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// ImportSelected inserts the selected remote products into the store's catalog, one row at a time.
// Failed rows are reported in the result and do not stop the batch; the call only fails when the
// batch could not run at all. Use ImportResult.Err for a PartialImportError.
func (s *CatalogService) ImportSelected(ctx context.Context, storeID uuid.UUID, selected []integration.RemoteProduct) (*ImportResult, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	var result *ImportResult
	_, err = s.orchestrator.RunSync(ctx, store.ID, integration.SyncTypeProducts, func(ctx context.Context) (string, error) {
		r, err := s.importSelected(ctx, store, selected)
		if err != nil {
			return "", err
		}
		result = r
		if r.Status == integration.SyncStatusFailed {
			return "", r.Err()
		}
		return r.Summary(), nil
	})
	if result != nil {
		return result, nil
	}
	return nil, err
}

func (s *CatalogService) importSelected(ctx context.Context, store *integration.Store, selected []integration.RemoteProduct) (*ImportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.import_selected",
		telemetry.WithAttribute(telemetry.SpanAttrStoreID, store.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCount, len(selected)))
	defer span.End()

	existing, err := s.products.ExternalIDsByStore(ctx, store.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load imported product ids: %w", err)
	}

	result := &ImportResult{
		PerItemErrors: []integration.ItemError{},
		attempted:     len(selected),
	}
	for _, remote := range selected {
		id := strings.TrimSpace(remote.ID)
		if _, ok := existing[id]; ok && id != "" {
			result.SkippedCount++
			continue
		}

		product, err := integration.NewImportedProduct(store, remote)
		if err != nil {
			result.PerItemErrors = append(result.PerItemErrors, itemError(remote, err))
			continue
		}
		if err := s.products.Create(ctx, product); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				// imported concurrently
				result.SkippedCount++
				existing[id] = struct{}{}
				continue
			}
			s.logger.Warn("failed to import product",
				zap.String("store_id", store.ID.String()),
				zap.String("external_product_id", id),
				zap.Error(err))
			result.PerItemErrors = append(result.PerItemErrors, itemError(remote, err))
			continue
		}
		existing[id] = struct{}{}
		result.InsertedCount++
	}

	result.Status = integration.BatchStatus(result.InsertedCount+result.SkippedCount, len(result.PerItemErrors))
	s.metrics.RecordImport(ctx, result.InsertedCount, result.SkippedCount, len(result.PerItemErrors))
	telemetry.SetAttributes(span, "storesync.import.inserted", result.InsertedCount)
	return result, nil
}

func itemError(remote integration.RemoteProduct, err error) integration.ItemError {
	msg := err.Error()
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		msg = domainErr.Message
	}
	return integration.ItemError{
		ExternalProductID: remote.ID,
		Title:             remote.Title,
		Message:           msg,
	}
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

// TriggerProxySync asks the proxy to sync the store's catalog and returns how many products it synced
func (s *CatalogService) TriggerProxySync(ctx context.Context, storeID uuid.UUID) (int, error) {
	if s.proxy == nil {
		return 0, fmt.Errorf("%w: catalog proxy is not configured", integration.ErrConfiguration)
	}
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return 0, err
	}

	var synced int
	_, err = s.orchestrator.RunSync(ctx, store.ID, integration.SyncTypeProducts, func(ctx context.Context) (string, error) {
		n, err := s.proxy.TriggerSync(ctx, store.ID)
		if err != nil {
			return "", err
		}
		synced = n
		return fmt.Sprintf("proxy synced %d products", n), nil
	})
	if err != nil {
		return 0, err
	}
	return synced, nil
}

// SyncInventory refreshes stock_quantity of the store's imported products from the first
// MaxLimit items of its remote catalog. Imported products beyond that page keep their stock
// and are counted in NotRefreshed.
func (s *CatalogService) SyncInventory(ctx context.Context, storeID uuid.UUID) (*InventorySyncResult, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !store.HasCompleteCredentials() {
		return nil, fmt.Errorf("%w: store %s has incomplete %s credentials", integration.ErrCredential, store.ID, store.StoreType)
	}

	result := &InventorySyncResult{}
	_, err = s.orchestrator.RunSync(ctx, store.ID, integration.SyncTypeInventory, func(ctx context.Context) (string, error) {
		catalog, err := s.fetchCatalog(ctx, store, nil, s.config.MaxLimit)
		if err != nil {
			return "", err
		}
		existing, err := s.products.ExternalIDsByStore(ctx, store.ID)
		if err != nil {
			return "", err
		}

		var lastErr error
		seen := make(map[string]struct{}, len(catalog.Products))
		for _, remote := range catalog.Products {
			if _, ok := existing[remote.ID]; !ok {
				result.Unmatched++
				continue
			}
			seen[remote.ID] = struct{}{}
			n, err := s.products.UpdateStockByExternalID(ctx, store.ID, remote.ID, max(remote.Inventory, 0))
			if err != nil {
				result.Failed++
				lastErr = err
				continue
			}
			result.Updated += n
		}
		result.NotRefreshed = len(existing) - len(seen)
		if result.NotRefreshed > 0 {
			s.logger.Warn("imported products outside the fetched catalog page",
				zap.String("store_id", store.ID.String()),
				zap.Int("page_size", s.config.MaxLimit),
				zap.Int("not_refreshed", result.NotRefreshed))
		}
		if lastErr != nil && result.Updated == 0 {
			return "", fmt.Errorf("failed to update stock of %d products: %w", result.Failed, lastErr)
		}
		return fmt.Sprintf("updated %d, unmatched %d, failed %d, not refreshed %d",
			result.Updated, result.Unmatched, result.Failed, result.NotRefreshed), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
