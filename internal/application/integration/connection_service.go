package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConnectionServiceConfig holds connection settings
type ConnectionServiceConfig struct {
	// StatusTimeout bounds GetStatus
	StatusTimeout time.Duration
}

const defaultStatusTimeout = 2 * time.Second

// backendCredentialMarkers are fragments of storage errors caused by the service's own
// credentials being rejected, as opposed to bad user input.
var backendCredentialMarkers = []string{
	"password authentication failed",
	"invalid api key",
	"permission denied",
	"no pg_hba.conf entry",
	"invalid authorization",
}

// ConnectionService connects, reconnects and disconnects a brand's stores.
type ConnectionService struct {
	stores   integration.StoreRepository
	products integration.ProductRepository
	syncLogs integration.SyncLogRepository
	oauth    integration.OAuthExchanger
	config   ConnectionServiceConfig
	logger   *zap.Logger
}

// NewConnectionService creates a new ConnectionService. oauth may be nil when
// Shopify OAuth is not configured.
func NewConnectionService(
	stores integration.StoreRepository,
	products integration.ProductRepository,
	syncLogs integration.SyncLogRepository,
	oauth integration.OAuthExchanger,
	cfg ConnectionServiceConfig,
	logger *zap.Logger,
) *ConnectionService {
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = defaultStatusTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionService{
		stores:   stores,
		products: products,
		syncLogs: syncLogs,
		oauth:    oauth,
		config:   cfg,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Connect
// ---------------------------------------------------------------------------

// Connect stores WooCommerce credentials for a brand. A brand has at most one WooCommerce
// store: connecting again overwrites it, and when the site changed the previous site's
// imported products are removed in the same transaction.
func (s *ConnectionService) Connect(ctx context.Context, in ConnectWooCommerceInput) (*integration.Store, error) {
	ctx, span := telemetry.StartSpan(ctx, "connection.connect_woocommerce",
		telemetry.WithAttribute(telemetry.SpanAttrBrandID, in.BrandID.String()))
	defer span.End()

	fresh, err := integration.NewWooCommerceStore(in.BrandID, in.SiteURL, in.ConsumerKey, in.ConsumerSecret)
	if err != nil {
		return nil, err
	}
	store, err := s.upsert(ctx, fresh)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return store, nil
}

// ConnectShopify stores a Shopify shop domain and access token for a brand, with the same
// one-store-per-platform semantics as Connect.
func (s *ConnectionService) ConnectShopify(ctx context.Context, in ConnectShopifyInput) (*integration.Store, error) {
	ctx, span := telemetry.StartSpan(ctx, "connection.connect_shopify",
		telemetry.WithAttribute(telemetry.SpanAttrBrandID, in.BrandID.String()))
	defer span.End()

	fresh, err := integration.NewShopifyStore(in.BrandID, in.ShopDomain, in.AccessToken)
	if err != nil {
		return nil, err
	}
	store, err := s.upsert(ctx, fresh)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return store, nil
}

// CompleteShopifyOAuth exchanges an OAuth authorization code and connects the shop.
// The state must already have been verified by the caller; it is required to be present.
func (s *ConnectionService) CompleteShopifyOAuth(ctx context.Context, in CompleteShopifyOAuthInput) (*ShopifyOAuthResult, error) {
	var missing []string
	if strings.TrimSpace(in.Code) == "" {
		missing = append(missing, "code")
	}
	if strings.TrimSpace(in.Shop) == "" {
		missing = append(missing, "shop")
	}
	if strings.TrimSpace(in.State) == "" {
		missing = append(missing, "state")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", integration.ErrCredential, strings.Join(missing, ", "))
	}
	if in.BrandID == uuid.Nil {
		return nil, integration.ErrInvalidBrandID
	}
	if s.oauth == nil {
		return nil, fmt.Errorf("%w: shopify oauth is not configured", integration.ErrConfiguration)
	}

	shop := integration.NormalizeShopDomain(in.Shop)
	token, err := s.oauth.ExchangeToken(ctx, shop, strings.TrimSpace(in.Code))
	if err != nil {
		if errors.Is(err, integration.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: token exchange failed: %w", integration.ErrConnect, err)
	}

	store, err := s.ConnectShopify(ctx, ConnectShopifyInput{
		BrandID:     in.BrandID,
		ShopDomain:  shop,
		AccessToken: token,
	})
	if err != nil {
		return nil, err
	}
	return &ShopifyOAuthResult{StoreID: store.ID, ShopDomain: store.ExternalStoreID}, nil
}

func (s *ConnectionService) upsert(ctx context.Context, fresh *integration.Store) (*integration.Store, error) {
	existing, err := s.stores.FindByBrandAndType(ctx, fresh.BrandID, fresh.StoreType)
	switch {
	case err == nil:
		return s.reconnect(ctx, existing, fresh)
	case !errors.Is(err, integration.ErrStoreNotFound):
		return nil, s.classifyConnectError(err)
	}

	if err := s.stores.Create(ctx, fresh); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, s.classifyConnectError(err)
		}
		// lost a concurrent first connect; overwrite the winner's row
		existing, err := s.stores.FindByBrandAndType(ctx, fresh.BrandID, fresh.StoreType)
		if err != nil {
			return nil, s.classifyConnectError(err)
		}
		return s.reconnect(ctx, existing, fresh)
	}

	s.logger.Info("store connected",
		zap.String("store_id", fresh.ID.String()),
		zap.String("brand_id", fresh.BrandID.String()),
		zap.String("store_type", string(fresh.StoreType)),
		zap.String("site", fresh.ExternalStoreID))
	return fresh, nil
}

func (s *ConnectionService) reconnect(ctx context.Context, existing, fresh *integration.Store) (*integration.Store, error) {
	siteChanged, err := existing.Reconnect(fresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrConnect, err)
	}
	if err := s.stores.Reconnect(ctx, existing, siteChanged); err != nil {
		return nil, s.classifyConnectError(err)
	}

	s.logger.Info("store reconnected",
		zap.String("store_id", existing.ID.String()),
		zap.String("brand_id", existing.BrandID.String()),
		zap.String("store_type", string(existing.StoreType)),
		zap.Bool("site_changed", siteChanged))
	return existing, nil
}

// classifyConnectError hides storage errors caused by the service's own credentials behind
// ErrBackendMisconfigured; everything else becomes ErrConnect with the storage message.
func (s *ConnectionService) classifyConnectError(err error) error {
	if IsBackendCredentialError(err) {
		s.logger.Error("storage backend rejected service credentials", zap.Error(err))
		return integration.ErrBackendMisconfigured
	}
	return fmt.Errorf("%w: %v", integration.ErrConnect, err)
}

// IsBackendCredentialError reports whether err signals rejected storage credentials
func IsBackendCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, integration.ErrBackendMisconfigured) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range backendCredentialMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Disconnect
// ---------------------------------------------------------------------------

// Disconnect removes a store and its products in one transaction
func (s *ConnectionService) Disconnect(ctx context.Context, storeID uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "connection.disconnect",
		telemetry.WithAttribute(telemetry.SpanAttrStoreID, storeID.String()))
	defer span.End()

	if storeID == uuid.Nil {
		return integration.ErrInvalidStoreID
	}
	removed, err := s.stores.DeleteWithProducts(ctx, storeID)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, integration.ErrStoreNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", integration.ErrDisconnect, err)
	}

	s.logger.Info("store disconnected",
		zap.String("store_id", storeID.String()),
		zap.Int64("products_removed", removed))
	return nil
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// GetStatus reports whether the brand has a connected store. An empty storeType matches the
// most recently updated store of any type. It never fails: errors and timeouts yield a
// disconnected status.
func (s *ConnectionService) GetStatus(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) *ConnectionStatus {
	ctx, cancel := context.WithTimeout(ctx, s.config.StatusTimeout)
	defer cancel()

	type outcome struct {
		status *ConnectionStatus
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		status, err := s.loadStatus(ctx, brandID, storeType)
		done <- outcome{status: status, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if !errors.Is(out.err, integration.ErrStoreNotFound) {
				s.logger.Warn("store status unavailable",
					zap.String("brand_id", brandID.String()),
					zap.Error(out.err))
			}
			return &ConnectionStatus{}
		}
		return out.status
	case <-ctx.Done():
		s.logger.Warn("store status timed out",
			zap.String("brand_id", brandID.String()),
			zap.Duration("timeout", s.config.StatusTimeout))
		return &ConnectionStatus{}
	}
}

func (s *ConnectionService) loadStatus(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) (*ConnectionStatus, error) {
	if brandID == uuid.Nil {
		return nil, integration.ErrInvalidBrandID
	}

	var (
		store *integration.Store
		err   error
	)
	if storeType == "" {
		store, err = s.stores.FindLatestByBrand(ctx, brandID)
	} else {
		store, err = s.stores.FindByBrandAndType(ctx, brandID, storeType)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.products.CountByStore(ctx, store.ID)
	if err != nil {
		return nil, err
	}

	status := &ConnectionStatus{
		Connected:     true,
		Store:         NewStoreView(store),
		ProductsCount: count,
	}

	last, err := s.syncLogs.FindLatest(ctx, store.ID)
	switch {
	case err == nil:
		status.LastSync = NewSyncLogView(last)
	case !errors.Is(err, integration.ErrSyncLogNotFound):
		return nil, err
	}
	return status, nil
}
