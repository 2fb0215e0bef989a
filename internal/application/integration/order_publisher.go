package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/domain/shared"
	"github.com/brandlive/storesync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderPublisher pushes local orders to their WooCommerce store, at most once per order.
type OrderPublisher struct {
	orders       integration.OrderRepository
	products     integration.ProductRepository
	stores       integration.StoreRepository
	gateway      integration.OrderGateway
	locker       shared.KeyedLocker
	orchestrator *SyncOrchestrator
	lockTTL      time.Duration
	logger       *zap.Logger
}

// NewOrderPublisher creates a new OrderPublisher
func NewOrderPublisher(
	orders integration.OrderRepository,
	products integration.ProductRepository,
	stores integration.StoreRepository,
	gateway integration.OrderGateway,
	locker shared.KeyedLocker,
	orchestrator *SyncOrchestrator,
	lockTTL time.Duration,
	logger *zap.Logger,
) *OrderPublisher {
	if lockTTL <= 0 {
		lockTTL = shared.DefaultLockConfig().TTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderPublisher{
		orders:       orders,
		products:     products,
		stores:       stores,
		gateway:      gateway,
		locker:       locker,
		orchestrator: orchestrator,
		lockTTL:      lockTTL,
		logger:       logger,
	}
}

// Publish creates the remote counterpart of an order and records its id.
// Publishing an order that already has a remote id is a no-op that returns the stored id.
// Errors wrap ErrPublish, except configuration errors which are returned as is.
func (p *OrderPublisher) Publish(ctx context.Context, orderID uuid.UUID) (*PublishResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "order.publish",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID.String()))
	defer span.End()

	result, err := p.publish(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, publishError(err)
	}
	return result, nil
}

func (p *OrderPublisher) publish(ctx context.Context, orderID uuid.UUID) (*PublishResult, error) {
	key := integration.PublishIdempotencyKey(orderID)
	token, acquired, err := p.locker.TryLock(ctx, key, p.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire publish lock: %w", err)
	}
	if !acquired {
		return nil, integration.ErrPublishInProgress
	}
	defer func() {
		if err := p.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			p.logger.Warn("failed to release publish lock", zap.String("key", key), zap.Error(err))
		}
	}()

	// read under the lock so a concurrent publisher's result is visible
	order, err := p.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPublished() {
		return &PublishResult{Success: true, RemoteOrderID: *order.ExternalOrderID, AlreadyPublished: true}, nil
	}

	store, err := p.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return nil, err
	}
	creds, err := store.WooCredentials()
	if err != nil {
		return nil, err
	}

	externalIDs, err := p.externalProductIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	payload, skipped := integration.BuildRemoteOrder(order, externalIDs)
	for _, item := range skipped {
		p.logger.Warn("order item not published",
			zap.String("order_id", order.ID.String()),
			zap.String("product_id", item.ProductID.String()),
			zap.String("reason", item.Reason))
	}
	if len(payload.LineItems) == 0 {
		return nil, fmt.Errorf("order %s has no item linked to a remote product", order.ID)
	}

	result := &PublishResult{SkippedItems: skipped}
	_, err = p.orchestrator.RunSync(ctx, order.StoreID, integration.SyncTypeOrders, func(ctx context.Context) (string, error) {
		remoteID, err := p.gateway.CreateOrder(ctx, creds, payload, key)
		if err != nil {
			return "", err
		}

		won, err := p.orders.MarkPublished(ctx, order.ID, remoteID)
		if err != nil {
			return "", fmt.Errorf("failed to record remote order %s: %w", remoteID, err)
		}
		if !won {
			current, err := p.orders.FindByID(ctx, order.ID)
			if err != nil {
				return "", fmt.Errorf("remote order %s created but not recorded: %w", remoteID, err)
			}
			if !current.IsPublished() {
				return "", fmt.Errorf("remote order %s created but not recorded: order %s was not updated", remoteID, order.ID)
			}
			p.logger.Warn("order was published concurrently",
				zap.String("order_id", order.ID.String()),
				zap.String("kept_remote_id", *current.ExternalOrderID),
				zap.String("discarded_remote_id", remoteID))
			result.RemoteOrderID = *current.ExternalOrderID
			result.AlreadyPublished = true
			return fmt.Sprintf("order %s already published as %s", order.ID, result.RemoteOrderID), nil
		}

		result.RemoteOrderID = remoteID
		return fmt.Sprintf("order %s published as %s", order.ID, remoteID), nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	p.logger.Info("order published",
		zap.String("order_id", order.ID.String()),
		zap.String("remote_order_id", result.RemoteOrderID),
		zap.Int("skipped_items", len(skipped)))
	return result, nil
}

// externalProductIDs maps the order's product ids to their remote ids
func (p *OrderPublisher) externalProductIDs(ctx context.Context, order *integration.Order) (map[uuid.UUID]string, error) {
	products, err := p.products.FindByIDs(ctx, order.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to load order products: %w", err)
	}
	ids := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		if product.IsImported() {
			ids[product.ID] = *product.ExternalProductID
		}
	}
	return ids, nil
}

func publishError(err error) error {
	if errors.Is(err, integration.ErrConfiguration) || errors.Is(err, integration.ErrPublish) {
		return err
	}
	return fmt.Errorf("%w: %w", integration.ErrPublish, err)
}
