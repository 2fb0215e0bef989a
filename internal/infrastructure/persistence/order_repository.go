package persistence

import (
	"context"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderRepository implements integration.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create persists an order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, order *integration.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	model := models.OrderModelFromDomain(order)
	return translateError(r.db.WithContext(ctx).Create(model).Error, integration.ErrOrderNotFound)
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, integration.ErrOrderNotFound)
	}
	return model.ToDomain(), nil
}

// MarkPublished records the remote order id only while none is stored.
// It returns false when the order was already published by someone else.
func (r *GormOrderRepository) MarkPublished(ctx context.Context, id uuid.UUID, externalOrderID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND external_order_id IS NULL", id).
		Updates(map[string]any{
			"external_order_id": externalOrderID,
			"updated_at":        time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, integration.ErrOrderNotFound
	}
	return false, nil
}

var _ integration.OrderRepository = (*GormOrderRepository)(nil)
