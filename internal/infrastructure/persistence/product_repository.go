package persistence

import (
	"context"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements integration.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, integration.ErrProductNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds products by IDs; unknown ids are absent from the result
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]integration.Product, error) {
	if len(ids) == 0 {
		return []integration.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]integration.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// ExternalIDsByStore returns the external product ids already imported into a store
func (r *GormProductRepository) ExternalIDsByStore(ctx context.Context, storeID uuid.UUID) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("store_id = ? AND external_product_id IS NOT NULL", storeID).
		Pluck("external_product_id", &ids).Error; err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// CountByStore counts the products of a store
func (r *GormProductRepository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("store_id = ?", storeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts one product row. A duplicate external id within the store fails
// with shared.ErrAlreadyExists.
func (r *GormProductRepository) Create(ctx context.Context, product *integration.Product) error {
	model := models.ProductModelFromDomain(product)
	return translateError(r.db.WithContext(ctx).Create(model).Error, integration.ErrProductNotFound)
}

// UpdateStockByExternalID sets the stock of an imported product and returns the rows affected
func (r *GormProductRepository) UpdateStockByExternalID(ctx context.Context, storeID uuid.UUID, externalID string, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("store_id = ? AND external_product_id = ?", storeID, externalID).
		Updates(map[string]any{
			"stock_quantity": quantity,
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

var _ integration.ProductRepository = (*GormProductRepository)(nil)
