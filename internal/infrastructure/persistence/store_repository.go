package persistence

import (
	"context"
	"time"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStoreRepository implements integration.StoreRepository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by its ID
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, integration.ErrStoreNotFound)
	}
	return model.ToDomain(), nil
}

// FindByBrandAndType finds the store a brand connected for one platform
func (r *GormStoreRepository) FindByBrandAndType(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) (*integration.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).
		Where("brand_id = ? AND store_type = ?", brandID, storeType).
		First(&model).Error; err != nil {
		return nil, translateError(err, integration.ErrStoreNotFound)
	}
	return model.ToDomain(), nil
}

// FindLatestByBrand finds the most recently updated store of a brand
func (r *GormStoreRepository) FindLatestByBrand(ctx context.Context, brandID uuid.UUID) (*integration.Store, error) {
	var model models.StoreModel
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("updated_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err, integration.ErrStoreNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a new store. A second store for the same brand and platform
// fails with shared.ErrAlreadyExists.
func (r *GormStoreRepository) Create(ctx context.Context, store *integration.Store) error {
	var model models.StoreModel
	if err := model.FromDomain(store); err != nil {
		return err
	}
	return translateError(r.db.WithContext(ctx).Create(&model).Error, integration.ErrStoreNotFound)
}

// Reconnect overwrites the identity and credentials of an existing store. With purgeProducts
// the store's products are deleted first, in the same transaction.
func (r *GormStoreRepository) Reconnect(ctx context.Context, store *integration.Store, purgeProducts bool) error {
	var model models.StoreModel
	if err := model.FromDomain(store); err != nil {
		return err
	}
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if purgeProducts {
			if err := tx.Where("store_id = ?", store.ID).Delete(&models.ProductModel{}).Error; err != nil {
				return err
			}
		}
		result := tx.Model(&models.StoreModel{}).
			Where("id = ?", store.ID).
			Updates(map[string]any{
				"name":              model.Name,
				"external_store_id": model.ExternalStoreID,
				"api_credentials":   model.CredentialsJSON,
				"updated_at":        model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err, integration.ErrStoreNotFound)
}

// DeleteWithProducts deletes a store's products and then the store in one transaction.
// It returns the number of deleted products.
func (r *GormStoreRepository) DeleteWithProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := tx.Where("store_id = ?", id).Delete(&models.ProductModel{})
		if products.Error != nil {
			return products.Error
		}
		store := tx.Where("id = ?", id).Delete(&models.StoreModel{})
		if store.Error != nil {
			return store.Error
		}
		if store.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		removed = products.RowsAffected
		return nil
	})
	if err != nil {
		return 0, translateError(err, integration.ErrStoreNotFound)
	}
	return removed, nil
}

var _ integration.StoreRepository = (*GormStoreRepository)(nil)
