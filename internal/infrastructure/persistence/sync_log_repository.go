package persistence

import (
	"context"

	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncLogRepository implements integration.SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Create inserts a new sync log
func (r *GormSyncLogRepository) Create(ctx context.Context, log *integration.SyncLog) error {
	return r.db.WithContext(ctx).Create(models.SyncLogModelFromDomain(log)).Error
}

// Finish writes the terminal state of a run. Only in-progress rows are updated,
// so a finished log is never rewritten.
func (r *GormSyncLogRepository) Finish(ctx context.Context, log *integration.SyncLog) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("id = ? AND status = ?", log.ID, integration.SyncLogStatusInProgress).
		Updates(map[string]any{
			"status":      log.Status,
			"finished_at": log.FinishedAt,
			"message":     log.Message,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, integration.ErrSyncLogNotFound)
	}
	return nil
}

// FindInProgress returns the in-progress logs of a store, oldest first
func (r *GormSyncLogRepository) FindInProgress(ctx context.Context, storeID uuid.UUID) ([]integration.SyncLog, error) {
	var rows []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, integration.SyncLogStatusInProgress).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSyncLogs(rows), nil
}

// FindLatest returns the most recently started log of a store
func (r *GormSyncLogRepository) FindLatest(ctx context.Context, storeID uuid.UUID) (*integration.SyncLog, error) {
	var model models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("started_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err, integration.ErrSyncLogNotFound)
	}
	return model.ToDomain(), nil
}

// ListByStore returns up to limit logs of a store, newest first
func (r *GormSyncLogRepository) ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]integration.SyncLog, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.SyncLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSyncLogs(rows), nil
}

func toSyncLogs(rows []models.SyncLogModel) []integration.SyncLog {
	logs := make([]integration.SyncLog, len(rows))
	for i := range rows {
		logs[i] = *rows[i].ToDomain()
	}
	return logs
}

var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)
