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

// SyncWork is the body of a sync run. The message is stored on the log when the work succeeds.
type SyncWork func(ctx context.Context) (message string, err error)

// SyncOrchestratorConfig holds sync run settings
type SyncOrchestratorConfig struct {
	// LockTTL bounds how long a crashed instance can hold a store's sync lock
	LockTTL time.Duration
	// StaleAfter is the age after which an in_progress log is considered abandoned
	StaleAfter time.Duration
}

// DefaultSyncOrchestratorConfig returns the default sync settings
func DefaultSyncOrchestratorConfig() SyncOrchestratorConfig {
	return SyncOrchestratorConfig{
		LockTTL:    shared.DefaultLockConfig().TTL,
		StaleAfter: 30 * time.Minute,
	}
}

const (
	defaultSyncLogLimit = 20
	maxSyncLogLimit     = 100
)

// SyncOrchestrator wraps long-running operations in a per-store sync log.
// At most one run per store is in flight across all instances sharing the locker.
type SyncOrchestrator struct {
	syncLogs integration.SyncLogRepository
	locker   shared.KeyedLocker
	config   SyncOrchestratorConfig
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncOrchestrator creates a new SyncOrchestrator. metrics may be nil.
func NewSyncOrchestrator(
	syncLogs integration.SyncLogRepository,
	locker shared.KeyedLocker,
	cfg SyncOrchestratorConfig,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *SyncOrchestrator {
	defaults := DefaultSyncOrchestratorConfig()
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncOrchestrator{
		syncLogs: syncLogs,
		locker:   locker,
		config:   cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func syncLockKey(storeID uuid.UUID) string {
	return "sync:" + storeID.String()
}

// RunSync records an in_progress log, runs work and closes the log with its outcome.
// The work's error is returned unchanged. If another run of the store is active it
// returns ErrSyncInProgress without running work. The log is closed even when ctx is
// cancelled or work panics; a panic is re-raised afterwards.
func (o *SyncOrchestrator) RunSync(ctx context.Context, storeID uuid.UUID, syncType integration.SyncType, work SyncWork) (*integration.SyncLog, error) {
	if storeID == uuid.Nil {
		return nil, integration.ErrInvalidStoreID
	}
	if !syncType.IsValid() {
		return nil, integration.ErrInvalidSyncType
	}

	ctx, span := telemetry.StartSpan(ctx, "sync.run",
		telemetry.WithAttribute(telemetry.SpanAttrStoreID, storeID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrSyncType, string(syncType)))
	defer span.End()

	key := syncLockKey(storeID)
	token, acquired, err := o.locker.TryLock(ctx, key, o.config.LockTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, integration.ErrSyncInProgress
	}
	defer func() {
		if err := o.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			o.logger.Warn("failed to release sync lock", zap.String("key", key), zap.Error(err))
		}
	}()

	if err := o.closeStaleRuns(ctx, storeID); err != nil {
		return nil, err
	}

	log, err := integration.StartSyncLog(storeID, syncType)
	if err != nil {
		return nil, err
	}
	log.StartedAt = o.now()
	if err := o.syncLogs.Create(ctx, log); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit
			o.finish(ctx, log, "", errors.New("sync aborted"))
			return
		}
		o.finish(ctx, log, "", fmt.Errorf("sync panicked: %v", r))
		panic(r)
	}()

	message, workErr := work(ctx)
	completed = true

	o.finish(ctx, log, message, workErr)
	if workErr != nil {
		telemetry.RecordError(span, workErr)
	}
	return log, workErr
}

// closeStaleRuns fails in_progress logs older than StaleAfter. A younger one means the store is busy.
func (o *SyncOrchestrator) closeStaleRuns(ctx context.Context, storeID uuid.UUID) error {
	running, err := o.syncLogs.FindInProgress(ctx, storeID)
	if err != nil {
		return fmt.Errorf("failed to check running syncs: %w", err)
	}

	now := o.now()
	for i := range running {
		run := &running[i]
		if !run.IsStale(now, o.config.StaleAfter) {
			return integration.ErrSyncInProgress
		}

		run.Finish("", errors.New(integration.AbandonedSyncMessage))
		if err := o.syncLogs.Finish(ctx, run); err != nil && !errors.Is(err, integration.ErrSyncLogNotFound) {
			return fmt.Errorf("failed to close abandoned sync: %w", err)
		}
		o.logger.Warn("closed abandoned sync",
			zap.String("store_id", storeID.String()),
			zap.String("sync_log_id", run.ID.String()),
			zap.Time("started_at", run.StartedAt))
	}
	return nil
}

func (o *SyncOrchestrator) finish(ctx context.Context, log *integration.SyncLog, message string, workErr error) {
	ctx = context.WithoutCancel(ctx)
	log.Finish(message, workErr)
	if err := o.syncLogs.Finish(ctx, log); err != nil {
		o.logger.Error("failed to close sync log",
			zap.String("sync_log_id", log.ID.String()),
			zap.Error(err))
	}

	o.metrics.RecordSyncRun(ctx, string(log.SyncType), string(log.Status), log.Duration())

	fields := []zap.Field{
		zap.String("store_id", log.StoreID.String()),
		zap.String("sync_type", string(log.SyncType)),
		zap.String("status", string(log.Status)),
		zap.Duration("duration", log.Duration()),
	}
	if workErr != nil {
		o.logger.Warn("sync failed", append(fields, zap.Error(workErr))...)
		return
	}
	o.logger.Info("sync finished", fields...)
}

// ListSyncLogs returns the newest sync logs of a store
func (o *SyncOrchestrator) ListSyncLogs(ctx context.Context, storeID uuid.UUID, limit int) ([]integration.SyncLog, error) {
	if storeID == uuid.Nil {
		return nil, integration.ErrInvalidStoreID
	}
	switch {
	case limit <= 0:
		limit = defaultSyncLogLimit
	case limit > maxSyncLogLimit:
		limit = maxSyncLogLimit
	}
	return o.syncLogs.ListByStore(ctx, storeID, limit)
}
