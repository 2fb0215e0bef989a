package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncType is the kind of work a sync run performs
type SyncType string

const (
	SyncTypeProducts  SyncType = "products"
	SyncTypeOrders    SyncType = "orders"
	SyncTypeInventory SyncType = "inventory"
)

// IsValid returns true if the sync type is valid
func (t SyncType) IsValid() bool {
	switch t {
	case SyncTypeProducts, SyncTypeOrders, SyncTypeInventory:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncType
func (t SyncType) String() string {
	return string(t)
}

// SyncLogStatus is the lifecycle status of one sync run
type SyncLogStatus string

const (
	SyncLogStatusInProgress SyncLogStatus = "in_progress"
	SyncLogStatusSuccess    SyncLogStatus = "success"
	SyncLogStatusFailed     SyncLogStatus = "failed"
)

// IsTerminal returns true once the run has finished
func (s SyncLogStatus) IsTerminal() bool {
	return s == SyncLogStatusSuccess || s == SyncLogStatusFailed
}

// SyncStatus is the outcome of a batch operation such as an import
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// BatchStatus derives the batch outcome from the number of successes and failures.
// An empty batch is a success.
func BatchStatus(succeeded, failed int) SyncStatus {
	switch {
	case failed == 0:
		return SyncStatusSuccess
	case succeeded == 0:
		return SyncStatusFailed
	default:
		return SyncStatusPartial
	}
}

// AbandonedSyncMessage is written to in-progress runs that outlived the stale threshold.
const AbandonedSyncMessage = "abandoned: sync did not finish before the stale threshold"

// ---------------------------------------------------------------------------
// SyncLog entity
// ---------------------------------------------------------------------------

// SyncLog is an append-only record of one sync attempt.
// FinishedAt and Message stay nil while the run is in progress.
type SyncLog struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	SyncType   SyncType
	Status     SyncLogStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Message    *string
}

// StartSyncLog opens an in-progress log for a store.
func StartSyncLog(storeID uuid.UUID, syncType SyncType) (*SyncLog, error) {
	if storeID == uuid.Nil {
		return nil, ErrInvalidStoreID
	}
	if !syncType.IsValid() {
		return nil, ErrInvalidSyncType
	}
	return &SyncLog{
		ID:        uuid.New(),
		StoreID:   storeID,
		SyncType:  syncType,
		Status:    SyncLogStatusInProgress,
		StartedAt: time.Now(),
	}, nil
}

// Finish closes the log. A nil err marks success; otherwise the error text becomes the message.
// Finishing an already finished log is a no-op.
func (l *SyncLog) Finish(message string, err error) {
	if l.Status.IsTerminal() {
		return
	}
	now := time.Now()
	l.FinishedAt = &now
	if err != nil {
		l.Status = SyncLogStatusFailed
		message = err.Error()
	} else {
		l.Status = SyncLogStatusSuccess
	}
	if message != "" {
		l.Message = &message
	}
}

// IsStale reports whether an in-progress log started before now-threshold.
func (l *SyncLog) IsStale(now time.Time, threshold time.Duration) bool {
	return l.Status == SyncLogStatusInProgress && threshold > 0 && now.Sub(l.StartedAt) > threshold
}

// Duration returns the run time, or zero while in progress.
func (l *SyncLog) Duration() time.Duration {
	if l.FinishedAt == nil {
		return 0
	}
	return l.FinishedAt.Sub(l.StartedAt)
}

// ---------------------------------------------------------------------------
// SyncLogRepository
// ---------------------------------------------------------------------------

// SyncLogRepository persists sync logs. Rows are never changed after FinishedAt is set.
type SyncLogRepository interface {
	// Create inserts a new in-progress log
	Create(ctx context.Context, log *SyncLog) error
	// Finish writes the terminal status, message and finished_at of an in-progress log
	Finish(ctx context.Context, log *SyncLog) error
	// FindInProgress returns in-progress logs of a store, oldest first
	FindInProgress(ctx context.Context, storeID uuid.UUID) ([]SyncLog, error)
	// FindLatest returns the most recently started log of a store, or ErrSyncLogNotFound
	FindLatest(ctx context.Context, storeID uuid.UUID) (*SyncLog, error)
	// ListByStore returns the newest logs of a store
	ListByStore(ctx context.Context, storeID uuid.UUID, limit int) ([]SyncLog, error)
}
