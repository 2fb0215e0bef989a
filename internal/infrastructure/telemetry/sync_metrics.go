package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrSyncType  = attribute.Key("sync_type")
	AttrStatus    = attribute.Key("status")
	AttrAttempt   = attribute.Key("attempt")
	AttrOutcome   = attribute.Key("outcome")
	AttrStoreType = attribute.Key("store_type")
	AttrSource    = attribute.Key("source")
)

// SyncDurationBuckets are histogram boundaries for sync runs, in seconds
var SyncDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// SyncMetrics records the outcome of sync runs, fallback ladder attempts and catalog fetches.
type SyncMetrics struct {
	runs          metric.Int64Counter
	duration      metric.Float64Histogram
	attempts      metric.Int64Counter
	catalogSource metric.Int64Counter
	imported      metric.Int64Counter
}

// NewSyncMetrics registers the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	runs, err := meter.Int64Counter("storesync.sync.runs",
		metric.WithDescription("Finished sync runs by type and status"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync runs counter: %w", err)
	}
	duration, err := meter.Float64Histogram("storesync.sync.duration",
		metric.WithDescription("Sync run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(SyncDurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create sync duration histogram: %w", err)
	}
	attempts, err := meter.Int64Counter("storesync.ladder.attempts",
		metric.WithDescription("Direct fetch ladder attempts by strategy and outcome"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create ladder attempts counter: %w", err)
	}
	catalogSource, err := meter.Int64Counter("storesync.catalog.fetches",
		metric.WithDescription("Remote catalog fetches by the path that answered"),
		metric.WithUnit("{fetch}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog fetch counter: %w", err)
	}
	imported, err := meter.Int64Counter("storesync.import.items",
		metric.WithDescription("Selected products processed by import outcome"),
		metric.WithUnit("{item}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create import counter: %w", err)
	}

	return &SyncMetrics{
		runs:          runs,
		duration:      duration,
		attempts:      attempts,
		catalogSource: catalogSource,
		imported:      imported,
	}, nil
}

// RecordSyncRun records a finished run. A nil receiver is a no-op.
func (m *SyncMetrics) RecordSyncRun(ctx context.Context, syncType, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrSyncType.String(syncType), AttrStatus.String(status))
	m.runs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordLadderAttempt records one direct fetch attempt.
func (m *SyncMetrics) RecordLadderAttempt(ctx context.Context, attempt string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(AttrAttempt.String(attempt), AttrOutcome.String(outcome)))
}

// RecordCatalogFetch records which path produced a remote catalog.
func (m *SyncMetrics) RecordCatalogFetch(ctx context.Context, storeType, source string) {
	if m == nil {
		return
	}
	m.catalogSource.Add(ctx, 1, metric.WithAttributes(AttrStoreType.String(storeType), AttrSource.String(source)))
}

// RecordImport records the per-item outcome counts of an import batch.
func (m *SyncMetrics) RecordImport(ctx context.Context, inserted, skipped, failed int) {
	if m == nil {
		return
	}
	for outcome, n := range map[string]int{"inserted": inserted, "skipped": skipped, "failed": failed} {
		if n > 0 {
			m.imported.Add(ctx, int64(n), metric.WithAttributes(AttrOutcome.String(outcome)))
		}
	}
}
