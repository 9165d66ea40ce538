// Package telemetry provides OpenTelemetry instrumentation for the aggregator.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SourceMetricsMeterName is the name used for the per-source metrics meter
	SourceMetricsMeterName = "github.com/nightfeed/horror-aggregator/sources"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/nightfeed/horror-aggregator/sync"

	// CacheMetricsMeterName is the name used for the result cache meter
	CacheMetricsMeterName = "github.com/nightfeed/horror-aggregator/cache"
)

// Cache lookup outcomes
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
)

// SourceMetrics holds the OpenTelemetry instruments for per-source metrics
type SourceMetrics struct {
	gamesTotal   metric.Int64Gauge
	fetchRetries metric.Int64Counter
}

// NewSourceMetrics creates a new SourceMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSourceMetrics(provider metric.MeterProvider) (*SourceMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SourceMetricsMeterName)

	gamesTotal, err := meter.Int64Gauge(
		"horror_agg_games_total",
		metric.WithDescription("Number of games returned by the last fetch of each source"),
		metric.WithUnit("{game}"),
	)
	if err != nil {
		return nil, err
	}

	fetchRetries, err := meter.Int64Counter(
		"horror_agg_fetch_retries_total",
		metric.WithDescription("Number of fetch attempts retried after a failure"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	return &SourceMetrics{
		gamesTotal:   gamesTotal,
		fetchRetries: fetchRetries,
	}, nil
}

// RecordGamesTotal records the number of games a source returned
func (m *SourceMetrics) RecordGamesTotal(ctx context.Context, source string, count int64) {
	if m == nil || m.gamesTotal == nil {
		return
	}

	m.gamesTotal.Record(ctx, count, metric.WithAttributes(attribute.String("source", source)))
}

// RecordRetry counts one retried fetch attempt
func (m *SourceMetrics) RecordRetry(ctx context.Context, source string) {
	if m == nil || m.fetchRetries == nil {
		return
	}

	m.fetchRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"horror_agg_sync_duration_seconds",
		metric.WithDescription("Duration of source refreshes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
	}, nil
}

// RecordSyncDuration records the duration of one source refresh
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, source string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// CacheMetrics holds the OpenTelemetry instruments for the result cache
type CacheMetrics struct {
	lookups   metric.Int64Counter
	evictions metric.Int64Counter
}

// NewCacheMetrics creates a new CacheMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CacheMetricsMeterName)

	lookups, err := meter.Int64Counter(
		"horror_agg_cache_lookups_total",
		metric.WithDescription("Result cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"horror_agg_cache_evictions_total",
		metric.WithDescription("Expired entries removed by the cache sweeper"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{
		lookups:   lookups,
		evictions: evictions,
	}, nil
}

// RecordLookup counts a cache lookup with its outcome (hit, miss or stale)
func (m *CacheMetrics) RecordLookup(ctx context.Context, source, outcome string) {
	if m == nil || m.lookups == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	}

	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordEvictions counts entries removed by a sweep
func (m *CacheMetrics) RecordEvictions(ctx context.Context, count int64) {
	if m == nil || m.evictions == nil || count == 0 {
		return
	}

	m.evictions.Add(ctx, count)
}
