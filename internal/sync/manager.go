package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/normalize"
	"github.com/nightfeed/horror-aggregator/internal/otel"
	"github.com/nightfeed/horror-aggregator/internal/retry"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

// TracerName is the name used for the fetch pipeline tracer
const TracerName = "github.com/nightfeed/horror-aggregator/sync"

// Failure reasons carried by Error
const (
	ReasonUnsupportedSource = "UnsupportedSource"
	ReasonFetchFailed       = "FetchFailed"
	ReasonExtractionFailed  = "ExtractionFailed"
	ReasonPanic             = "Panic"
)

// Error represents a structured pipeline failure
type Error struct {
	Err     error
	Message string
	Source  string
	Reason  string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs the fetch pipeline for one source at a time
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/nightfeed/horror-aggregator/internal/sync Manager
type Manager interface {
	// PerformSync fetches, normalizes and packages one source.
	// The result is never nil; on failure it carries the error message and no games.
	PerformSync(ctx context.Context, source string) (*games.SourceResult, *Error)
}

// Option configures the default manager
type Option func(*defaultSyncManager)

// WithRetryPolicy overrides the retry policy used for fetches
func WithRetryPolicy(policy retry.Policy) Option {
	return func(m *defaultSyncManager) {
		m.policy = policy
	}
}

// WithClock sets the clock used for fetch timestamps and durations
func WithClock(c clock.PassiveClock) Option {
	return func(m *defaultSyncManager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithTracer sets the tracer used for per-fetch spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithSourceMetrics sets the per-source metrics
func WithSourceMetrics(metrics *telemetry.SourceMetrics) Option {
	return func(m *defaultSyncManager) {
		m.sourceMetrics = metrics
	}
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	registry      *sources.Registry
	policy        retry.Policy
	clock         clock.PassiveClock
	tracer        trace.Tracer
	sourceMetrics *telemetry.SourceMetrics
}

// NewDefaultSyncManager creates a pipeline manager over the given registry
func NewDefaultSyncManager(registry *sources.Registry, opts ...Option) Manager {
	m := &defaultSyncManager{
		registry: registry,
		policy:   retry.DefaultPolicy(),
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FetchFunc adapts a Manager to the plain fetch function the result cache expects
func FetchFunc(m Manager) func(ctx context.Context, source string) *games.SourceResult {
	return func(ctx context.Context, source string) *games.SourceResult {
		result, _ := m.PerformSync(ctx, source)
		return result
	}
}

// PerformSync executes the pipeline for source
func (m *defaultSyncManager) PerformSync(ctx context.Context, source string) (result *games.SourceResult, syncErr *Error) {
	start := m.clock.Now()
	name := source

	defer func() {
		if r := recover(); r != nil {
			syncErr = &Error{
				Err:     fmt.Errorf("panic: %v", r),
				Message: fmt.Sprintf("internal error while syncing %s", name),
				Source:  name,
				Reason:  ReasonPanic,
			}
			slog.ErrorContext(ctx, "Recovered panic in fetch pipeline", "source", name, "panic", r)
			result = games.NewFailedResult(name, syncErr, m.clock.Now(), m.clock.Since(start))
		}
	}()

	fetcher, err := m.registry.Resolve(source)
	if err != nil {
		syncErr = &Error{
			Err:     err,
			Message: err.Error(),
			Source:  name,
			Reason:  ReasonUnsupportedSource,
		}
		return games.NewFailedResult(name, syncErr, m.clock.Now(), 0), syncErr
	}
	name = fetcher.Name()

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(otel.AttrSourceName.String(name)),
	)
	defer span.End()

	logger := slog.With("source", name)
	logger.DebugContext(ctx, "Fetching source")

	var attempts uint
	raws, err := retry.Do(ctx, m.policy, func(ctx context.Context) ([]sources.RawRecord, error) {
		attempts++
		return fetcher.Fetch(ctx)
	}, retry.WithNotify(func(attempt uint, err error, wait time.Duration) {
		logger.WarnContext(ctx, "Fetch attempt failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err)
		m.sourceMetrics.RecordRetry(ctx, name)
	}))

	fetchedAt := m.clock.Now()
	duration := fetchedAt.Sub(start)
	span.SetAttributes(otel.AttrAttempts.Int64(int64(attempts)))

	if err != nil {
		reason := ReasonFetchFailed
		var extractionErr *sources.ExtractionError
		if errors.As(err, &extractionErr) {
			reason = ReasonExtractionFailed
		}
		syncErr = &Error{
			Err:     err,
			Message: err.Error(),
			Source:  name,
			Reason:  reason,
		}
		otel.RecordError(span, err)
		span.SetAttributes(otel.AttrFailureCause.String(reason))
		logger.ErrorContext(ctx, "Fetch failed",
			"reason", reason,
			"attempts", attempts,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return games.NewFailedResult(name, err, fetchedAt, duration), syncErr
	}

	records := normalize.Normalize(name, raws)
	span.SetAttributes(otel.AttrResultCount.Int(len(records)))
	m.sourceMetrics.RecordGamesTotal(ctx, name, int64(len(records)))

	logger.InfoContext(ctx, "Fetch completed",
		"games", len(records),
		"attempts", attempts,
		"duration_ms", duration.Milliseconds())

	return games.NewResult(name, records, fetchedAt, duration), nil
}
