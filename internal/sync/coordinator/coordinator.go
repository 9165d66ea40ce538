package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

// DefaultInterval is the time between scheduled passes
const DefaultInterval = 5 * time.Minute

var errAlreadyStarted = errors.New("sync coordinator already started")

// Refresher performs a forced fetch for one source
type Refresher interface {
	Refresh(ctx context.Context, source string) *games.SourceResult
}

// Coordinator manages background sync scheduling and execution for every source
//
//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks github.com/nightfeed/horror-aggregator/internal/sync/coordinator Coordinator
type Coordinator interface {
	// Start runs one pass immediately and then one per interval.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop halts the schedule and waits for the loop to exit
	Stop() error

	// RunOnce performs a single pass over sources, or every source when none are given
	RunOnce(ctx context.Context, sources ...string) *games.SyncRunReport

	// LastReport returns the report of the most recent pass, or nil before the first one
	LastReport() *games.SyncRunReport
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	refresher Refresher
	sources   []string
	interval  time.Duration
	clock     clock.WithTicker

	// Lifecycle management
	mu         sync.Mutex
	started    bool
	stopped    bool
	cancelFunc context.CancelFunc
	done       chan struct{}

	lastReport atomic.Pointer[games.SyncRunReport]

	// Metrics
	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval sets the time between passes. Non-positive values keep the default.
func WithInterval(interval time.Duration) Option {
	return func(c *defaultCoordinator) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithClock sets the clock that drives the schedule
func WithClock(clk clock.WithTicker) Option {
	return func(c *defaultCoordinator) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// New creates a new coordinator over the given sources
func New(refresher Refresher, sources []string, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		refresher: refresher,
		sources:   append([]string(nil), sources...),
		interval:  DefaultInterval,
		clock:     clock.RealClock{},
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination for all sources
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return errAlreadyStarted
	}
	if c.stopped {
		c.mu.Unlock()
		slog.InfoContext(ctx, "Sync coordinator stopped before start, not scheduling passes")
		return nil
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.started = true
	c.cancelFunc = cancel
	c.mu.Unlock()

	defer func() {
		cancel()
		close(c.done)
		slog.InfoContext(ctx, "Background sync coordinator shutting down")
	}()

	slog.InfoContext(ctx, "Starting background sync coordinator",
		"source_count", len(c.sources),
		"interval", c.interval)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	// Perform initial pass
	c.RunOnce(coordCtx)

	for {
		select {
		case <-ticker.C():
			if coordCtx.Err() != nil {
				return nil
			}
			c.RunOnce(coordCtx)
		case <-coordCtx.Done():
			slog.InfoContext(ctx, "Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator. Calling it more than once, or before Start, is a no-op.
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	c.stopped = true
	started := c.started
	cancel := c.cancelFunc
	c.mu.Unlock()

	if !started {
		return nil
	}

	slog.Info("Stopping sync coordinator")
	cancel()
	// Wait for coordinator to finish
	<-c.done
	return nil
}

// LastReport returns the most recent pass report
func (c *defaultCoordinator) LastReport() *games.SyncRunReport {
	return c.lastReport.Load()
}

// RunOnce refreshes every requested source concurrently and records one outcome per source.
// It never fails as a whole; per-source failures are reported in the result.
func (c *defaultCoordinator) RunOnce(ctx context.Context, sources ...string) *games.SyncRunReport {
	if len(sources) == 0 {
		sources = c.sources
	}

	report := &games.SyncRunReport{
		RunID:     uuid.NewString(),
		StartedAt: c.clock.Now(),
		PerSource: make(map[string]games.SourceOutcome, len(sources)),
	}
	logger := slog.With("run_id", report.RunID)
	logger.InfoContext(ctx, "Starting sync pass", "sources", sources)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, source := range sources {
		g.Go(func() error {
			outcome := c.syncSource(ctx, logger, source)
			mu.Lock()
			report.PerSource[source] = outcome
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = c.clock.Now()
	c.lastReport.Store(report)

	logger.InfoContext(ctx, "Sync pass completed",
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	return report
}

// syncSource refreshes one source and maps the result onto its phase
func (c *defaultCoordinator) syncSource(ctx context.Context, logger *slog.Logger, source string) games.SourceOutcome {
	logger = logger.With("source", source)
	startTime := c.clock.Now()

	logger.DebugContext(ctx, "Source phase changed", "from", games.SyncPhaseIdle, "to", games.SyncPhaseFetching)

	result := c.refresher.Refresh(ctx, source)
	syncDuration := c.clock.Since(startTime)

	if result.Failed() {
		msg := "refresh returned no result"
		if result != nil {
			msg = result.Error
		}
		logger.WarnContext(ctx, "Source refresh failed, keeping previous listings",
			"phase", games.SyncPhaseFailedRetained,
			"error", msg)
		c.syncMetrics.RecordSyncDuration(ctx, source, syncDuration, false)
		return games.SourceOutcome{
			Success: false,
			Error:   msg,
			Phase:   games.SyncPhaseFailedRetained,
		}
	}

	logger.InfoContext(ctx, "Source refreshed",
		"phase", games.SyncPhaseUpdated,
		"games", result.TotalCount)
	c.syncMetrics.RecordSyncDuration(ctx, source, syncDuration, true)
	return games.SourceOutcome{
		Success:    true,
		GamesCount: result.TotalCount,
		Phase:      games.SyncPhaseUpdated,
	}
}
