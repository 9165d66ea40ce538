// Package cache holds the most recent successful result per source and
// coalesces concurrent fetches for the same source into one upstream call.
package cache

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

const (
	// DefaultTTL is how long a stored result is served without refetching
	DefaultTTL = 600000 * time.Millisecond

	// DefaultSweepInterval is how often expired entries are removed
	DefaultSweepInterval = 60000 * time.Millisecond
)

var errNoResult = errors.New("fetch returned no result")

// FetchFunc produces a fresh result for a source. It must not return nil;
// failures are reported through the result's Error field.
type FetchFunc func(ctx context.Context, source string) *games.SourceResult

// Mirror receives every successful result after it is stored
//
//go:generate mockgen -destination=mocks/mock_mirror.go -package=mocks github.com/nightfeed/horror-aggregator/internal/cache Mirror
type Mirror interface {
	Save(ctx context.Context, result *games.SourceResult) error
}

type entry struct {
	value    *games.SourceResult
	storedAt time.Time
}

// EntryInfo describes one cache entry for status reporting
type EntryInfo struct {
	Source     string    `json:"source"`
	StoredAt   time.Time `json:"storedAt"`
	AgeSeconds float64   `json:"ageSeconds"`
	Fresh      bool      `json:"fresh"`
	TotalCount int       `json:"totalCount"`
}

// ResultCache is a TTL cache of source results, one entry per source
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]entry

	fetch   FetchFunc
	group   singleflight.Group
	ttl     time.Duration
	clock   clock.WithTicker
	metrics *telemetry.CacheMetrics
	mirror  Mirror
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithTTL sets the freshness window. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *ResultCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the clock used for freshness and the sweeper ticker
func WithClock(clk clock.WithTicker) Option {
	return func(c *ResultCache) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithMetrics sets the cache metrics
func WithMetrics(metrics *telemetry.CacheMetrics) Option {
	return func(c *ResultCache) {
		c.metrics = metrics
	}
}

// WithMirror sets a mirror that is written after each successful fetch
func WithMirror(mirror Mirror) Option {
	return func(c *ResultCache) {
		c.mirror = mirror
	}
}

// New creates a cache that fills misses with fetch
func New(fetch FetchFunc, opts ...Option) *ResultCache {
	c := &ResultCache{
		entries: make(map[string]entry),
		fetch:   fetch,
		ttl:     DefaultTTL,
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the entry for source if it is still fresh
func (c *ResultCache) Get(source string) (*games.SourceResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[source]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.value.Clone(), true
}

// GetOrFetch serves a fresh entry or fetches through the pipeline.
// When the fetch fails the previous entry, even if expired, is served instead of the error.
func (c *ResultCache) GetOrFetch(ctx context.Context, source string) *games.SourceResult {
	if v, ok := c.Get(source); ok {
		c.metrics.RecordLookup(ctx, source, telemetry.LookupHit)
		return v
	}

	result := c.load(ctx, source)
	if !result.Failed() {
		c.metrics.RecordLookup(ctx, source, telemetry.LookupMiss)
		return result
	}

	c.mu.Lock()
	e, ok := c.entries[source]
	c.mu.Unlock()
	if ok {
		slog.WarnContext(ctx, "Serving stale result after failed fetch",
			"source", source,
			"stored_at", e.storedAt,
			"error", result.Error)
		c.metrics.RecordLookup(ctx, source, telemetry.LookupStale)
		return e.value.Clone()
	}

	c.metrics.RecordLookup(ctx, source, telemetry.LookupMiss)
	return result
}

// Refresh fetches source regardless of freshness. A successful result replaces
// the entry; a failed result leaves the previous entry in place and is returned as is.
func (c *ResultCache) Refresh(ctx context.Context, source string) *games.SourceResult {
	return c.load(ctx, source)
}

// load runs one coalesced fetch per source. The fetch is detached from the
// caller's cancellation so an abandoned request still fills the cache.
func (c *ResultCache) load(ctx context.Context, source string) *games.SourceResult {
	v, _, _ := c.group.Do(source, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)

		result := c.fetch(fetchCtx, source)
		if result == nil {
			result = games.NewFailedResult(source, errNoResult, c.clock.Now(), 0)
		}
		if result.Failed() {
			return result, nil
		}

		c.store(result, c.clock.Now())
		if c.mirror != nil {
			if err := c.mirror.Save(fetchCtx, result); err != nil {
				slog.WarnContext(fetchCtx, "Failed to mirror result", "source", source, "error", err)
			}
		}
		return result, nil
	})

	// every caller sharing the flight gets its own copy
	return v.(*games.SourceResult).Clone()
}

func (c *ResultCache) store(result *games.SourceResult, storedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[result.SourceName] = entry{value: result.Clone(), storedAt: storedAt}
}

// Prime seeds an entry, typically from a snapshot taken before a restart.
// Failed results and entries older than the current one are ignored.
func (c *ResultCache) Prime(result *games.SourceResult, storedAt time.Time) bool {
	if result.Failed() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[result.SourceName]; ok && !cur.storedAt.Before(storedAt) {
		return false
	}
	c.entries[result.SourceName] = entry{value: result.Clone(), storedAt: storedAt}
	return true
}

// Sweep removes entries older than the TTL and returns how many were removed
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for source, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, source)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done
func (c *ResultCache) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	slog.DebugContext(ctx, "Cache sweeper started", "interval", interval, "ttl", c.ttl)

	for {
		select {
		case <-ticker.C():
			if removed := c.Sweep(); removed > 0 {
				slog.DebugContext(ctx, "Swept expired cache entries", "removed", removed)
				c.metrics.RecordEvictions(ctx, int64(removed))
			}
		case <-ctx.Done():
			slog.DebugContext(ctx, "Cache sweeper stopping")
			return
		}
	}
}

// Len returns the number of stored entries, fresh or not
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot describes every entry, ordered by source name
func (c *ResultCache) Snapshot() []EntryInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	out := make([]EntryInfo, 0, len(c.entries))
	for source, e := range c.entries {
		out = append(out, EntryInfo{
			Source:     source,
			StoredAt:   e.storedAt,
			AgeSeconds: now.Sub(e.storedAt).Seconds(),
			Fresh:      c.fresh(e),
			TotalCount: e.value.TotalCount,
		})
	}
	slices.SortFunc(out, func(a, b EntryInfo) int {
		return cmp.Compare(a.Source, b.Source)
	})
	return out
}

// fresh must be called with mu held
func (c *ResultCache) fresh(e entry) bool {
	return c.clock.Since(e.storedAt) < c.ttl
}
