// Package service answers platform lookups from the result cache: one source,
// every source merged, or a batch of names fetched in parallel.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/normalize"
	"github.com/nightfeed/horror-aggregator/internal/otel"
	"github.com/nightfeed/horror-aggregator/internal/sources"
)

// TracerName is the name used for the platform service tracer
const TracerName = "github.com/nightfeed/horror-aggregator/service"

var (
	// ErrInvalidPlatform is matched by every InvalidPlatformError
	ErrInvalidPlatform = errors.New("invalid platform")
	// ErrNotReady is returned by CheckReadiness before the first sync pass completes
	ErrNotReady = errors.New("initial sync pass has not completed")
)

// InvalidPlatformError reports a platform name that is neither a source nor "all"
type InvalidPlatformError struct {
	Name string
}

func (e *InvalidPlatformError) Error() string {
	return "Invalid platform: " + e.Name
}

// Is lets errors.Is match ErrInvalidPlatform
func (*InvalidPlatformError) Is(target error) bool {
	return target == ErrInvalidPlatform
}

// Reader is the read side of the result cache
type Reader interface {
	GetOrFetch(ctx context.Context, source string) *games.SourceResult
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go PlatformService

// PlatformService defines the platform lookup operations
type PlatformService interface {
	// CheckReadiness reports whether listings can be served
	CheckReadiness(ctx context.Context) error

	// Platform returns the result for one platform name, or the merged result for "all"
	Platform(ctx context.Context, name string) (*games.SourceResult, error)

	// Batch resolves every name in parallel. Invalid names map to a result carrying the error.
	Batch(ctx context.Context, names []string) map[string]*games.SourceResult

	// Canonical resolves aliases and case to a registered source name
	Canonical(name string) (string, error)

	// Sources lists the registered source names
	Sources() []string
}

// Option configures the platform service
type Option func(*platformService)

// WithReadiness sets the check used by CheckReadiness; without one the service is always ready
func WithReadiness(ready func() bool) Option {
	return func(s *platformService) {
		s.ready = ready
	}
}

// WithClock sets the clock used for aggregate timestamps
func WithClock(c clock.PassiveClock) Option {
	return func(s *platformService) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTracer sets the tracer used for aggregate and batch spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *platformService) {
		s.tracer = tracer
	}
}

type platformService struct {
	registry *sources.Registry
	reader   Reader
	ready    func() bool
	clock    clock.PassiveClock
	tracer   trace.Tracer
}

// New creates a platform service reading through reader
func New(registry *sources.Registry, reader Reader, opts ...Option) PlatformService {
	s := &platformService{
		registry: registry,
		reader:   reader,
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *platformService) CheckReadiness(_ context.Context) error {
	if s.ready != nil && !s.ready() {
		return ErrNotReady
	}
	return nil
}

func (s *platformService) Canonical(name string) (string, error) {
	if sources.IsAggregate(name) {
		return sources.SourceAll, nil
	}
	canonical, err := s.registry.Canonical(name)
	if err != nil {
		return "", &InvalidPlatformError{Name: name}
	}
	return canonical, nil
}

func (s *platformService) Sources() []string {
	return s.registry.Names()
}

func (s *platformService) Platform(ctx context.Context, name string) (*games.SourceResult, error) {
	canonical, err := s.Canonical(name)
	if err != nil {
		return nil, err
	}
	if canonical == sources.SourceAll {
		return s.aggregate(ctx), nil
	}
	return s.reader.GetOrFetch(ctx, canonical), nil
}

// aggregate merges every source. Failed sources are skipped; the merged
// result only carries an error when no source succeeded.
func (s *platformService) aggregate(ctx context.Context) *games.SourceResult {
	names := s.registry.Names()
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.Aggregate",
		trace.WithAttributes(otel.AttrSourceCount.Int(len(names))),
	)
	defer span.End()

	start := s.clock.Now()
	results := s.fetchAll(ctx, names)

	merged := make([]games.GameRecord, 0)
	var failures []string
	for _, name := range names {
		r := results[name]
		if r.Failed() {
			failures = append(failures, fmt.Sprintf("%s: %s", name, r.Error))
			continue
		}
		merged = append(merged, r.Games...)
	}
	normalize.SortByRating(merged)

	duration := s.clock.Since(start)
	if len(names) > 0 && len(failures) == len(names) {
		err := fmt.Errorf("all sources failed: %s", strings.Join(failures, "; "))
		otel.RecordError(span, err)
		return games.NewFailedResult(sources.SourceAll, err, s.clock.Now(), duration)
	}
	if len(failures) > 0 {
		slog.WarnContext(ctx, "Aggregate served without failed sources",
			"failed", len(failures),
			"sources", len(names))
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(merged)))
	return games.NewResult(sources.SourceAll, merged, s.clock.Now(), duration)
}

func (s *platformService) fetchAll(ctx context.Context, names []string) map[string]*games.SourceResult {
	out := make(map[string]*games.SourceResult, len(names))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			r := s.reader.GetOrFetch(ctx, name)
			mu.Lock()
			out[name] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *platformService) Batch(ctx context.Context, names []string) map[string]*games.SourceResult {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.Batch",
		trace.WithAttributes(otel.AttrSourceCount.Int(len(names))),
	)
	defer span.End()

	out := make(map[string]*games.SourceResult, len(names))
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, name := range names {
		g.Go(func() error {
			r, err := s.Platform(ctx, name)
			if err != nil {
				r = games.NewFailedResult(name, err, s.clock.Now(), 0)
			}
			mu.Lock()
			out[name] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

var _ PlatformService = (*platformService)(nil)

// CacheControl formats the Cache-Control value for listings cached for ttl
func CacheControl(ttl time.Duration) string {
	secs := int64(ttl / time.Second)
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", secs/2, secs)
}
