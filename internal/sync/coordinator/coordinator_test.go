package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

var epoch = time.Date(2026, 10, 31, 18, 0, 0, 0, time.UTC)

// scriptedFetch returns games for every source except the ones marked as failing
type scriptedFetch struct {
	mu      sync.Mutex
	failing map[string]bool
	calls   map[string]int
}

func newScriptedFetch() *scriptedFetch {
	return &scriptedFetch{failing: map[string]bool{}, calls: map[string]int{}}
}

func (s *scriptedFetch) setFailing(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = map[string]bool{}
	for _, n := range names {
		s.failing[n] = true
	}
}

func (s *scriptedFetch) count(source string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[source]
}

func (s *scriptedFetch) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *scriptedFetch) fetch(_ context.Context, source string) *games.SourceResult {
	s.mu.Lock()
	s.calls[source]++
	fail := s.failing[source]
	s.mu.Unlock()

	if fail {
		return games.NewFailedResult(source, errors.New("giving up after 3 attempts: HTTP 503"), epoch, 0)
	}
	return games.NewResult(source, []games.GameRecord{
		{ID: source + "-0", Title: "Outlast", Rating: 4.5},
		{ID: source + "-1", Title: "Soma", Rating: 4.7},
	}, epoch, 0)
}

type refresherFunc func(ctx context.Context, source string) *games.SourceResult

func (f refresherFunc) Refresh(ctx context.Context, source string) *games.SourceResult {
	return f(ctx, source)
}

func TestCoordinator_New(t *testing.T) {
	t.Parallel()

	c := New(refresherFunc(newScriptedFetch().fetch), sources.SupportedNames())
	require.NotNil(t, c)
	assert.Nil(t, c.LastReport())

	impl := c.(*defaultCoordinator)
	assert.Equal(t, DefaultInterval, impl.interval)

	c = New(refresherFunc(newScriptedFetch().fetch), nil, WithInterval(-time.Second))
	assert.Equal(t, DefaultInterval, c.(*defaultCoordinator).interval)
}

func TestCoordinator_Stop_BeforeStart(t *testing.T) {
	t.Parallel()

	c := New(refresherFunc(newScriptedFetch().fetch), sources.SupportedNames())

	// Stop should not panic if called before Start, and is repeatable
	assert.NoError(t, c.Stop())
	assert.NoError(t, c.Stop())

	// a stopped coordinator does not schedule passes
	assert.NoError(t, c.Start(context.Background()))
	assert.Nil(t, c.LastReport())
}

func TestRunOnce_PartialFailureRetainsStaleData(t *testing.T) {
	t.Parallel()

	fetch := newScriptedFetch()
	clk := testingclock.NewFakeClock(epoch)
	resultCache := cache.New(fetch.fetch, cache.WithClock(clk))
	c := New(resultCache, sources.SupportedNames(), WithClock(clk))
	ctx := context.Background()

	first := c.RunOnce(ctx)
	assert.Equal(t, 5, first.Succeeded())
	assert.Equal(t, 0, first.Failed())

	fetch.setFailing(sources.SourceXbox, sources.SourceRoblox)
	clk.Step(time.Minute)

	report := c.RunOnce(ctx)
	require.Len(t, report.PerSource, 5)
	assert.Equal(t, 3, report.Succeeded())
	assert.Equal(t, 2, report.Failed())
	assert.NotEmpty(t, report.RunID)
	assert.NotEqual(t, first.RunID, report.RunID)
	assert.Same(t, report, c.LastReport())

	for _, name := range []string{sources.SourceSteam, sources.SourcePlayStation, sources.SourceNintendo} {
		outcome := report.PerSource[name]
		assert.True(t, outcome.Success, name)
		assert.Equal(t, 2, outcome.GamesCount, name)
		assert.Equal(t, games.SyncPhaseUpdated, outcome.Phase, name)
	}

	for _, name := range []string{sources.SourceXbox, sources.SourceRoblox} {
		outcome := report.PerSource[name]
		assert.False(t, outcome.Success, name)
		assert.Equal(t, games.SyncPhaseFailedRetained, outcome.Phase, name)
		assert.Contains(t, outcome.Error, "HTTP 503", name)

		// the first pass's listings are still served
		stale, ok := resultCache.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, 2, stale.TotalCount, name)
		assert.True(t, epoch.Equal(stale.FetchedAt), name)
	}
}

func TestRunOnce_Subset(t *testing.T) {
	t.Parallel()

	fetch := newScriptedFetch()
	c := New(refresherFunc(fetch.fetch), sources.SupportedNames())

	report := c.RunOnce(context.Background(), sources.SourceSteam)
	assert.Len(t, report.PerSource, 1)
	assert.Contains(t, report.PerSource, sources.SourceSteam)
	assert.Equal(t, 1, fetch.total())
}

func TestRunOnce_NilResult(t *testing.T) {
	t.Parallel()

	c := New(refresherFunc(func(context.Context, string) *games.SourceResult { return nil }), []string{"steam"})

	report := c.RunOnce(context.Background())
	outcome := report.PerSource["steam"]
	assert.False(t, outcome.Success)
	assert.Equal(t, games.SyncPhaseFailedRetained, outcome.Phase)
	assert.NotEmpty(t, outcome.Error)
}

func TestRunOnce_RecordsSyncDuration(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewSyncMetrics(mp)
	require.NoError(t, err)

	fetch := newScriptedFetch()
	fetch.setFailing(sources.SourceSteam)
	c := New(refresherFunc(fetch.fetch), []string{sources.SourceSteam, sources.SourceXbox}, WithSyncMetrics(metrics))
	c.RunOnce(context.Background())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var points int
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if hist, ok := m.Data.(metricdata.Histogram[float64]); ok {
				points += len(hist.DataPoints)
			}
		}
	}
	assert.Equal(t, 2, points, "one data point per source and success flag")
}

func TestCoordinator_StartRunsOnSchedule(t *testing.T) {
	t.Parallel()

	fetch := newScriptedFetch()
	clk := testingclock.NewFakeClock(epoch)
	names := sources.SupportedNames()
	c := New(refresherFunc(fetch.fetch), names, WithClock(clk), WithInterval(time.Minute))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(context.Background()) }()

	// initial pass happens without waiting for the interval
	require.Eventually(t, func() bool { return c.LastReport() != nil }, time.Second, time.Millisecond)
	assert.Equal(t, len(names), fetch.total())

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(time.Minute)
	require.Eventually(t, func() bool { return fetch.count(sources.SourceSteam) == 2 }, time.Second, time.Millisecond)

	// second Start is rejected while running
	assert.ErrorIs(t, c.Start(context.Background()), errAlreadyStarted)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestCoordinator_StartReturnsOnContextCancel(t *testing.T) {
	t.Parallel()

	clk := testingclock.NewFakeClock(epoch)
	c := New(refresherFunc(newScriptedFetch().fetch), []string{sources.SourceRoblox}, WithClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return c.LastReport() != nil }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}

	// Stop after the loop already exited must not block
	assert.NoError(t, c.Stop())
}
