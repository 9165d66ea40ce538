// Package coordinator schedules background sync passes over every source.
//
// A pass refreshes each source concurrently through a Refresher (the result
// cache in production) and records one games.SourceOutcome per source in a
// games.SyncRunReport. A failed source never affects the others, and a
// failed refresh leaves the previously cached listings in place.
//
// # Core Interface
//
//	type Coordinator interface {
//	    Start(ctx context.Context) error                             // initial pass, then one pass per interval
//	    Stop() error                                                 // idempotent, safe before Start
//	    RunOnce(ctx context.Context, sources ...string) *games.SyncRunReport
//	    LastReport() *games.SyncRunReport
//	}
//
// # Usage Example
//
//	resultCache := cache.New(pkgsync.FetchFunc(manager))
//	coord := coordinator.New(resultCache, registry.Names(),
//	    coordinator.WithInterval(5*time.Minute),
//	)
//
//	go func() {
//	    if err := coord.Start(ctx); err != nil {
//	        slog.Error("Sync coordinator failed", "error", err)
//	    }
//	}()
//
//	// ... run server ...
//
//	_ = coord.Stop()
//
// # Per-Source Phases
//
// Within a pass each source moves Idle → Fetching → Updated when the refresh
// succeeds, or Idle → Fetching → FailedRetained when it fails. Every transition
// is logged, and the final phase is recorded in the report.
//
// # Time
//
// The interval ticker comes from a k8s.io/utils/clock.WithTicker, so tests
// drive passes with a fake clock instead of sleeping.
package coordinator
