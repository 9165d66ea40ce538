// Package sync runs the fetch pipeline for a single source: resolve the source,
// fetch it under the retry policy, normalize the listings, and package the
// outcome as a games.SourceResult.
//
// # Errors As Data
//
// Manager.PerformSync never returns a nil result. Every failure, including a
// panic inside an extractor, is converted into a SourceResult whose Error field
// is set and whose Games slice is empty. The accompanying *Error carries a
// machine-readable Reason for logging and metrics:
//
//   - ReasonUnsupportedSource: the name is not on the allow-list
//   - ReasonFetchFailed: the request failed on every attempt, or with a status retrying cannot fix
//   - ReasonExtractionFailed: the body arrived but could not be parsed
//   - ReasonPanic: the pipeline panicked and was recovered
//
// # Coordinator Package
//
// The sync/coordinator subpackage schedules periodic passes over every source
// and records a games.SyncRunReport per pass. It reaches the pipeline through
// the result cache, so scheduled passes and on-demand reads share one upstream
// fetch per source.
package sync
