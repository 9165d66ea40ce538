// Package games defines the normalized listing model shared by every source.
package games

import (
	"time"
)

// Sentinels used when a source page does not expose a field.
const (
	// UnknownReviewCount marks a listing whose source shows no review count
	UnknownReviewCount = -1

	// UnknownPrice marks a listing whose source shows no price
	UnknownPrice = "Unknown"

	// UnknownReleaseDate marks a listing whose source shows no release date
	UnknownReleaseDate = "Unknown"

	// UnknownDescription is used when a source has no description text
	UnknownDescription = "No description available"

	// DefaultGenre is applied when a listing carries no genre tags
	DefaultGenre = "Horror"
)

// GameRecord is a single normalized game listing
type GameRecord struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	ImageURL         string   `json:"imageUrl"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"reviewCount"`
	Price            string   `json:"price"`
	ReleaseDate      string   `json:"releaseDate"`
	PlatformTags     []string `json:"platformTags"`
	GenreTags        []string `json:"genreTags"`
	ExternalURL      string   `json:"externalUrl,omitempty"`
	PlayableURL      string   `json:"playableUrl,omitempty"`
}

// SourceResult is the outcome of one fetch cycle for one source.
// A result carrying an error never carries games.
type SourceResult struct {
	SourceName      string       `json:"sourceName"`
	Games           []GameRecord `json:"games"`
	TotalCount      int          `json:"totalCount"`
	FetchedAt       time.Time    `json:"fetchedAt"`
	FetchDurationMs int64        `json:"fetchDurationMs"`
	Error           string       `json:"error,omitempty"`
}

// NewResult builds a successful result for the given records
func NewResult(source string, records []GameRecord, fetchedAt time.Time, duration time.Duration) *SourceResult {
	if records == nil {
		records = []GameRecord{}
	}
	return &SourceResult{
		SourceName:      source,
		Games:           records,
		TotalCount:      len(records),
		FetchedAt:       fetchedAt,
		FetchDurationMs: duration.Milliseconds(),
	}
}

// NewFailedResult builds an empty result carrying the error message
func NewFailedResult(source string, err error, fetchedAt time.Time, duration time.Duration) *SourceResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &SourceResult{
		SourceName:      source,
		Games:           []GameRecord{},
		TotalCount:      0,
		FetchedAt:       fetchedAt,
		FetchDurationMs: duration.Milliseconds(),
		Error:           msg,
	}
}

// Failed reports whether the result carries an error
func (r *SourceResult) Failed() bool {
	return r == nil || r.Error != ""
}

// Clone returns a deep copy so callers never share slices with the cache
func (r *SourceResult) Clone() *SourceResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Games = make([]GameRecord, len(r.Games))
	for i, g := range r.Games {
		out.Games[i] = g.clone()
	}
	return &out
}

func (g GameRecord) clone() GameRecord {
	out := g
	out.PlatformTags = append([]string(nil), g.PlatformTags...)
	out.GenreTags = append([]string(nil), g.GenreTags...)
	return out
}

// SyncPhase is the per-source state of a sync pass
type SyncPhase string

const (
	// SyncPhaseIdle means no pass is running for the source
	SyncPhaseIdle SyncPhase = "Idle"
	// SyncPhaseFetching means the pipeline is running for the source
	SyncPhaseFetching SyncPhase = "Fetching"
	// SyncPhaseUpdated means the cache entry was replaced with a fresh result
	SyncPhaseUpdated SyncPhase = "Updated"
	// SyncPhaseFailedRetained means the pass failed and the prior cache entry was kept
	SyncPhaseFailedRetained SyncPhase = "FailedRetained"
)

// SourceOutcome summarizes one source in a sync pass
type SourceOutcome struct {
	Success    bool      `json:"success"`
	GamesCount int       `json:"gamesCount"`
	Error      string    `json:"error,omitempty"`
	Phase      SyncPhase `json:"phase"`
}

// SyncRunReport collects every per-source outcome of one scheduler pass
type SyncRunReport struct {
	RunID      string                   `json:"runId"`
	StartedAt  time.Time                `json:"startedAt"`
	FinishedAt time.Time                `json:"finishedAt"`
	PerSource  map[string]SourceOutcome `json:"perSource"`
}

// Succeeded returns the number of successful sources in the report
func (r *SyncRunReport) Succeeded() int {
	n := 0
	for _, o := range r.PerSource {
		if o.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed sources in the report
func (r *SyncRunReport) Failed() int {
	return len(r.PerSource) - r.Succeeded()
}
