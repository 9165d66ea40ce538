// Package sources provides the per-platform fetchers that pull horror listings from storefronts
package sources

import (
	"context"
	"errors"
	"fmt"
)

// Canonical source names
const (
	SourceSteam       = "steam"
	SourcePlayStation = "playstation"
	SourceXbox        = "xbox"
	SourceNintendo    = "nintendo"
	SourceRoblox      = "roblox"

	// SourceAll is the aggregate pseudo-source
	SourceAll = "all"
)

// ErrUnsupportedSource is matched by every UnsupportedSourceError
var ErrUnsupportedSource = errors.New("unsupported source")

// UnsupportedSourceError is returned when a name is not in the allow-list
type UnsupportedSourceError struct {
	Name string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source: %s", e.Name)
}

// Is makes errors.Is(err, ErrUnsupportedSource) work
func (*UnsupportedSourceError) Is(target error) bool {
	return target == ErrUnsupportedSource
}

// Votes carries up/down vote totals for sources that rate by votes
type Votes struct {
	Up   int64
	Down int64
}

// RawRecord is a listing as extracted from a source page, before normalization.
// Text fields hold what the page shows verbatim (e.g. "92%", "12,345", "$19.99").
type RawRecord struct {
	Title       string
	Description string
	ImageURL    string
	Rating      string
	ReviewCount string
	Votes       *Votes
	Price       string
	ReleaseDate string
	Platforms   []string
	Genres      []string
	URL         string
	PlayURL     string
}

// Fetcher retrieves raw listings from one source
//
//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/nightfeed/horror-aggregator/internal/sources Fetcher
type Fetcher interface {
	// Name returns the canonical source name
	Name() string

	// Fetch performs one HTTP request and extracts up to the source's cap of records.
	// An empty slice with a nil error means the page had no matching listings.
	Fetch(ctx context.Context) ([]RawRecord, error)
}
