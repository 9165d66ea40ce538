package sources

import (
	"fmt"
	"time"

	"github.com/nightfeed/horror-aggregator/internal/httpclient"
)

// FetcherFactory creates fetchers from source definitions
//
//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks github.com/nightfeed/horror-aggregator/internal/sources FetcherFactory
type FetcherFactory interface {
	CreateFetcher(def Definition) (Fetcher, error)
}

// ClientSettings controls the HTTP client built for each source
type ClientSettings struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// defaultFetcherFactory gives every source its own client so rate limits are per source
type defaultFetcherFactory struct {
	settings ClientSettings
}

var _ FetcherFactory = (*defaultFetcherFactory)(nil)

// NewFetcherFactory creates a new fetcher factory
func NewFetcherFactory(settings ClientSettings) FetcherFactory {
	return &defaultFetcherFactory{settings: settings}
}

// CreateFetcher creates a fetcher for the given definition
func (f *defaultFetcherFactory) CreateFetcher(def Definition) (Fetcher, error) {
	switch def.Kind {
	case ExtractorSteam, ExtractorPlayStation, ExtractorXbox, ExtractorNintendo, ExtractorRoblox:
	default:
		return nil, fmt.Errorf("unsupported source type: %s", def.Kind)
	}

	opts := []httpclient.Option{
		httpclient.WithRateLimit(f.settings.RequestsPerSecond, f.settings.Burst),
	}
	if def.Accept != "" {
		opts = append(opts, httpclient.WithAccept(def.Accept))
	}

	return NewFetcher(def, httpclient.NewDefaultClient(f.settings.Timeout, opts...))
}
