package sources

import (
	"context"
	"fmt"

	"github.com/nightfeed/horror-aggregator/internal/httpclient"
)

// ExtractionError wraps a failure to parse a successfully fetched body
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// httpFetcher fetches one page and hands it to the source's extractor
type httpFetcher struct {
	def       Definition
	client    httpclient.Client
	extractor Extractor
}

var _ Fetcher = (*httpFetcher)(nil)

// NewFetcher creates a fetcher for def using client for the request
func NewFetcher(def Definition, client httpclient.Client) (Fetcher, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("source name is required")
	}
	if def.URL == "" {
		return nil, fmt.Errorf("source %s: url is required", def.Name)
	}
	if client == nil {
		return nil, fmt.Errorf("source %s: http client is required", def.Name)
	}

	extractor, err := NewExtractor(def.Kind, def.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", def.Name, err)
	}

	return &httpFetcher{
		def:       def,
		client:    client,
		extractor: extractor,
	}, nil
}

func (f *httpFetcher) Name() string {
	return f.def.Name
}

// Fetch performs one GET and extracts at most MaxRecords listings
func (f *httpFetcher) Fetch(ctx context.Context) ([]RawRecord, error) {
	body, err := f.client.Get(ctx, f.def.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.def.Name, err)
	}

	records, err := f.extractor.Extract(body)
	if err != nil {
		return nil, &ExtractionError{Source: f.def.Name, Err: err}
	}

	if f.def.MaxRecords > 0 && len(records) > f.def.MaxRecords {
		records = records[:f.def.MaxRecords]
	}
	if records == nil {
		records = []RawRecord{}
	}
	return records, nil
}
