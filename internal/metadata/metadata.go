// Package metadata looks up extended game details from an external catalogue.
// Lookups are single calls without retries; callers surface failures directly.
package metadata

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when no provider credentials are set
	ErrNotConfigured = errors.New("metadata provider not configured")
	// ErrInvalidID is returned for ids the provider cannot parse
	ErrInvalidID = errors.New("invalid metadata id")
	// ErrNotFound is returned when the provider has no record for an id
	ErrNotFound = errors.New("metadata record not found")
)

// Record is one catalogue entry
type Record struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Rating      float64 `json:"rating"`
	ReleaseDate string  `json:"releaseDate"`
	Provider    string  `json:"provider"`
}

// Provider is an external metadata catalogue
//
//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/nightfeed/horror-aggregator/internal/metadata Provider
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Record, error)
	Detail(ctx context.Context, id string) (*Record, error)
}
