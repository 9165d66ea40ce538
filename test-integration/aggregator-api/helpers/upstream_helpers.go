package helpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nightfeed/horror-aggregator/internal/sources"
)

// UpstreamHelper serves recorded storefront pages, one path per source
type UpstreamHelper struct {
	server   *httptest.Server
	fixtures map[string][]byte

	mu      sync.Mutex
	failing map[string]bool
	hits    map[string]int
}

// fixtureFile names the recorded page for each source
func fixtureFile(source string) string {
	if source == sources.SourceRoblox {
		return source + ".json"
	}
	return source + ".html"
}

// NewUpstreamHelper loads every source fixture from dir and starts serving them
func NewUpstreamHelper(dir string) (*UpstreamHelper, error) {
	u := &UpstreamHelper{
		fixtures: make(map[string][]byte),
		failing:  make(map[string]bool),
		hits:     make(map[string]int),
	}

	for _, name := range sources.SupportedNames() {
		data, err := os.ReadFile(filepath.Join(dir, fixtureFile(name)))
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture for %s: %w", name, err)
		}
		u.fixtures[name] = data
	}

	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	return u, nil
}

func (u *UpstreamHelper) serve(w http.ResponseWriter, r *http.Request) {
	source := strings.Trim(r.URL.Path, "/")

	u.mu.Lock()
	u.hits[source]++
	failing := u.failing[source]
	u.mu.Unlock()

	body, ok := u.fixtures[source]
	switch {
	case !ok:
		http.NotFound(w, r)
	case failing:
		http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
	default:
		if strings.HasSuffix(fixtureFile(source), ".json") {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write(body)
	}
}

// URL returns the listing URL for source
func (u *UpstreamHelper) URL(source string) string {
	return u.server.URL + "/" + source
}

// SetFailing makes source answer 503 until reset
func (u *UpstreamHelper) SetFailing(source string, failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[source] = failing
}

// Hits returns how many requests source received
func (u *UpstreamHelper) Hits(source string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[source]
}

// Close stops the upstream server
func (u *UpstreamHelper) Close() {
	u.server.Close()
}
