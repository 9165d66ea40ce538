// Package metadata serves extended game details from the metadata provider.
// Each request is one upstream call without retries.
package metadata

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nightfeed/horror-aggregator/internal/api/common"
	meta "github.com/nightfeed/horror-aggregator/internal/metadata"
)

// SearchResponse is the body of GET /search
type SearchResponse struct {
	Provider string        `json:"provider"`
	Query    string        `json:"query"`
	Results  []meta.Record `json:"results"`
}

// Routes handles the metadata endpoints
type Routes struct {
	provider meta.Provider
}

// Router mounts GET /search and GET /games/{id}. A nil provider answers 503.
func Router(provider meta.Provider) http.Handler {
	routes := &Routes{provider: provider}

	r := chi.NewRouter()
	r.Use(routes.requireProvider)
	r.Get("/search", routes.search)
	r.Get("/games/{id}", routes.detail)

	return r
}

func (routes *Routes) requireProvider(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if routes.provider == nil {
			common.WriteErrorResponse(w, meta.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (routes *Routes) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		common.WriteErrorResponse(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	results, err := routes.provider.Search(r.Context(), query)
	if err != nil {
		slog.WarnContext(r.Context(), "Metadata search failed", "provider", routes.provider.Name(), "error", err)
		common.WriteErrorResponse(w, "metadata provider request failed", http.StatusBadGateway)
		return
	}
	if results == nil {
		results = []meta.Record{}
	}

	common.WriteJSONResponse(w, SearchResponse{
		Provider: routes.provider.Name(),
		Query:    query,
		Results:  results,
	}, http.StatusOK)
}

func (routes *Routes) detail(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := routes.provider.Detail(r.Context(), id)
	switch {
	case err == nil:
		common.WriteJSONResponse(w, record, http.StatusOK)
	case errors.Is(err, meta.ErrInvalidID):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, meta.ErrNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	default:
		slog.WarnContext(r.Context(), "Metadata lookup failed", "provider", routes.provider.Name(), "id", id, "error", err)
		common.WriteErrorResponse(w, "metadata provider request failed", http.StatusBadGateway)
	}
}
