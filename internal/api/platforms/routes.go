// Package platforms serves game listings per platform.
package platforms

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nightfeed/horror-aggregator/internal/api/common"
	"github.com/nightfeed/horror-aggregator/internal/filtering"
	"github.com/nightfeed/horror-aggregator/internal/service"
)

// BatchRequest is the body of POST /platforms
type BatchRequest struct {
	Platforms []string `json:"platforms"`
}

// Routes handles the platform endpoints
type Routes struct {
	service      service.PlatformService
	filter       filtering.FilterService
	cacheControl string
}

// NewRoutes creates a new Routes instance. ttl is the result cache TTL used for Cache-Control.
func NewRoutes(svc service.PlatformService, ttl time.Duration) *Routes {
	return &Routes{
		service:      svc,
		filter:       filtering.NewDefaultFilterService(),
		cacheControl: service.CacheControl(ttl),
	}
}

// Router mounts GET /{name} and POST /
func Router(svc service.PlatformService, ttl time.Duration) http.Handler {
	routes := NewRoutes(svc, ttl)

	r := chi.NewRouter()
	r.Get("/{name}", routes.getPlatform)
	r.Post("/", routes.batch)

	return r
}

// getPlatform handles GET /platforms/{name}.
// A failed fetch is still a 200; the error travels in the result body.
// Optional query parameters narrow the listing, see package filtering.
func (routes *Routes) getPlatform(w http.ResponseWriter, r *http.Request) {
	name, err := common.GetAndValidateURLParam(r, "name")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	criteria, err := filtering.ParseQuery(r.URL.Query())
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := routes.service.Platform(r.Context(), name)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlatform) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Platform lookup failed", "platform", name, "error", err)
		common.WriteErrorResponse(w, "Failed to load platform", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", routes.cacheControl)
	common.WriteJSONResponse(w, routes.filter.Apply(result, criteria), http.StatusOK)
}

// batch handles POST /platforms
func (routes *Routes) batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := common.DecodeJSONBody(r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Platforms) == 0 {
		common.WriteErrorResponse(w, "platforms must be a non-empty list", http.StatusBadRequest)
		return
	}

	results := routes.service.Batch(r.Context(), req.Platforms)

	w.Header().Set("Cache-Control", routes.cacheControl)
	common.WriteJSONResponse(w, results, http.StatusOK)
}
