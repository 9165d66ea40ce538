// Package ops exposes on-demand sync passes and sync status.
package ops

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/nightfeed/horror-aggregator/internal/api/common"
	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/games"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/internal/sync/coordinator"
)

// CacheInspector exposes cache ages for the status endpoint
type CacheInspector interface {
	Snapshot() []cache.EntryInfo
}

// SyncRequest is the optional body of POST /sync
type SyncRequest struct {
	Platforms []string `json:"platforms"`
}

// StatusResponse is the body of GET /sync/status
type StatusResponse struct {
	LastRun *games.SyncRunReport `json:"lastRun"`
	Cache   []cache.EntryInfo    `json:"cache"`
}

// Routes handles the sync endpoints
type Routes struct {
	service     service.PlatformService
	coordinator coordinator.Coordinator
	inspector   CacheInspector
}

// Router mounts POST / and GET /status
func Router(svc service.PlatformService, coord coordinator.Coordinator, inspector CacheInspector) http.Handler {
	routes := &Routes{
		service:     svc,
		coordinator: coord,
		inspector:   inspector,
	}

	r := chi.NewRouter()
	r.Post("/", routes.runSync)
	r.Get("/status", routes.status)

	return r
}

// runSync handles POST /sync. Without a body every source is refreshed.
func (routes *Routes) runSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := common.DecodeJSONBody(r, &req); err != nil && !errors.Is(err, common.ErrEmptyBody) {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	targets, err := routes.resolve(req.Platforms)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	report := routes.coordinator.RunOnce(r.Context(), targets...)
	common.WriteJSONResponse(w, report, http.StatusOK)
}

// resolve maps requested names onto canonical sources; "all" or no names means every source
func (routes *Routes) resolve(names []string) ([]string, error) {
	var out []string
	for _, name := range names {
		canonical, err := routes.service.Canonical(name)
		if err != nil {
			return nil, err
		}
		if canonical == sources.SourceAll {
			return nil, nil
		}
		if !slices.Contains(out, canonical) {
			out = append(out, canonical)
		}
	}
	return out, nil
}

// status handles GET /sync/status
func (routes *Routes) status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		LastRun: routes.coordinator.LastReport(),
		Cache:   []cache.EntryInfo{},
	}
	if routes.inspector != nil {
		resp.Cache = routes.inspector.Snapshot()
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}
