// Package api provides the REST API server for horror game listings.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nightfeed/horror-aggregator/internal/api/common"
	"github.com/nightfeed/horror-aggregator/internal/api/health"
	"github.com/nightfeed/horror-aggregator/internal/api/ops"
	"github.com/nightfeed/horror-aggregator/internal/api/platforms"
	xmetadata "github.com/nightfeed/horror-aggregator/internal/api/x/metadata"
	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/metadata"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/sync/coordinator"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	cacheTTL       time.Duration
	corsOrigins    []string
	coordinator    coordinator.Coordinator
	inspector      ops.CacheInspector
	metadata       metadata.Provider
	metricsHandler http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithCacheTTL sets the TTL advertised in Cache-Control headers
func WithCacheTTL(ttl time.Duration) ServerOption {
	return func(cfg *serverConfig) {
		cfg.cacheTTL = ttl
	}
}

// WithCORSOrigins allows browser requests from the given origins
func WithCORSOrigins(origins ...string) ServerOption {
	return func(cfg *serverConfig) {
		cfg.corsOrigins = append(cfg.corsOrigins, origins...)
	}
}

// WithSyncRoutes mounts /sync backed by the coordinator
func WithSyncRoutes(coord coordinator.Coordinator, inspector ops.CacheInspector) ServerOption {
	return func(cfg *serverConfig) {
		cfg.coordinator = coord
		cfg.inspector = inspector
	}
}

// WithMetadataProvider sets the provider behind /metadata; without one those routes answer 503
func WithMetadataProvider(p metadata.Provider) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metadata = p
	}
}

// WithMetricsHandler mounts a Prometheus scrape handler at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// NewServer creates the HTTP router for the platform service
func NewServer(svc service.PlatformService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		cacheTTL: cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	if len(cfg.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Cache-Control"},
			MaxAge:         300,
		}))
	}
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Mount("/", health.Router(svc))
	r.Mount("/platforms", platforms.Router(svc, cfg.cacheTTL))
	r.Mount("/metadata", xmetadata.Router(cfg.metadata))

	if cfg.coordinator != nil {
		r.Mount("/sync", ops.Router(svc, cfg.coordinator, cfg.inspector))
	}
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteErrorResponse(w, "Not found", http.StatusNotFound)
	})

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
