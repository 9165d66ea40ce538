package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/nightfeed/horror-aggregator/internal/api"
	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/config"
	"github.com/nightfeed/horror-aggregator/internal/metadata"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/snapshot"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	pkgsync "github.com/nightfeed/horror-aggregator/internal/sync"
	"github.com/nightfeed/horror-aggregator/internal/sync/coordinator"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second

	// warmStartTimeout bounds the snapshot load at startup
	warmStartTimeout = 5 * time.Second
)

// AggregatorAppOptions is a function that configures the aggregator app builder
type AggregatorAppOptions func(*aggregatorAppConfig) error

// aggregatorAppConfig collects everything needed to build an AggregatorApp.
// Component overrides exist so tests can swap out network-facing parts.
type aggregatorAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	fetcherFactory   sources.FetcherFactory
	syncManager      pkgsync.Manager
	snapshotStore    *snapshot.Store
	metadataProvider metadata.Provider
	clock            clock.WithTicker

	// HTTP server options
	address      string
	middlewares  []func(http.Handler) http.Handler
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...AggregatorAppOptions) (*aggregatorAppConfig, error) {
	cfg := &aggregatorAppConfig{
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		idleTimeout:  defaultIdleTimeout,
		clock:        clock.RealClock{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.GetAddress()
	}
	// the write timeout must outlast the handler timeout so the timeout middleware can answer
	if rt := cfg.config.Server.GetRequestTimeout(); cfg.writeTimeout <= rt {
		cfg.writeTimeout = rt + 5*time.Second
	}

	return cfg, nil
}

// NewAggregatorApp builds every component from the configuration and wires them together
func NewAggregatorApp(
	ctx context.Context,
	opts ...AggregatorAppOptions,
) (*AggregatorApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	registry, err := buildSourceComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build source components: %w", err)
	}

	resultCache, store, primed, err := buildCacheComponents(ctx, cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache components: %w", err)
	}

	// Close the snapshot store if anything below fails
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && store != nil {
			_ = store.Close()
		}
	}()

	syncCoordinator, err := buildSyncComponents(cfg, registry, resultCache)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	platformService := buildServiceComponents(cfg, registry, resultCache, syncCoordinator, primed)

	provider := buildMetadataProvider(ctx, cfg)

	components := &AppComponents{
		Registry:        registry,
		Cache:           resultCache,
		SyncCoordinator: syncCoordinator,
		PlatformService: platformService,
		Snapshot:        store,
		Metadata:        provider,
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	cleanupNeeded = false

	return &AggregatorApp{
		config:      cfg.config,
		components:  components,
		httpServer:  httpServer,
		ctx:         appCtx,
		cancelFunc:  cancel,
		sweeperDone: make(chan struct{}),
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the configured HTTP server address
func WithAddress(addr string) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithFetcherFactory allows injecting a custom fetcher factory (for testing)
func WithFetcherFactory(f sources.FetcherFactory) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.fetcherFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithSnapshotStore uses an existing snapshot store instead of connecting from config
func WithSnapshotStore(store *snapshot.Store) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.snapshotStore = store
		return nil
	}
}

// WithMetadataProvider uses p instead of building one from credentials
func WithMetadataProvider(p metadata.Provider) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.metadataProvider = p
		return nil
	}
}

// WithClock sets the clock shared by the cache and the scheduler
func WithClock(c clock.WithTicker) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		if c == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(mp metric.MeterProvider) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler mounts h at /metrics
func WithMetricsHandler(h http.Handler) AggregatorAppOptions {
	return func(cfg *aggregatorAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSourceComponents builds the source registry from the configured definitions
func buildSourceComponents(b *aggregatorAppConfig) (*sources.Registry, error) {
	slog.Info("Initializing sources")

	if b.fetcherFactory == nil {
		b.fetcherFactory = sources.NewFetcherFactory(b.config.Fetch.ClientSettings())
	}

	registry, err := sources.NewRegistryFromDefinitions(
		b.fetcherFactory,
		b.config.Definitions(),
		sources.WithAliases(b.config.GetAliases()),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("Sources initialized", "sources", registry.Names())
	return registry, nil
}

// buildCacheComponents builds the sync manager and the result cache, then warms the cache
// from the snapshot store when one is configured. primed is the number of restored entries.
func buildCacheComponents(
	ctx context.Context,
	b *aggregatorAppConfig,
	registry *sources.Registry,
) (*cache.ResultCache, *snapshot.Store, int, error) {
	slog.Info("Initializing cache components")

	if b.syncManager == nil {
		managerOpts := []pkgsync.Option{
			pkgsync.WithRetryPolicy(b.config.Retry.Policy()),
			pkgsync.WithClock(b.clock),
		}
		if b.tracerProvider != nil {
			managerOpts = append(managerOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(pkgsync.TracerName)))
		}
		sourceMetrics, err := telemetry.NewSourceMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("failed to create source metrics: %w", err)
		}
		if sourceMetrics != nil {
			managerOpts = append(managerOpts, pkgsync.WithSourceMetrics(sourceMetrics))
		}
		b.syncManager = pkgsync.NewDefaultSyncManager(registry, managerOpts...)
	}

	cacheOpts := []cache.Option{
		cache.WithTTL(b.config.Cache.GetTTL()),
		cache.WithClock(b.clock),
	}

	cacheMetrics, err := telemetry.NewCacheMetrics(b.meterProvider)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to create cache metrics: %w", err)
	}
	if cacheMetrics != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics(cacheMetrics))
	}

	store := b.snapshotStore
	if store == nil && b.config.Snapshot.Enabled {
		store = connectSnapshotStore(ctx, b)
	}
	if store != nil {
		cacheOpts = append(cacheOpts, cache.WithMirror(store))
	}

	resultCache := cache.New(pkgsync.FetchFunc(b.syncManager), cacheOpts...)

	primed := 0
	if store != nil {
		primed = warmStart(ctx, store, resultCache, registry.Names())
	}

	slog.Info("Cache components initialized", "ttl", resultCache.TTL(), "primed", primed)
	return resultCache, store, primed, nil
}

// connectSnapshotStore connects to redis. An unreachable server only disables the mirror.
func connectSnapshotStore(ctx context.Context, b *aggregatorAppConfig) *snapshot.Store {
	snap := b.config.Snapshot
	store, err := snapshot.Connect(ctx, snap.Address, snap.GetPassword(), snap.DB,
		snapshot.WithKeyPrefix(snap.GetKeyPrefix()),
		snapshot.WithTTL(snap.GetTTL()),
		snapshot.WithClock(b.clock),
	)
	if err != nil {
		slog.Warn("Snapshot store unavailable, continuing without it", "address", snap.Address, "error", err)
		return nil
	}
	slog.Info("Snapshot store connected", "address", snap.Address)
	return store
}

// warmStart seeds the cache with the last good result of each source
func warmStart(ctx context.Context, store *snapshot.Store, c *cache.ResultCache, names []string) int {
	loadCtx, cancel := context.WithTimeout(ctx, warmStartTimeout)
	defer cancel()

	entries, err := store.Load(loadCtx, names)
	if err != nil {
		slog.Warn("Failed to load snapshots", "error", err)
		return 0
	}

	primed := 0
	for _, e := range entries {
		if c.Prime(e.Result, e.SavedAt) {
			primed++
		}
	}
	return primed
}

// buildSyncComponents builds the background sync coordinator
func buildSyncComponents(
	b *aggregatorAppConfig,
	registry *sources.Registry,
	resultCache *cache.ResultCache,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	coordOpts := []coordinator.Option{
		coordinator.WithInterval(b.config.Sync.GetInterval()),
		coordinator.WithClock(b.clock),
	}

	syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	if syncMetrics != nil {
		coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
		slog.Info("Sync metrics enabled")
	}

	syncCoordinator := coordinator.New(resultCache, registry.Names(), coordOpts...)
	slog.Info("Sync components initialized", "interval", b.config.Sync.GetInterval(), "enabled", b.config.Sync.IsEnabled())

	return syncCoordinator, nil
}

// buildServiceComponents builds the platform service.
// With background sync enabled the service is ready once a pass finished or a snapshot was restored.
func buildServiceComponents(
	b *aggregatorAppConfig,
	registry *sources.Registry,
	resultCache *cache.ResultCache,
	syncCoordinator coordinator.Coordinator,
	primed int,
) service.PlatformService {
	svcOpts := []service.Option{
		service.WithClock(b.clock),
	}
	if b.config.Sync.IsEnabled() {
		svcOpts = append(svcOpts, service.WithReadiness(func() bool {
			return primed > 0 || syncCoordinator.LastReport() != nil
		}))
	}
	if b.tracerProvider != nil {
		svcOpts = append(svcOpts, service.WithTracer(b.tracerProvider.Tracer(service.TracerName)))
	}

	return service.New(registry, resultCache, svcOpts...)
}

// buildMetadataProvider returns the injected provider, or an IGDB provider when credentials exist
func buildMetadataProvider(ctx context.Context, b *aggregatorAppConfig) metadata.Provider {
	if b.metadataProvider != nil {
		return b.metadataProvider
	}

	clientID, clientSecret, ok := b.config.Metadata.GetIGDBCredentials()
	if !ok {
		slog.Info("No IGDB credentials configured, metadata endpoints disabled")
		return nil
	}

	provider, err := metadata.NewIGDBProvider(ctx, clientID, clientSecret)
	if err != nil {
		slog.Warn("Failed to create IGDB provider, metadata endpoints disabled", "error", err)
		return nil
	}

	slog.Info("Metadata provider enabled", "provider", provider.Name())
	return provider
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *aggregatorAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.config.Server.GetRequestTimeout()),
			api.LoggingMiddleware,
		}
	}

	// Telemetry goes first so rejected and timed-out requests are still observed
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{telemetry.TracingMiddleware(b.tracerProvider)}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithCacheTTL(components.Cache.TTL()),
		api.WithCORSOrigins(b.config.Server.CORSOrigins...),
		api.WithSyncRoutes(components.SyncCoordinator, components.Cache),
		api.WithMetricsHandler(b.metricsHandler),
	}
	if components.Metadata != nil {
		serverOpts = append(serverOpts, api.WithMetadataProvider(components.Metadata))
	}

	router := api.NewServer(components.PlatformService, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
