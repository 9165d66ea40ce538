// Package config provides configuration loading and management for the aggregator.
package config

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/httpclient"
	"github.com/nightfeed/horror-aggregator/internal/retry"
	"github.com/nightfeed/horror-aggregator/internal/snapshot"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/internal/sync/coordinator"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

// EnvPrefix is the prefix for environment variables read through viper
const EnvPrefix = "HORROR_AGG"

// Environment variables consulted for secrets that should stay out of the file
const (
	EnvIGDBClientID     = "HORROR_AGG_IGDB_CLIENT_ID"
	EnvIGDBClientSecret = "HORROR_AGG_IGDB_CLIENT_SECRET"
	EnvRedisPassword    = "HORROR_AGG_REDIS_PASSWORD"
)

const (
	defaultAddress           = ":8080"
	defaultRequestTimeout    = 30 * time.Second
	defaultShutdownTimeout   = 30 * time.Second
	defaultRequestsPerSecond = 1.0
	defaultBurst             = 2
	maxRetryAttempts         = 10
	minSyncInterval          = time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// EvalSymlinks also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Sync     SyncConfig     `yaml:"sync"`
	Retry    RetryConfig    `yaml:"retry"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Metadata MetadataConfig `yaml:"metadata"`

	// Sources overrides the built-in source definitions by canonical name
	Sources map[string]SourceOverride `yaml:"sources,omitempty"`

	// Aliases adds alternate names on top of the built-in alias table
	Aliases map[string]string `yaml:"aliases,omitempty"`

	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address defaults to ":8080"
	Address string `yaml:"address,omitempty"`

	// CORSOrigins lists browser origins allowed to call the API
	CORSOrigins []string `yaml:"corsOrigins,omitempty"`

	RequestTimeout  string `yaml:"requestTimeout,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// CacheConfig defines result cache settings
type CacheConfig struct {
	// TTL is how long a result is served before the next request refetches it
	TTL string `yaml:"ttl,omitempty"`

	// SweepInterval is how often expired entries are dropped
	SweepInterval string `yaml:"sweepInterval,omitempty"`
}

// SyncConfig defines the background scheduler
type SyncConfig struct {
	// Enabled defaults to true
	Enabled *bool `yaml:"enabled,omitempty"`

	Interval string `yaml:"interval,omitempty"`
}

// RetryConfig defines how source fetches are retried
type RetryConfig struct {
	MaxAttempts uint   `yaml:"maxAttempts,omitempty"`
	BaseDelay   string `yaml:"baseDelay,omitempty"`
}

// FetchConfig defines the outbound HTTP client used for every source
type FetchConfig struct {
	Timeout           string  `yaml:"timeout,omitempty"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// SourceOverride adjusts one built-in source
type SourceOverride struct {
	// Enabled defaults to true
	Enabled    *bool  `yaml:"enabled,omitempty"`
	URL        string `yaml:"url,omitempty"`
	MaxRecords int    `yaml:"maxRecords,omitempty"`
}

// SnapshotConfig defines the redis mirror of last good results
type SnapshotConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address,omitempty"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
	TTL       string `yaml:"ttl,omitempty"`
}

// MetadataConfig defines the optional metadata provider
type MetadataConfig struct {
	IGDB *IGDBConfig `yaml:"igdb,omitempty"`
}

// IGDBConfig holds Twitch application credentials for IGDB
type IGDBConfig struct {
	ClientID     string `yaml:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
}

// LoadConfig loads configuration. Without a path the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the listen address
func (s *ServerConfig) GetAddress() string {
	if s.Address == "" {
		return defaultAddress
	}
	return s.Address
}

// GetRequestTimeout returns the per-request handler timeout
func (s *ServerConfig) GetRequestTimeout() time.Duration {
	return durationOr(s.RequestTimeout, defaultRequestTimeout)
}

// GetShutdownTimeout returns how long shutdown waits for in-flight requests
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return durationOr(s.ShutdownTimeout, defaultShutdownTimeout)
}

// GetTTL returns the result cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	return durationOr(c.TTL, cache.DefaultTTL)
}

// GetSweepInterval returns the expired entry sweep interval
func (c *CacheConfig) GetSweepInterval() time.Duration {
	return durationOr(c.SweepInterval, cache.DefaultSweepInterval)
}

// IsEnabled reports whether the background scheduler runs
func (s *SyncConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// GetInterval returns the time between scheduled passes
func (s *SyncConfig) GetInterval() time.Duration {
	return durationOr(s.Interval, coordinator.DefaultInterval)
}

// Policy returns the retry policy for source fetches
func (r *RetryConfig) Policy() retry.Policy {
	p := retry.DefaultPolicy()
	if r.MaxAttempts > 0 {
		p.MaxAttempts = r.MaxAttempts
	}
	if r.BaseDelay != "" {
		p.BaseDelay = durationOr(r.BaseDelay, p.BaseDelay)
	}
	return p
}

// ClientSettings returns the per-source HTTP client settings
func (f *FetchConfig) ClientSettings() sources.ClientSettings {
	settings := sources.ClientSettings{
		Timeout:           durationOr(f.Timeout, httpclient.DefaultTimeout),
		RequestsPerSecond: defaultRequestsPerSecond,
		Burst:             defaultBurst,
	}
	if f.RequestsPerSecond > 0 {
		settings.RequestsPerSecond = f.RequestsPerSecond
	}
	if f.Burst > 0 {
		settings.Burst = f.Burst
	}
	return settings
}

// Definitions returns the built-in definitions with overrides applied.
// Disabled sources are left out.
func (c *Config) Definitions() []sources.Definition {
	defs := sources.DefaultDefinitions()
	out := make([]sources.Definition, 0, len(defs))
	for _, def := range defs {
		override, ok := c.Sources[def.Name]
		if !ok {
			out = append(out, def)
			continue
		}
		if override.Enabled != nil && !*override.Enabled {
			continue
		}
		if override.URL != "" {
			def.URL = override.URL
		}
		if override.MaxRecords > 0 {
			def.MaxRecords = override.MaxRecords
		}
		out = append(out, def)
	}
	return out
}

// GetAliases returns the built-in aliases merged with configured ones
func (c *Config) GetAliases() map[string]string {
	out := maps.Clone(sources.DefaultAliases)
	for k, v := range c.Aliases {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// GetPassword returns the redis password, falling back to HORROR_AGG_REDIS_PASSWORD
func (s *SnapshotConfig) GetPassword() string {
	if s.Password != "" {
		return s.Password
	}
	return os.Getenv(EnvRedisPassword)
}

// GetKeyPrefix returns the redis key prefix
func (s *SnapshotConfig) GetKeyPrefix() string {
	if s.KeyPrefix == "" {
		return snapshot.DefaultKeyPrefix
	}
	return s.KeyPrefix
}

// GetTTL returns how long snapshots live in redis
func (s *SnapshotConfig) GetTTL() time.Duration {
	return durationOr(s.TTL, snapshot.DefaultTTL)
}

// GetIGDBCredentials returns the IGDB client id and secret, falling back to the environment.
// ok is false when either is missing.
func (m *MetadataConfig) GetIGDBCredentials() (clientID, clientSecret string, ok bool) {
	if m.IGDB != nil {
		clientID, clientSecret = m.IGDB.ClientID, m.IGDB.ClientSecret
	}
	if clientID == "" {
		clientID = os.Getenv(EnvIGDBClientID)
	}
	if clientSecret == "" {
		clientSecret = os.Getenv(EnvIGDBClientSecret)
	}
	return clientID, clientSecret, clientID != "" && clientSecret != ""
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	errs = append(errs,
		validateDuration("server.requestTimeout", c.Server.RequestTimeout, 0),
		validateDuration("server.shutdownTimeout", c.Server.ShutdownTimeout, 0),
		validateDuration("cache.ttl", c.Cache.TTL, time.Second),
		validateDuration("cache.sweepInterval", c.Cache.SweepInterval, time.Second),
		validateDuration("sync.interval", c.Sync.Interval, minSyncInterval),
		validateDuration("retry.baseDelay", c.Retry.BaseDelay, 0),
		validateDuration("fetch.timeout", c.Fetch.Timeout, time.Millisecond),
		validateDuration("snapshot.ttl", c.Snapshot.TTL, time.Second),
	)

	if c.Retry.MaxAttempts > maxRetryAttempts {
		errs = append(errs, fmt.Errorf("retry.maxAttempts must be at most %d, got %d", maxRetryAttempts, c.Retry.MaxAttempts))
	}
	if c.Fetch.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("fetch.requestsPerSecond cannot be negative"))
	}
	if c.Fetch.Burst < 0 {
		errs = append(errs, fmt.Errorf("fetch.burst cannot be negative"))
	}

	errs = append(errs, c.validateSources()...)

	if c.Snapshot.Enabled && c.Snapshot.Address == "" {
		errs = append(errs, fmt.Errorf("snapshot.address is required when snapshot is enabled"))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (c *Config) validateSources() []error {
	var errs []error
	enabled := 0
	for _, name := range sources.SupportedNames() {
		if o, ok := c.Sources[name]; !ok || o.Enabled == nil || *o.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		errs = append(errs, fmt.Errorf("at least one source must be enabled"))
	}

	for name, override := range c.Sources {
		if _, ok := sources.DefaultDefinition(name); !ok {
			errs = append(errs, fmt.Errorf("sources.%s: unknown source", name))
			continue
		}
		if override.URL != "" {
			if err := validateURL(override.URL); err != nil {
				errs = append(errs, fmt.Errorf("sources.%s.url: %w", name, err))
			}
		}
		if override.MaxRecords < 0 {
			errs = append(errs, fmt.Errorf("sources.%s.maxRecords cannot be negative", name))
		}
	}

	for alias, target := range c.Aliases {
		if sources.IsAggregate(alias) {
			errs = append(errs, fmt.Errorf("aliases.%s: cannot shadow %q", alias, sources.SourceAll))
			continue
		}
		if _, ok := sources.DefaultDefinition(strings.ToLower(strings.TrimSpace(target))); !ok {
			errs = append(errs, fmt.Errorf("aliases.%s: unknown target source %q", alias, target))
		}
	}
	return errs
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// validateDuration accepts an empty value (use default) or a duration of at least minimum
func validateDuration(field, value string, minimum time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '10m'): %w", field, err)
	}
	if d < minimum || d < 0 {
		return fmt.Errorf("%s must be at least %s, got %s", field, minimum, value)
	}
	return nil
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
