package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nightfeed/horror-aggregator/internal/config"
	"github.com/nightfeed/horror-aggregator/internal/sources"
)

// ConfigOptions adjusts the generated test configuration
type ConfigOptions struct {
	SyncEnabled  bool
	SyncInterval string
	CacheTTL     string
	RedisAddr    string
	Disabled     []string
}

// WriteConfig writes a configuration pointing every source at upstream and returns its path
func WriteConfig(dir string, upstream *UpstreamHelper, opts ConfigOptions) (string, error) {
	enabled := opts.SyncEnabled
	cfg := config.Config{
		Sync: config.SyncConfig{
			Enabled:  &enabled,
			Interval: opts.SyncInterval,
		},
		Cache: config.CacheConfig{
			TTL: opts.CacheTTL,
		},
		Retry: config.RetryConfig{
			MaxAttempts: 1,
		},
		Fetch: config.FetchConfig{
			Timeout:           "5s",
			RequestsPerSecond: 100,
			Burst:             20,
		},
		Sources: make(map[string]config.SourceOverride),
	}

	for _, name := range sources.SupportedNames() {
		cfg.Sources[name] = config.SourceOverride{URL: upstream.URL(name)}
	}
	for _, name := range opts.Disabled {
		off := false
		override := cfg.Sources[name]
		override.Enabled = &off
		cfg.Sources[name] = override
	}

	if opts.RedisAddr != "" {
		cfg.Snapshot = config.SnapshotConfig{
			Enabled: true,
			Address: opts.RedisAddr,
		}
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
