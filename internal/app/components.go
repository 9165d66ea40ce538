package app

import (
	"github.com/nightfeed/horror-aggregator/internal/cache"
	"github.com/nightfeed/horror-aggregator/internal/metadata"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/snapshot"
	"github.com/nightfeed/horror-aggregator/internal/sources"
	"github.com/nightfeed/horror-aggregator/internal/sync/coordinator"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Registry resolves platform names and aliases to fetchers
	Registry *sources.Registry

	// Cache holds the last result per source
	Cache *cache.ResultCache

	// SyncCoordinator manages background refreshes
	SyncCoordinator coordinator.Coordinator

	// PlatformService answers platform lookups
	PlatformService service.PlatformService

	// Snapshot mirrors good results to redis (optional)
	Snapshot *snapshot.Store

	// Metadata looks up catalog details (optional)
	Metadata metadata.Provider
}
