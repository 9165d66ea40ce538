// Package app provides application lifecycle management for the aggregator server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nightfeed/horror-aggregator/internal/config"
)

// AggregatorApp encapsulates all components needed to run the aggregator API server
// It provides lifecycle management and graceful shutdown capabilities
type AggregatorApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx         context.Context
	cancelFunc  context.CancelFunc
	sweeperOnce sync.Once
	sweeperDone chan struct{}
	stopOnce    sync.Once
}

// Start starts the background sync, the cache sweeper and the HTTP server.
// It blocks until the HTTP server stops or encounters an error.
func (app *AggregatorApp) Start() error {
	if app.config.Sync.IsEnabled() {
		go func() {
			if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
				slog.Error("Sync coordinator failed", "error", err)
			}
		}()
	} else {
		slog.Info("Background sync disabled, sources are fetched on demand")
	}

	app.startSweeper()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (app *AggregatorApp) startSweeper() {
	app.sweeperOnce.Do(func() {
		go func() {
			defer close(app.sweeperDone)
			app.components.Cache.RunSweeper(app.ctx, app.config.Cache.GetSweepInterval())
		}()
	})
}

// Stop gracefully stops the application with the given timeout.
// The scheduler stops first, then the sweeper, then the HTTP server, then the snapshot store.
func (app *AggregatorApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	// Start was never called; mark the sweeper as done so the wait below returns
	app.sweeperOnce.Do(func() { close(app.sweeperDone) })
	<-app.sweeperDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("server forced to shutdown: %w", err)
	}

	app.stopOnce.Do(func() {
		if app.components.Snapshot != nil {
			if err := app.components.Snapshot.Close(); err != nil {
				slog.Warn("Failed to close snapshot store", "error", err)
			}
		}
	})

	if shutdownErr != nil {
		return shutdownErr
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *AggregatorApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *AggregatorApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired components
func (app *AggregatorApp) Components() *AppComponents {
	return app.components
}
