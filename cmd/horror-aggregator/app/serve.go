package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	aggapp "github.com/nightfeed/horror-aggregator/internal/app"
	"github.com/nightfeed/horror-aggregator/internal/config"
	"github.com/nightfeed/horror-aggregator/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the aggregator API server",
		Long: `Start the aggregator API server.

The optional configuration file (--config) can override:
- Cache TTL and background sync interval
- Per-source URLs, record caps and enablement
- Retry and outbound rate limits
- Redis snapshots, IGDB metadata and telemetry

Every setting has a default, so the server also runs without a file.
See examples/ directory for a sample configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	for _, name := range []string{"address", "config"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}

	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	slog.Info("Configuration loaded", "config", v.GetString("config"), "sources", len(cfg.Definitions()))

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := appOptions(v, cfg, tel)

	app, err := aggapp.NewAggregatorApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		// the server never came up; release what was built
		_ = app.Stop(cfg.Server.GetShutdownTimeout())
		return err
	case <-ctx.Done():
	}

	return app.Stop(cfg.Server.GetShutdownTimeout())
}

func appOptions(v *viper.Viper, cfg *config.Config, tel *telemetry.Telemetry) []aggapp.AggregatorAppOptions {
	opts := []aggapp.AggregatorAppOptions{
		aggapp.WithConfig(cfg),
	}
	if addr := v.GetString("address"); addr != "" {
		opts = append(opts, aggapp.WithAddress(addr))
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		opts = append(opts,
			aggapp.WithMeterProvider(tel.MeterProvider()),
			aggapp.WithTracerProvider(tel.TracerProvider()),
		)
	}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, aggapp.WithMetricsHandler(h))
	}
	return opts
}
