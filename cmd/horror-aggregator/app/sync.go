package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	aggapp "github.com/nightfeed/horror-aggregator/internal/app"
	"github.com/nightfeed/horror-aggregator/internal/service"
	"github.com/nightfeed/horror-aggregator/internal/sources"
)

// stopTimeout bounds teardown after a one-shot sync; no HTTP server is running
const stopTimeout = 5 * time.Second

var errAllSourcesFailed = errors.New("every source failed")

func newSyncCmd() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync pass and print the report",
		Long: `Fetch the requested platforms once, bypassing the cache freshness check,
and print the sync report as JSON. With a snapshot store configured the
fresh results are also written to redis.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSlice("platforms", []string{sources.SourceAll}, "Platforms to sync (names or aliases)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	for _, name := range []string{"platforms", "config"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			slog.Error("Failed to bind flag", "flag", name, "error", err)
		}
	}

	return cmd
}

func runSync(ctx context.Context, v *viper.Viper, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	app, err := aggapp.NewAggregatorApp(ctx, aggapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Stop(stopTimeout); err != nil {
			slog.Warn("Failed to stop application", "error", err)
		}
	}()

	components := app.Components()
	names, err := resolvePlatforms(components.PlatformService, v.GetStringSlice("platforms"))
	if err != nil {
		return err
	}

	report := components.SyncCoordinator.RunOnce(ctx, names...)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if len(report.PerSource) > 0 && report.Succeeded() == 0 {
		return errAllSourcesFailed
	}
	return nil
}

// resolvePlatforms maps names and aliases to canonical sources, dropping duplicates.
// An empty result means every source, which is also what "all" asks for.
func resolvePlatforms(svc service.PlatformService, requested []string) ([]string, error) {
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		canonical, err := svc.Canonical(name)
		if err != nil {
			return nil, err
		}
		if canonical == sources.SourceAll {
			return nil, nil
		}
		if !slices.Contains(names, canonical) {
			names = append(names, canonical)
		}
	}
	return names, nil
}
