// Package cmd defines and implements the CLI commands for the adforge executable.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the product catalogue, scraping, news, copywriting, creative, analytics,
//     health and job endpoints. Routes answer synchronously except /api/jobs, which persists a job and enqueues it.
//   - Dispatcher & queue: jobs flow through a bounded in-memory queue sized by jobs.queue_depth and are fanned out to a
//     fixed worker pool sized by jobs.workers. Each job runs the creative pipeline under jobs.timeout_seconds and can be
//     canceled through the API.
//   - Vendors: Gemini (text), Fal.ai (image and video), Apify (product data) and Bright Data (news) are called through
//     the vendorhttp transport, which applies per-host rate limits, exponential retries and Prometheus metrics. Every
//     vendor path degrades to demo content instead of failing the request.
//   - Persistence: products live in Mongo, Postgres or memory; jobs share the Postgres pool or stay in memory. Scrape
//     and news results are cached in Redis or memory. Generated images are optionally archived to GCS, disk or memory.
//     Analytics events and job completions are published to Pub/Sub when a project is configured.
//   - Configuration & plumbing: Viper populates config from .env, file and environment; zap provides structured
//     logging; Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Configure keys: GEMINI_API_KEY, FAL_KEY, APIFY_TOKEN, BRIGHT_DATA_API_KEY. Everything else has a default and is
//     overridable via ADFORGE_<SECTION>_<KEY>.
//   - Run locally: go run . serve --config config.yaml
//   - Scrape once: go run . scrape https://www.amazon.com/dp/B0EXAMPLE
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/adforge/internal/config"
	"github.com/JakeFAU/adforge/internal/scraper"
	"github.com/JakeFAU/adforge/internal/server"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a fake app during tests.
type App interface {
	Run(ctx context.Context) error
	Close(ctx context.Context) error
	Scrape(ctx context.Context, url string) scraper.Result
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgFile string) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return server.Build(ctx, &cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "adforge",
		Short: "AI marketing backend for product ads, news and analytics.",
		Long: `adforge scrapes product pages, stores a product catalogue and turns
products into ad copy, image concepts and video ads using Gemini and Fal.ai.
Missing vendor keys degrade to demo content so the dashboard keeps working.`,
		SilenceUsage: true,

		// Runs after flags are parsed and before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and environment only when empty)")
	cmd.AddCommand(newServeCmd(), newScrapeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "adforge: %v\n", err)
		os.Exit(1)
	}
}
