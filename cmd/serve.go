package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/stockpulse/core"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/dashboard"
	"github.com/spf13/cobra"
)

// serveCmd runs the refreshing dashboard API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the refreshing stock dashboard as a JSON API",
	Long: `Start an HTTP server that recomputes the dashboard on a fixed interval.

The first refresh runs immediately. Every later refresh runs after --refresh-interval,
or sooner when a client posts to /api/refresh. A database that is down does not stop
the server: sections report the store as unavailable until it comes back.

Endpoints:
  GET  /api/dashboard  - every section of the latest refresh
  GET  /api/history    - stock history series
  GET  /api/session    - scraping status card
  GET  /api/changes    - stock changelog
  POST /api/refresh    - queue a refresh
  GET  /healthz        - liveness
  GET  /metrics        - Prometheus metrics

Examples:
  # Serve on the default address with a 5 minute refresh
  stockpulse serve

  # Refresh every minute with hourly buckets, give up on a refresh after 30 seconds
  stockpulse serve --refresh-interval 1m --refresh-timeout 30s --strategy hourly`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		metrics := dashboard.NewMetrics()
		refresher := dashboard.NewRefresher(store, core.OptionsFromConfig(cfg), cfg.RefreshInterval, cfg.RefreshTimeout, metrics, logger)
		server := dashboard.NewServer(refresher, metrics, logger)
		if err := server.Run(ctx, cfg.ListenAddr()); err != nil {
			closeStore()
			contract.LogFatal("Dashboard server failed", err)
		}
	},
}
