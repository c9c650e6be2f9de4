package cmd

import (
	"os"

	"github.com/huangsam/stockpulse/core"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/obstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeCmd groups store maintenance.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect or bootstrap the scraper's database",
	Long: `Inspect the observation store or create its tables for local development.

The scraper owns the production schema. Stockpulse only reads from it; the migrate
subcommand exists to bootstrap a development or test database.

Subcommands:
  status  - Show server version, schema and table sizes
  migrate - Create or drop the products and scraping_sessions tables`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display server version, schema and table sizes",
	Long: `Show connection details of the observation store.

Displays:
- Backend and server version
- Whether the configured schema exists
- Row counts of the scraper tables
- Start of the most recent scraping session

Examples:
  stockpulse store status
  stockpulse store status --backend sqlite --db-connect ./scraper.db --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Failed to get store status", core.ExecuteStoreStatus)
	},
}

// storeMigrateCmd runs database migrations for the observation store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Create the scraper tables in a development database.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  stockpulse store migrate --backend sqlite --db-connect ./dev.db

  # Rollback to initial state
  stockpulse store migrate --target-version 0`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := obstore.Migrate(rootCtx, cfg.Backend, cfg.DBConnect, cfg.DBSchema, targetVersion, os.Stdout); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
