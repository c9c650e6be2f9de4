package cmd

import (
	"github.com/huangsam/stockpulse/core"
	"github.com/spf13/cobra"
)

// checkCmd tests the connection end to end.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the database connection and the reads a refresh performs",
	Long: `Check that the dashboard can connect to the scraper's database and read data.

Steps:
- Connect and report the server version
- Verify the schema exists (PostgreSQL)
- Query the products and scraping_sessions tables
- Load the latest products, build the stock history and compute price statistics

Exits with a non-zero code when any step fails. Empty tables are reported but pass.

Examples:
  stockpulse check
  DB_HOST=db.internal DB_PASSWORD=secret stockpulse check`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Store check failed", core.ExecuteStoreCheck)
	},
}
