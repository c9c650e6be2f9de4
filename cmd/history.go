package cmd

import (
	"github.com/huangsam/stockpulse/core"
	"github.com/spf13/cobra"
)

// historyCmd prints the stock history series.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show in-stock counts per category over time",
	Long: `Bucket the scraper's observations into a stock history series.

Strategies:
  session - one point per completed scraping session, stamped with the session start
  hourly  - one point per hour, ignoring sessions (fallback for unreliable session bounds)

With --pushdown on PostgreSQL, bucketing runs inside the database.

Examples:
  # History per scraping session
  stockpulse history

  # Hourly buckets as CSV
  stockpulse history --strategy hourly --output csv --output-file history.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot build stock history", core.ExecuteHistory)
	},
}

// exportCmd writes the history series to parquet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stock history to Parquet for BI tools and analytics",
	Long: `Export the stock history series to two Parquet files:

  <output-file>.history.parquet          - one row per bucket
  <output-file>.category_counts.parquet  - one row per bucket and category

Examples:
  # Export session buckets
  stockpulse export --output-file stock

  # Export hourly buckets computed in the database
  stockpulse export --strategy hourly --pushdown --output-file stock-hourly`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot export stock history", core.ExecuteExport)
	},
}
