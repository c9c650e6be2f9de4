package cmd

import (
	"github.com/huangsam/stockpulse/core"
	"github.com/spf13/cobra"
)

// dashboardCmd runs one refresh and prints it.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print every dashboard section once",
	Long: `Run a single dashboard refresh and print it.

Sections:
- Database card for the latest completed session
- Scraping status of the most recent session
- Stock history
- Category, stock status and variant distributions
- Price distribution
- Most expensive products
- Stock changes between the two latest sessions

Examples:
  stockpulse dashboard
  stockpulse dashboard --output json --top 20 --price-bins 10`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot refresh dashboard", core.ExecuteDashboard)
	},
}

// sessionCmd prints the scraping status card.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the status of the most recent scraping session",
	Long: `Show the most recent scraping session of any status: its label, start time,
duration, product counts and error message.

Examples:
  stockpulse session
  stockpulse session --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot read latest session", core.ExecuteSession)
	},
}

// changesCmd prints the stock changelog.
var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "List products that changed between the two latest sessions",
	Long: `Compare the two latest usable completed sessions product by product.

Products are matched by URL, or by title when the URL is missing. Reports products
that came back in stock, sold out, appeared or disappeared.

Examples:
  stockpulse changes
  stockpulse changes --limit 100 --output csv --output-file changes.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("Cannot compute stock changes", core.ExecuteChanges)
	},
}
