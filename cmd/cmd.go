// Package cmd defines the command-line interface for stockpulse.
package cmd

import (
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(changesCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeStatusCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.PostgreSQLBackend), "Store backend: postgresql or mysql or sqlite")
	rootCmd.PersistentFlags().String("db-host", contract.DefaultDBHost, "Database host")
	rootCmd.PersistentFlags().Int("db-port", contract.DefaultDBPort, "Database port")
	rootCmd.PersistentFlags().String("db-name", contract.DefaultDBName, "Database name")
	rootCmd.PersistentFlags().String("db-user", contract.DefaultDBUser, "Database user")
	rootCmd.PersistentFlags().String("db-password", "", "Database password (prefer DB_PASSWORD or STOCKPULSE_DB_PASSWORD)")
	rootCmd.PersistentFlags().String("db-schema", contract.DefaultDBSchema, "PostgreSQL schema holding the scraper tables")
	rootCmd.PersistentFlags().String("db-connect", "", "Full connection string, overrides the discrete db-* flags")
	rootCmd.PersistentFlags().String("strategy", string(schema.SessionStrategy), "History bucketing: session or hourly")
	rootCmd.PersistentFlags().Bool("pushdown", false, "Bucket history inside PostgreSQL instead of in process")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for prices")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("top", contract.DefaultTopProducts, "Number of most expensive products to show")
	rootCmd.PersistentFlags().Int("price-bins", contract.DefaultPriceBins, "Number of price histogram bins")
	rootCmd.PersistentFlags().String("currency", contract.DefaultCurrency, "Currency symbol for prices")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultChangesLimit, "Maximum number of changes listed per kind")
	rootCmd.PersistentFlags().String("debug", "true", "Log at debug level (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-format", contract.LogFormatText, "Log format: text or json")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("host", contract.DefaultListenHost, "Address the dashboard listens on")
	serveCmd.Flags().Int("port", contract.DefaultListenPort, "Port the dashboard listens on")
	serveCmd.Flags().String("refresh-interval", contract.DefaultRefreshInterval.String(), "Time between dashboard refreshes")
	serveCmd.Flags().String("refresh-timeout", "0", "Deadline for one refresh (0 = none)")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
