package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/stockpulse/core"
	"github.com/huangsam/stockpulse/internal/contract"
	"github.com/huangsam/stockpulse/internal/obstore"
	"github.com/huangsam/stockpulse/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// logger is replaced by the configured logger once setup has run.
var logger = contract.DiscardLogger()

// store is opened by the setup hooks and closed by Execute.
var store contract.ObservationStore

// legacyEnv maps config keys to the variable names the dashboard deployment already uses.
var legacyEnv = map[string]string{
	"db-host":     "DB_HOST",
	"db-port":     "DB_PORT",
	"db-name":     "DB_NAME",
	"db-user":     "DB_USER",
	"db-password": "DB_PASSWORD",
	"db-schema":   "DB_SCHEMA",
	"host":        "DASH_HOST",
	"port":        "DASH_PORT",
	"debug":       "DASH_DEBUG",
}

// startProfiling starts CPU and memory profiling if enabled.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuFile, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// Memory profiling will be captured at the end
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling stops profiling and writes memory profile.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "Stock analytics over a product scraper's database.",
	Long: `Stockpulse reads the product listings a scraper stores after each run and turns them
into stock history, category breakdowns, price distributions and session status.

Run it once from the terminal, serve it as a refreshing JSON dashboard, or hand it to
an AI agent as an MCP tool server.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, the config file location and ENV variables if set.
func initConfig() {
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		contract.LogWarn("Cannot read .env file", err)
	}

	setConfigFile()

	viper.SetEnvPrefix("STOCKPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "STOCKPULSE_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := viper.BindEnv(key, envKey, legacy); err != nil {
			contract.LogWarn("Cannot bind environment variable "+legacy, err)
		}
	}

	viper.SetDefault("backend", string(schema.PostgreSQLBackend))
	viper.SetDefault("db-host", contract.DefaultDBHost)
	viper.SetDefault("db-port", contract.DefaultDBPort)
	viper.SetDefault("db-name", contract.DefaultDBName)
	viper.SetDefault("db-user", contract.DefaultDBUser)
	viper.SetDefault("db-password", "")
	viper.SetDefault("db-schema", contract.DefaultDBSchema)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("strategy", string(schema.SessionStrategy))
	viper.SetDefault("pushdown", false)
	viper.SetDefault("refresh-interval", contract.DefaultRefreshInterval.String())
	viper.SetDefault("refresh-timeout", "0")
	viper.SetDefault("host", contract.DefaultListenHost)
	viper.SetDefault("port", contract.DefaultListenPort)
	viper.SetDefault("debug", "true")
	viper.SetDefault("log-format", contract.LogFormatText)
	viper.SetDefault("output", string(schema.TextOut))
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
	viper.SetDefault("top", contract.DefaultTopProducts)
	viper.SetDefault("price-bins", contract.DefaultPriceBins)
	viper.SetDefault("currency", contract.DefaultCurrency)
	viper.SetDefault("limit", contract.DefaultChangesLimit)
}

// setConfigFile points viper at --config or the default .stockpulse.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".stockpulse")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfig merges defaults, file, env and flags into the raw input struct.
func loadConfig() error {
	profilePrefix := viper.GetString("profile")
	contract.ProcessProfilingConfig(profile, profilePrefix)
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return nil
}

// setLogger installs the process logger on the root context.
func setLogger(l *slog.Logger) {
	logger = l
	rootCtx = core.WithLogger(rootCtx, l)
}

// sharedSetup unmarshals config, runs validation and opens the store.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	setLogger(contract.NewLogger(os.Stderr, cfg.Debug, cfg.LogFormat))

	opened, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	store = opened
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// storeSetup loads only what store maintenance needs, skipping output and server validation.
func storeSetup() error {
	if err := loadConfig(); err != nil {
		return err
	}
	if err := contract.ProcessStoreOnly(cfg, input); err != nil {
		return err
	}
	debug, err := contract.ParseBoolString(input.Debug)
	if err != nil {
		debug = false
	}
	setLogger(contract.NewLogger(os.Stderr, debug, contract.LogFormatText))
	return nil
}

// openStore picks the store implementation for the backend. Neither variant
// connects up front; an unreachable server shows up as an unavailable store.
func openStore(ctx context.Context, cfg *contract.Config, logger *slog.Logger) (contract.ObservationStore, error) {
	if cfg.Pushdown && cfg.Backend == schema.PostgreSQLBackend {
		pool, err := obstore.NewPgPool(ctx, cfg.DBConnect, obstore.PoolConfig{Lazy: true})
		if err != nil {
			return nil, err
		}
		return obstore.NewPgStore(pool, cfg.DBSchema, logger), nil
	}
	return obstore.OpenSQLStore(cfg.Backend, cfg.DBConnect, cfg.DBSchema, logger)
}

// runExecutor runs a core entry point against the opened store.
func runExecutor(name string, fn core.ExecutorFunc) {
	if err := fn(rootCtx, cfg, store); err != nil {
		closeStore()
		contract.LogFatal(name, err)
	}
}

func closeStore() {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		contract.LogWarn("Failed to close store", err)
	}
	store = nil
}

// Execute runs the root command, then releases the store and stops profiling.
func Execute() error {
	err := rootCmd.Execute()
	closeStore()
	if stopErr := stopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	return err
}
