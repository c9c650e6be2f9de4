package contract

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/stockpulse/schema"
)

// Default values for configuration.
const (
	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBName          = "gis"
	DefaultDBUser          = "postgres"
	DefaultDBSchema        = "agilite"
	DefaultListenHost      = "0.0.0.0"
	DefaultListenPort      = 8050
	DefaultRefreshInterval = 5 * time.Minute
	DefaultPrecision       = 2
	DefaultTopProducts     = 10
	DefaultPriceBins       = 20
	DefaultCurrency        = "₪"
	DefaultChangesLimit    = 25
	MaxTopProducts         = 100
	MaxPriceBins           = 200
	MinRefreshInterval     = time.Second
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// ProcessProfilingConfig turns the --profile prefix into a profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	profile.Enabled = profilePrefix != ""
	profile.Prefix = profilePrefix
}

// Config holds the final, validated runtime configuration.
type Config struct {
	Backend    schema.DatabaseBackend
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string // Please use env var as this is plaintext
	DBSchema   string
	DBConnect  string // Resolved DSN for the chosen backend

	Strategy schema.StrategyName
	Pushdown bool

	RefreshInterval time.Duration
	RefreshTimeout  time.Duration // Zero means no timeout per tick
	ListenHost      string
	ListenPort      int

	Debug     bool
	LogFormat string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	TopProducts  int
	PriceBins    int
	Currency     string
	ChangesLimit int
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Store connection ---
	Backend    string `mapstructure:"backend"`
	DBHost     string `mapstructure:"db-host"`
	DBPort     int    `mapstructure:"db-port"`
	DBName     string `mapstructure:"db-name"`
	DBUser     string `mapstructure:"db-user"`
	DBPassword string `mapstructure:"db-password"`
	DBSchema   string `mapstructure:"db-schema"`
	DBConnect  string `mapstructure:"db-connect"`

	// --- History ---
	Strategy string `mapstructure:"strategy"`
	Pushdown bool   `mapstructure:"pushdown"`

	// --- Dashboard server ---
	RefreshInterval string `mapstructure:"refresh-interval"`
	RefreshTimeout  string `mapstructure:"refresh-timeout"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Debug           string `mapstructure:"debug"`
	LogFormat       string `mapstructure:"log-format"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`

	// --- Charts ---
	Top       int    `mapstructure:"top"`
	PriceBins int    `mapstructure:"price-bins"`
	Currency  string `mapstructure:"currency"`
	Limit     int    `mapstructure:"limit"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ListenAddr returns host:port for the dashboard server.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processServerInputs(cfg, input); err != nil {
		return err
	}
	if err := processBackend(cfg, input); err != nil {
		return err
	}
	return nil
}

// ProcessStoreOnly validates only what is needed to reach the store.
// Store maintenance commands use it to skip output and server validation.
func ProcessStoreOnly(cfg *Config, input *ConfigRawInput) error {
	return processBackend(cfg, input)
}

// validateSimpleInputs processes and validates output and chart fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Pushdown = input.Pushdown
	cfg.Currency = input.Currency

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Output Validation ---
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if input.Precision < 0 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 0 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	// --- 2. Strategy Validation ---
	cfg.Strategy = schema.StrategyName(strings.ToLower(strings.TrimSpace(input.Strategy)))
	if _, ok := schema.ValidStrategies[cfg.Strategy]; !ok {
		return fmt.Errorf("invalid strategy '%s'. must be session or hourly", input.Strategy)
	}

	// --- 3. Chart Validation ---
	if input.Top <= 0 || input.Top > MaxTopProducts {
		return fmt.Errorf("top must be greater than 0 and cannot exceed %d (received %d)", MaxTopProducts, input.Top)
	}
	cfg.TopProducts = input.Top
	if input.PriceBins <= 0 || input.PriceBins > MaxPriceBins {
		return fmt.Errorf("price-bins must be greater than 0 and cannot exceed %d (received %d)", MaxPriceBins, input.PriceBins)
	}
	cfg.PriceBins = input.PriceBins
	if input.Limit <= 0 {
		return fmt.Errorf("limit must be greater than 0 (received %d)", input.Limit)
	}
	cfg.ChangesLimit = input.Limit

	return nil
}

// processServerInputs handles the refresh cadence, listener and logging fields.
func processServerInputs(cfg *Config, input *ConfigRawInput) error {
	interval, err := time.ParseDuration(strings.TrimSpace(input.RefreshInterval))
	if err != nil {
		return fmt.Errorf("invalid refresh-interval '%s': %w", input.RefreshInterval, err)
	}
	if interval < MinRefreshInterval {
		return fmt.Errorf("refresh-interval must be at least %s (received %s)", MinRefreshInterval, interval)
	}
	cfg.RefreshInterval = interval

	cfg.RefreshTimeout = 0
	if s := strings.TrimSpace(input.RefreshTimeout); s != "" && s != "0" {
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid refresh-timeout '%s': %w", input.RefreshTimeout, err)
		}
		if timeout < 0 {
			return fmt.Errorf("refresh-timeout cannot be negative (received %s)", timeout)
		}
		cfg.RefreshTimeout = timeout
	}

	cfg.ListenHost = strings.TrimSpace(input.Host)
	if input.Port <= 0 || input.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (received %d)", input.Port)
	}
	cfg.ListenPort = input.Port

	debug, err := ParseBoolString(input.Debug)
	if err != nil {
		return fmt.Errorf("invalid --debug value: %w", err)
	}
	cfg.Debug = debug

	cfg.LogFormat = strings.ToLower(strings.TrimSpace(input.LogFormat))
	if cfg.LogFormat != LogFormatText && cfg.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log-format '%s'. must be text or json", input.LogFormat)
	}
	return nil
}

// processBackend validates the backend and resolves its connection string.
func processBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.Backend = schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(input.Backend)))
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be postgresql, mysql, sqlite", input.Backend)
	}

	cfg.DBHost = input.DBHost
	cfg.DBPort = input.DBPort
	cfg.DBName = input.DBName
	cfg.DBUser = input.DBUser
	cfg.DBPassword = input.DBPassword
	cfg.DBSchema = strings.TrimSpace(input.DBSchema)
	if cfg.DBSchema != "" && !ValidIdentifier(cfg.DBSchema) {
		return fmt.Errorf("invalid db-schema '%s'. must match %s", cfg.DBSchema, identifierPattern)
	}

	if input.DBConnect != "" {
		cfg.DBConnect = input.DBConnect
	} else {
		if cfg.Backend != schema.SQLiteBackend && (cfg.DBPort <= 0 || cfg.DBPort > 65535) {
			return fmt.Errorf("db-port must be between 1 and 65535 (received %d)", cfg.DBPort)
		}
		cfg.DBConnect = BuildConnectionString(cfg)
	}

	if cfg.Pushdown && cfg.Backend != schema.PostgreSQLBackend {
		return fmt.Errorf("pushdown is only supported with the %s backend", schema.PostgreSQLBackend)
	}

	return ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect)
}

// BuildConnectionString assembles a DSN from the discrete connection fields.
func BuildConnectionString(cfg *Config) string {
	switch cfg.Backend {
	case schema.PostgreSQLBackend:
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort)),
			Path:   "/" + cfg.DBName,
		}
		if cfg.DBPassword != "" {
			u.User = url.UserPassword(cfg.DBUser, cfg.DBPassword)
		} else if cfg.DBUser != "" {
			u.User = url.User(cfg.DBUser)
		}
		if cfg.DBSchema != "" {
			q := url.Values{}
			q.Set("search_path", cfg.DBSchema)
			u.RawQuery = q.Encode()
		}
		return u.String()

	case schema.MySQLBackend:
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, strconv.Itoa(cfg.DBPort))
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		return mc.FormatDSN()

	default:
		return GetDBFilePath()
	}
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			if _, err := url.Parse(connStr); err != nil {
				return fmt.Errorf("PostgreSQL connection URL is malformed: %w", err)
			}
			return nil
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	default:
		return fmt.Errorf("unsupported backend: %s", backend)
	}
	return nil
}

// RedactConnectionString masks the password of a DSN so it can be printed.
func RedactConnectionString(backend schema.DatabaseBackend, connStr string) string {
	switch backend {
	case schema.PostgreSQLBackend:
		if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
			return u.Redacted()
		}
		fields := strings.Fields(connStr)
		for i, f := range fields {
			if strings.HasPrefix(f, "password=") {
				fields[i] = "password=xxxxx"
			}
		}
		return strings.Join(fields, " ")
	case schema.MySQLBackend:
		mc, err := mysql.ParseDSN(connStr)
		if err != nil {
			return "(unparseable dsn)"
		}
		if mc.Passwd != "" {
			mc.Passwd = "xxxxx"
		}
		return mc.FormatDSN()
	default:
		return connStr
	}
}
