package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend holding observations.
	DatabaseBackend string

	// StrategyName names a history bucketing strategy.
	StrategyName string

	// Outcome tags every result crossing a public boundary.
	Outcome string

	// IdentitySource records which attribute a product identity came from.
	IdentitySource string

	// SessionStatus is the lower-cased lifecycle status of a scraping session.
	SessionStatus string

	// Tone is the presentation hint attached to a session status.
	Tone string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	PostgreSQLBackend DatabaseBackend = "postgresql" // default
	MySQLBackend      DatabaseBackend = "mysql"
	SQLiteBackend     DatabaseBackend = "sqlite"
)

// All bucketing strategies supported.
const (
	SessionStrategy StrategyName = "session" // default
	HourlyStrategy  StrategyName = "hourly"
)

// All outcomes.
const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Identity sources.
const (
	IdentityFromURL   IdentitySource = "url"
	IdentityFromTitle IdentitySource = "title"
)

// Session statuses that carry presentation meaning.
const (
	CompletedSession SessionStatus = "completed"
	RunningSession   SessionStatus = "running"
	FailedSession    SessionStatus = "failed"
)

// Tones used by presentation layers.
const (
	SuccessTone   Tone = "success"
	PrimaryTone   Tone = "primary"
	DangerTone    Tone = "danger"
	SecondaryTone Tone = "secondary"
)

// InStockStatus is the canonical in-stock value of the stock_status column.
const InStockStatus = "In Stock"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	PostgreSQLBackend: {},
	MySQLBackend:      {},
	SQLiteBackend:     {},
}

// ValidStrategies lists all valid bucketing strategies.
var ValidStrategies = map[StrategyName]struct{}{
	SessionStrategy: {},
	HourlyStrategy:  {},
}

// ToneFor maps a session status to its presentation tone.
func ToneFor(status SessionStatus) Tone {
	switch status {
	case CompletedSession:
		return SuccessTone
	case RunningSession:
		return PrimaryTone
	case FailedSession:
		return DangerTone
	default:
		return SecondaryTone
	}
}
