package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the point store.
	DatabaseBackend string

	// Period represents the span a leaderboard aggregates over.
	Period string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
)

// All leaderboard periods supported.
const (
	WeekPeriod  Period = "week"
	MonthPeriod Period = "month"
	YearPeriod  Period = "year"
)

// Canonical rule set parameters.
const (
	StandardPointsPerActivity = 1
	RegularityBonusAPoints    = 2
	RegularityBonusBPoints    = 2

	// RegularityBonusBMinDays is the number of distinct active days that earns bonus B.
	RegularityBonusBMinDays = 4
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidBackends lists all valid store backends.
var ValidBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
}

// ValidPeriods lists all valid leaderboard periods.
var ValidPeriods = map[Period]struct{}{
	WeekPeriod:  {},
	MonthPeriod: {},
	YearPeriod:  {},
}
