package contract

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stravacontest/contest/schema"
)

// Default values for configuration.
const (
	DefaultMinActivityTime = 20 * time.Minute
	DefaultResultLimit     = 25
	MaxResultLimit         = 1000
	DefaultSchedule        = "@every 15m"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for the contest.
// This struct remains the "final, validated" config.
type Config struct {
	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	MinActivityTime time.Duration
	ContestYear     int
	Location        *time.Location

	Workers     int
	ResultLimit int
	Output      schema.OutputMode
	OutputFile  string
	UseColors   bool

	Schedule    string
	MetricsAddr string

	LogLevel  string
	LogFormat string
	LogFile   string

	// Now is the contest clock. Defaults to time.Now.
	Now Clock
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Backend         string `mapstructure:"backend"`
	DBConnect       string `mapstructure:"db-connect"`
	MinActivityTime string `mapstructure:"min-activity-time"`
	Year            int    `mapstructure:"year"`
	Timezone        string `mapstructure:"timezone"`
	Workers         int    `mapstructure:"workers"`
	Limit           int    `mapstructure:"limit"`
	Output          string `mapstructure:"output"`
	OutputFile      string `mapstructure:"output-file"`
	Color           string `mapstructure:"color"`
	Schedule        string `mapstructure:"schedule"`
	MetricsAddr     string `mapstructure:"metrics-addr"`
	LogLevel        string `mapstructure:"log-level"`
	LogFormat       string `mapstructure:"log-format"`
	LogFile         string `mapstructure:"log-file"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Today returns the current time in the contest location.
func (c *Config) Today() time.Time {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	if c.Location == nil {
		return now()
	}
	return now().In(c.Location)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processContestSettings(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend:
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
			return nil
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes a backend name; empty means SQLite.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	if s == "" {
		return schema.SQLiteBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(s))
	if _, ok := schema.ValidBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, memory", s)
	}
	return backend, nil
}

// ParseMinActivityTime accepts a Go duration ("20m", "1h30m") or a plain
// number of seconds ("1200").
func ParseMinActivityTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMinActivityTime, nil
	}
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("min-activity-time cannot be negative (received %d)", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid min-activity-time %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("min-activity-time cannot be negative (received %s)", d)
	}
	return d, nil
}

// validateBackendConfig validates the store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.Backend)
	if err != nil {
		return err
	}
	cfg.Backend = backend
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.MetricsAddr = input.MetricsAddr
	cfg.LogFile = input.LogFile

	color := input.Color
	if color == "" {
		color = "yes"
	}
	colors, err := ParseBoolString(color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	output := input.Output
	if output == "" {
		output = string(schema.TextOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", output)
	}

	cfg.LogLevel = strings.ToLower(input.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be text or json", input.LogFormat)
	}

	return nil
}

// processContestSettings handles timezone, contest year, activity threshold and schedule.
func processContestSettings(cfg *Config, input *ConfigRawInput) error {
	cfg.Location = time.Local
	if tz := strings.TrimSpace(input.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	cfg.ContestYear = input.Year
	if cfg.ContestYear == 0 {
		cfg.ContestYear = cfg.Today().Year()
	}
	if cfg.ContestYear < 1970 || cfg.ContestYear > 9999 {
		return fmt.Errorf("year must be between 1970 and 9999 (received %d)", cfg.ContestYear)
	}

	minTime, err := ParseMinActivityTime(input.MinActivityTime)
	if err != nil {
		return err
	}
	cfg.MinActivityTime = minTime

	cfg.Schedule = strings.TrimSpace(input.Schedule)
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	return nil
}
