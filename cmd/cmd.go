// Package cmd defines the command-line interface for contest.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the db subcommands to the parent db command
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbClearCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or memory")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (sqlite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("min-activity-time", contract.DefaultMinActivityTime.String(), "Minimum moving time for an activity to count (duration or seconds)")
	rootCmd.PersistentFlags().IntP("year", "y", 0, "Contest year (0 = current year)")
	rootCmd.PersistentFlags().String("timezone", "", "IANA timezone for calendar days and weeks (default: local)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of athletes to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored ranks in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of computeCmd to Viper
	computeCmd.Flags().Int64("athlete", 0, "Recompute a single athlete instead of everyone")
	if err := viper.BindPFlags(computeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compute flags", err)
	}

	// Bind all flags of leaderboardCmd to Viper
	leaderboardCmd.Flags().IntP("week", "w", 0, "ISO week number of the contest year")
	leaderboardCmd.Flags().IntP("month", "m", 0, "Month (1-12) of the contest year")
	leaderboardCmd.MarkFlagsMutuallyExclusive("week", "month")
	if err := viper.BindPFlags(leaderboardCmd.Flags()); err != nil {
		contract.LogFatal("Error binding leaderboard flags", err)
	}

	// Bind all flags of importCmd to Viper
	importCmd.Flags().Bool("no-compute", false, "Skip recomputing the imported athletes")
	if err := viper.BindPFlags(importCmd.Flags()); err != nil {
		contract.LogFatal("Error binding import flags", err)
	}

	// Bind all flags of scheduleCmd to Viper
	scheduleCmd.Flags().String("schedule", contract.DefaultSchedule, "Cron spec for the sweep (e.g. '@every 15m', '*/10 * * * *')")
	scheduleCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	scheduleCmd.Flags().Bool("run-now", true, "Run a sweep immediately on start")
	if err := viper.BindPFlags(scheduleCmd.Flags()); err != nil {
		contract.LogFatal("Error binding schedule flags", err)
	}

	// Bind all flags of dbMigrateCmd to Viper
	dbMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(dbMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding db migrate flags", err)
	}
}

// activeStore returns the store opened by sharedSetup.
func activeStore() contract.Store {
	return store.Global.GetStore()
}
