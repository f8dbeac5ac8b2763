package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
)

// dbCmd groups store maintenance commands.
//
// Note: migrate and clear use configSetup only, so they never open the store
// (opening migrates to latest).
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the contest store",
	Long: `Manage the database that holds athletes, activities and weekly points.

Supported backends: SQLite (default, ~/.contest.db), MySQL, PostgreSQL,
or Memory (in-process, nothing is kept).

Subcommands:
  migrate - Run database schema migrations
  status  - Show store statistics
  clear   - Remove all contest data`,
}

// dbMigrateCmd runs schema migrations.
var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	Long: `Move the store schema to a given version.

Examples:
  # Migrate to the latest version
  contest db migrate

  # Roll back everything
  contest db migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error { return configSetup() },
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		res, err := store.MigrateStore(cfg.Backend, cfg.DBConnect, target)
		if err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
		if !res.Changed {
			fmt.Printf("Schema already at version %d.\n", res.To)
			return
		}
		fmt.Printf("Schema migrated from version %d to %d.\n", res.From, res.To)
	},
}

// dbStatusCmd shows store statistics.
var dbStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display store statistics and connection details",
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		status, err := activeStore().GetStatus(cmd.Context())
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		store.PrintStatus(os.Stdout, status)
	},
}

// dbClearCmd drops all contest data.
var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all athletes, activities and points",
	Long: `Delete the whole contest store. For SQLite the database file is removed;
for MySQL and PostgreSQL the tables are dropped.

WARNING: This action cannot be undone. Consider 'contest export' first.`,
	PreRunE: func(_ *cobra.Command, _ []string) error { return configSetup() },
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := cfg.DBConnect
		if cfg.Backend == schema.SQLiteBackend && dbFile == "" {
			dbFile = contract.GetDBFilePath()
		}
		if err := store.ClearStore(cfg.Backend, dbFile, cfg.DBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}
