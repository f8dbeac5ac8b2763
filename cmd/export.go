package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/store"
)

// exportCmd exports the store to Parquet files.
var exportCmd = &cobra.Command{
	Use:   "export DIR",
	Short: "Export athletes, activities and points to Parquet for analytics",
	Long: `Write athletes.parquet, activities.parquet and points.parquet into DIR.

Parquet files can be queried directly with DuckDB, pandas or Spark.

Examples:
  contest export ./snapshot
  duckdb -c "SELECT athlete_id, SUM(total_points) FROM 'snapshot/points.parquet' GROUP BY 1"`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		src, ok := activeStore().(store.Exportable)
		if !ok {
			contract.LogFatal("Cannot export", errors.New("backend does not support export"))
		}
		if _, err := store.ExportStore(cmd.Context(), src, args[0], os.Stderr); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}
