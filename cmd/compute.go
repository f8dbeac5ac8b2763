package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/outwriter"
)

// computeCmd recomputes persisted weekly points.
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Recompute and persist weekly points.",
	Long: `Recompute the weekly points of every athlete (or one athlete) and reconcile
the stored point rows.

For each ISO week with activities, or with an existing point row:
- a positive score inserts or updates the row
- a zero score deletes the row

Running compute twice in a row changes nothing the second time.

Examples:
  # Recompute everyone with 8 workers
  contest compute --workers 8

  # Recompute a single athlete
  contest compute --athlete 1234`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := core.WithTrigger(cmd.Context(), "cli")
		recomputer := core.NewRecomputer(activeStore(), cfg, nil)
		ow := outwriter.NewOutWriter()

		if athleteID := viper.GetInt64("athlete"); athleteID > 0 {
			res, err := recomputer.ComputeAthleteByID(ctx, athleteID)
			if err != nil {
				contract.LogFatal("Cannot recompute athlete", err)
			}
			if err := ow.WriteSyncResult(res, cfg); err != nil {
				contract.LogFatal("Error writing result", err)
			}
			return
		}

		report, err := recomputer.Compute(ctx)
		if err != nil {
			contract.LogFatal("Cannot recompute points", err)
		}
		if err := ow.WriteSweepReport(report, cfg); err != nil {
			contract.LogFatal("Error writing report", err)
		}
		if err := report.Err(); err != nil {
			contract.LogFatal("Some athletes failed", err)
		}
	},
}
