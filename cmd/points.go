package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/outwriter"
)

// pointsCmd shows the weekly scoring of one athlete.
var pointsCmd = &cobra.Command{
	Use:   "points ATHLETE_ID",
	Short: "Show the weekly points of an athlete.",
	Long: `Score every ISO week of the contest year for one athlete, straight from
the activities, with a per-rule breakdown.

For the current contest year this covers week 1 up to the current week;
past years cover every week. Nothing is persisted.

Examples:
  contest points 1234
  contest points 1234 --year 2024 --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, args []string) {
		athleteID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || athleteID <= 0 {
			contract.LogFatal("Invalid athlete ID", fmt.Errorf("%q is not a positive integer", args[0]))
		}
		points, err := core.GetWeeklyPoints(cmd.Context(), cfg, activeStore(), athleteID)
		if err != nil {
			contract.LogFatal("Cannot score athlete", err)
		}
		if err := outwriter.NewOutWriter().WriteWeeklyPoints(points, cfg); err != nil {
			contract.LogFatal("Error writing points", err)
		}
	},
}
