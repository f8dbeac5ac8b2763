package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/outwriter"
	"github.com/stravacontest/contest/schema"
)

// leaderboardCmd ranks athletes from persisted points.
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank athletes for a week, a month or the whole year.",
	Long: `Rank athletes by the points stored by compute.

Without --week or --month the whole contest year is ranked. A month covers
every ISO week with at least one day in that month.

Ties are broken by last name, then first name.

Examples:
  # Year ranking
  contest leaderboard --year 2025

  # ISO week 10
  contest leaderboard --week 10

  # March, exported to parquet
  contest leaderboard --month 3 --output parquet --output-file march.parquet`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		req := leaderboardRequest(viper.GetInt("week"), viper.GetInt("month"), cfg.ContestYear)
		board, err := core.GetLeaderboard(cmd.Context(), cfg, activeStore(), req)
		if err != nil {
			contract.LogFatal("Cannot build leaderboard", err)
		}
		if err := outwriter.NewOutWriter().WriteLeaderboard(board, cfg); err != nil {
			contract.LogFatal("Error writing leaderboard", err)
		}
	},
}

// leaderboardRequest maps the week and month flags to a period.
func leaderboardRequest(week, month, year int) core.LeaderboardRequest {
	switch {
	case week != 0:
		return core.LeaderboardRequest{Period: schema.WeekPeriod, Year: year, Week: week}
	case month != 0:
		return core.LeaderboardRequest{Period: schema.MonthPeriod, Year: year, Month: month}
	default:
		return core.LeaderboardRequest{Period: schema.YearPeriod, Year: year}
	}
}
