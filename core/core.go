// Package core has the contest logic: ISO week calendar, scoring rules,
// the contest engine, point recomputation and leaderboards.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// LeaderboardRequest selects a leaderboard period.
// Week is used for WeekPeriod and Month for MonthPeriod.
type LeaderboardRequest struct {
	Period schema.Period
	Year   int
	Week   int
	Month  int
}

// GetWeeklyPoints scores every week of the contest year for one athlete.
func GetWeeklyPoints(ctx context.Context, cfg *contract.Config, activities contract.ActivityStore, athleteID int64) (schema.WeeklyPoints, error) {
	athlete, err := activities.GetAthlete(ctx, athleteID)
	if err != nil {
		return schema.WeeklyPoints{}, fmt.Errorf("failed to load athlete %d: %w", athleteID, err)
	}
	engine := NewContestEngine(cfg, activities)
	weeks, err := engine.WeeklyBreakdown(ctx, athlete)
	if err != nil {
		return schema.WeeklyPoints{}, err
	}
	return schema.WeeklyPoints{Athlete: athlete, Year: cfg.ContestYear, Weeks: weeks}, nil
}

// GetLeaderboard builds the leaderboard named by req.
func GetLeaderboard(ctx context.Context, cfg *contract.Config, source StandingsSource, req LeaderboardRequest) (schema.Leaderboard, error) {
	boards := NewLeaderboards(source, cfg)
	switch req.Period {
	case schema.WeekPeriod:
		return boards.WeekLeaderboard(ctx, req.Year, req.Week)
	case schema.MonthPeriod:
		return boards.MonthLeaderboard(ctx, req.Year, time.Month(req.Month))
	case schema.YearPeriod:
		return boards.YearLeaderboard(ctx, req.Year)
	default:
		return schema.Leaderboard{}, fmt.Errorf("invalid period '%s'. must be week, month, year", req.Period)
	}
}
