package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// StandingsSource sums persisted points per athlete over a set of weeks.
type StandingsSource interface {
	Standings(ctx context.Context, weeks []schema.Week) ([]schema.Standing, error)
}

// Leaderboards builds week, month and year rankings from persisted points.
type Leaderboards struct {
	Source   StandingsSource
	Location *time.Location
	Limit    int // 0 means no limit
}

// NewLeaderboards returns leaderboards over source configured by cfg.
func NewLeaderboards(source StandingsSource, cfg *contract.Config) *Leaderboards {
	return &Leaderboards{Source: source, Location: cfg.Location, Limit: cfg.ResultLimit}
}

// WeekLeaderboard ranks athletes by their points of a single ISO week.
func (l *Leaderboards) WeekLeaderboard(ctx context.Context, year, week int) (schema.Leaderboard, error) {
	monday, sunday, err := WeekBoundaries(year, week, l.Location)
	if err != nil {
		return schema.Leaderboard{}, err
	}
	board := schema.Leaderboard{Period: schema.WeekPeriod, Year: year, Week: week, Start: monday, End: sunday}
	return l.fill(ctx, board, []schema.Week{{Year: year, Number: week}})
}

// MonthLeaderboard ranks athletes by their points over every ISO week that
// has at least one day in the month.
func (l *Leaderboards) MonthLeaderboard(ctx context.Context, year int, month time.Month) (schema.Leaderboard, error) {
	if month < time.January || month > time.December {
		return schema.Leaderboard{}, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, l.location())
	board := schema.Leaderboard{
		Period: schema.MonthPeriod,
		Year:   year,
		Month:  int(month),
		Start:  first,
		End:    first.AddDate(0, 1, -1),
	}
	return l.fill(ctx, board, WeeksOfMonth(year, month))
}

// YearLeaderboard ranks athletes by their points over every ISO week of year.
func (l *Leaderboards) YearLeaderboard(ctx context.Context, year int) (schema.Leaderboard, error) {
	start, _, err := WeekBoundaries(year, 1, l.Location)
	if err != nil {
		return schema.Leaderboard{}, err
	}
	_, end, err := WeekBoundaries(year, WeeksInYear(year), l.Location)
	if err != nil {
		return schema.Leaderboard{}, err
	}
	board := schema.Leaderboard{Period: schema.YearPeriod, Year: year, Start: start, End: end}
	return l.fill(ctx, board, WeeksOfYear(year))
}

func (l *Leaderboards) fill(ctx context.Context, board schema.Leaderboard, weeks []schema.Week) (schema.Leaderboard, error) {
	standings, err := l.Source.Standings(ctx, weeks)
	if err != nil {
		return schema.Leaderboard{}, fmt.Errorf("failed to load %s standings: %w", board.Period, err)
	}
	board.Standings = RankStandings(standings, l.Limit)
	return board, nil
}

func (l *Leaderboards) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

// RankStandings orders standings by points (desc), last name, first name and
// athlete ID, assigns 1-based ranks and applies limit when positive.
func RankStandings(standings []schema.Standing, limit int) []schema.Standing {
	ranked := make([]schema.Standing, 0, len(standings))
	for _, s := range standings {
		if s.Points > 0 {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.AthleteID < b.AthleteID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
