package core

import (
	"context"
	"fmt"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// ContestEngine scores every week of a contest year for one athlete.
type ContestEngine struct {
	Rules       []Rule
	Year        int
	Activities  contract.ActivityQuerier
	MinDuration time.Duration
	Location    *time.Location
	Now         contract.Clock
}

// NewContestEngine builds an engine over the canonical rule set from cfg.
func NewContestEngine(cfg *contract.Config, activities contract.ActivityQuerier) *ContestEngine {
	return &ContestEngine{
		Rules:       CanonicalRules(activities, cfg.MinActivityTime, cfg.Location),
		Year:        cfg.ContestYear,
		Activities:  activities,
		MinDuration: cfg.MinActivityTime,
		Location:    cfg.Location,
		Now:         cfg.Now,
	}
}

// Weeks returns the weeks this engine scores given its clock.
func (e *ContestEngine) Weeks() []schema.Week {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	today := now()
	if e.Location != nil {
		today = today.In(e.Location)
	}
	currentYear, currentWeek := today.ISOWeek()
	return WeeksToCompute(e.Year, currentYear, currentWeek)
}

// CalculatePointsForAllWeeks returns the total points of every week of the
// contest year, zero-point weeks included.
func (e *ContestEngine) CalculatePointsForAllWeeks(ctx context.Context, athlete schema.Athlete) (map[schema.Week]int, error) {
	scores, err := e.WeeklyBreakdown(ctx, athlete)
	if err != nil {
		return nil, err
	}
	results := make(map[schema.Week]int, len(scores))
	for _, s := range scores {
		results[s.Week] = s.Total
	}
	return results, nil
}

// WeeklyBreakdown returns per-rule scores for every week, in week order.
func (e *ContestEngine) WeeklyBreakdown(ctx context.Context, athlete schema.Athlete) ([]schema.WeekScore, error) {
	weeks := e.Weeks()
	scores := make([]schema.WeekScore, 0, len(weeks))
	for _, week := range weeks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start, end, err := QueryRange(week, e.Location)
		if err != nil {
			return nil, err
		}
		activities, err := e.Activities.QueryActivities(ctx, athlete.ID, start, end, e.MinDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to query week %s for athlete %d: %w", week, athlete.ID, err)
		}
		score, err := BreakdownWeek(ctx, e.Rules, week, athlete, localize(activities, e.Location))
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, nil
}
