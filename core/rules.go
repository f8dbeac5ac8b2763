package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// Rule names used in score breakdowns.
const (
	StandardRuleName         = "standard"
	RegularityBonusARuleName = "regularity_a"
	RegularityBonusBRuleName = "regularity_b"
)

// Rule converts one athlete's activities of a single week into points.
// Points are never negative and an empty week scores 0.
type Rule interface {
	Name() string
	CalculatePoints(ctx context.Context, athlete schema.Athlete, activities []schema.Activity) (int, error)
}

// WeekBinder is implemented by rules whose result depends on which week is
// being scored. BindWeek returns a fresh rule bound to week.
type WeekBinder interface {
	BindWeek(week schema.Week) Rule
}

// uniqueActivityDays returns the distinct local calendar days with at least one activity.
func uniqueActivityDays(activities []schema.Activity) int {
	type day struct {
		year  int
		month time.Month
		day   int
	}
	days := make(map[day]struct{}, len(activities))
	for _, a := range activities {
		y, m, d := a.StartDate.Date()
		days[day{y, m, d}] = struct{}{}
	}
	return len(days)
}

// Standard awards PointsPerActivity for each distinct day with an activity.
// Several activities on the same day count once.
type Standard struct {
	PointsPerActivity int
}

// Name implements Rule.
func (r Standard) Name() string { return StandardRuleName }

// CalculatePoints implements Rule.
func (r Standard) CalculatePoints(_ context.Context, _ schema.Athlete, activities []schema.Activity) (int, error) {
	return uniqueActivityDays(activities) * max(r.PointsPerActivity, 0), nil
}

// RegularityBonusA awards BonusPoints when the athlete was active this week and
// had at least one qualifying activity in the immediately preceding ISO week.
// The preceding week is looked up through Activities; it never looks further back.
type RegularityBonusA struct {
	BonusPoints int
	Week        schema.Week
	Activities  contract.ActivityQuerier
	MinDuration time.Duration
	Location    *time.Location
}

var _ WeekBinder = RegularityBonusA{} // Compile-time check

// Name implements Rule.
func (r RegularityBonusA) Name() string { return RegularityBonusARuleName }

// BindWeek implements WeekBinder.
func (r RegularityBonusA) BindWeek(week schema.Week) Rule {
	r.Week = week
	return r
}

// CalculatePoints implements Rule.
func (r RegularityBonusA) CalculatePoints(ctx context.Context, athlete schema.Athlete, activities []schema.Activity) (int, error) {
	if len(activities) == 0 || r.BonusPoints <= 0 {
		return 0, nil
	}
	if r.Week.Number == 0 {
		return 0, errors.New("regularity bonus A is not bound to a week")
	}
	if r.Activities == nil {
		return 0, errors.New("regularity bonus A has no activity source")
	}

	prev := PreviousWeek(r.Week)
	start, end, err := QueryRange(prev, r.Location)
	if err != nil {
		return 0, err
	}
	previous, err := r.Activities.QueryActivities(ctx, athlete.ID, start, end, r.MinDuration)
	if err != nil {
		return 0, fmt.Errorf("failed to query week %s for athlete %d: %w", prev, athlete.ID, err)
	}
	if len(previous) > 0 {
		return r.BonusPoints, nil
	}
	return 0, nil
}

// RegularityBonusB awards BonusPoints for at least four distinct active days in the week.
type RegularityBonusB struct {
	BonusPoints int
}

// Name implements Rule.
func (r RegularityBonusB) Name() string { return RegularityBonusBRuleName }

// CalculatePoints implements Rule.
func (r RegularityBonusB) CalculatePoints(_ context.Context, _ schema.Athlete, activities []schema.Activity) (int, error) {
	if uniqueActivityDays(activities) >= schema.RegularityBonusBMinDays {
		return max(r.BonusPoints, 0), nil
	}
	return 0, nil
}

// CanonicalRules returns the contest rule set:
// Standard(1), RegularityBonusA(2) and RegularityBonusB(2).
// RegularityBonusA is left unbound; ScoreWeek binds it per week.
func CanonicalRules(activities contract.ActivityQuerier, minDuration time.Duration, loc *time.Location) []Rule {
	return []Rule{
		Standard{PointsPerActivity: schema.StandardPointsPerActivity},
		RegularityBonusA{
			BonusPoints: schema.RegularityBonusAPoints,
			Activities:  activities,
			MinDuration: minDuration,
			Location:    loc,
		},
		RegularityBonusB{BonusPoints: schema.RegularityBonusBPoints},
	}
}

// BreakdownWeek scores one week with every rule, binding week-dependent
// rules to week first, and returns the total along with each rule's share.
func BreakdownWeek(ctx context.Context, rules []Rule, week schema.Week, athlete schema.Athlete, activities []schema.Activity) (schema.WeekScore, error) {
	score := schema.WeekScore{Week: week, Breakdown: make(map[string]int, len(rules))}
	for _, rule := range rules {
		if binder, ok := rule.(WeekBinder); ok {
			rule = binder.BindWeek(week)
		}
		points, err := rule.CalculatePoints(ctx, athlete, activities)
		if err != nil {
			return schema.WeekScore{}, fmt.Errorf("rule %s failed for week %s: %w", rule.Name(), week, err)
		}
		score.Breakdown[rule.Name()] += points
		score.Total += points
	}
	return score, nil
}

// ScoreWeek returns the summed points of all rules for one week.
func ScoreWeek(ctx context.Context, rules []Rule, week schema.Week, athlete schema.Athlete, activities []schema.Activity) (int, error) {
	score, err := BreakdownWeek(ctx, rules, week, athlete, activities)
	if err != nil {
		return 0, err
	}
	return score.Total, nil
}

// filterQualifying keeps activities whose moving time meets minDuration.
func filterQualifying(activities []schema.Activity, minDuration time.Duration) []schema.Activity {
	out := make([]schema.Activity, 0, len(activities))
	for _, a := range activities {
		if a.Qualifies(minDuration) {
			out = append(out, a)
		}
	}
	return out
}

// localize returns activities with StartDate expressed in loc, so calendar
// days are counted in the contest timezone. A nil loc leaves them unchanged.
func localize(activities []schema.Activity, loc *time.Location) []schema.Activity {
	if loc == nil {
		return activities
	}
	out := make([]schema.Activity, len(activities))
	for i, a := range activities {
		a.StartDate = a.StartDate.In(loc)
		out[i] = a
	}
	return out
}
