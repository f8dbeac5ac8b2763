package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAthlete = schema.Athlete{ID: 1, FirstName: "Ada", LastName: "Lovelace"}

// activitiesOn returns one qualifying activity per given start time.
func activitiesOn(starts ...time.Time) []schema.Activity {
	out := make([]schema.Activity, len(starts))
	for i, s := range starts {
		out[i] = schema.Activity{ID: int64(i + 1), AthleteID: testAthlete.ID, StartDate: s, MovingTime: 30 * time.Minute}
	}
	return out
}

// fourDays is Monday to Thursday of 2025-W10.
var fourDays = activitiesOn(
	time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC),
	time.Date(2025, 3, 4, 7, 0, 0, 0, time.UTC),
	time.Date(2025, 3, 5, 7, 0, 0, 0, time.UTC),
	time.Date(2025, 3, 6, 7, 0, 0, 0, time.UTC),
)

func TestStandard(t *testing.T) {
	ctx := context.Background()
	rule := Standard{PointsPerActivity: 1}

	t.Run("one point per day", func(t *testing.T) {
		points, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
		require.NoError(t, err)
		assert.Equal(t, 4, points)
	})

	t.Run("same day counts once", func(t *testing.T) {
		sameDay := activitiesOn(
			time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 3, 19, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 4, 7, 0, 0, 0, time.UTC),
		)
		points, err := rule.CalculatePoints(ctx, testAthlete, sameDay)
		require.NoError(t, err)
		assert.Equal(t, 2, points)
	})

	t.Run("empty week", func(t *testing.T) {
		points, err := rule.CalculatePoints(ctx, testAthlete, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, points)
	})

	t.Run("days follow the activity timezone", func(t *testing.T) {
		// 23:30 UTC and 00:30 UTC next day are the same day in UTC-2
		loc := time.FixedZone("UTC-2", -2*60*60)
		acts := localize(activitiesOn(
			time.Date(2025, 3, 3, 23, 30, 0, 0, time.UTC),
			time.Date(2025, 3, 4, 0, 30, 0, 0, time.UTC),
		), loc)
		points, err := rule.CalculatePoints(ctx, testAthlete, acts)
		require.NoError(t, err)
		assert.Equal(t, 1, points)
	})
}

func TestRegularityBonusB(t *testing.T) {
	ctx := context.Background()
	rule := RegularityBonusB{BonusPoints: 2}

	points, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
	require.NoError(t, err)
	assert.Equal(t, 2, points)

	points, err = rule.CalculatePoints(ctx, testAthlete, fourDays[:3])
	require.NoError(t, err)
	assert.Equal(t, 0, points, "three distinct days are not enough")

	points, err = rule.CalculatePoints(ctx, testAthlete, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, points)
}

func TestRegularityBonusA(t *testing.T) {
	ctx := context.Background()
	minDuration := 20 * time.Minute

	t.Run("active previous week", func(t *testing.T) {
		m := &store.MockStore{}
		start, end, _ := QueryRange(schema.Week{Year: 2025, Number: 9}, time.UTC)
		m.On("QueryActivities", mock.Anything, testAthlete.ID, start, end, minDuration).
			Return(activitiesOn(time.Date(2025, 2, 26, 7, 0, 0, 0, time.UTC)), nil)

		rule := RegularityBonusA{BonusPoints: 2, Activities: m, MinDuration: minDuration, Location: time.UTC}.
			BindWeek(schema.Week{Year: 2025, Number: 10})
		points, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
		require.NoError(t, err)
		assert.Equal(t, 2, points)
		m.AssertExpectations(t)
	})

	t.Run("inactive previous week", func(t *testing.T) {
		m := &store.MockStore{}
		m.On("QueryActivities", mock.Anything, testAthlete.ID, mock.Anything, mock.Anything, minDuration).
			Return([]schema.Activity{}, nil)

		rule := RegularityBonusA{BonusPoints: 2, Activities: m, MinDuration: minDuration, Location: time.UTC}.
			BindWeek(schema.Week{Year: 2025, Number: 10})
		points, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
		require.NoError(t, err)
		assert.Equal(t, 0, points)
	})

	t.Run("week 1 looks back to last week of previous year", func(t *testing.T) {
		m := &store.MockStore{}
		start := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
		m.On("QueryActivities", mock.Anything, testAthlete.ID, start, end, minDuration).
			Return(activitiesOn(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)), nil)

		rule := RegularityBonusA{BonusPoints: 2, Activities: m, MinDuration: minDuration, Location: time.UTC}.
			BindWeek(schema.Week{Year: 2025, Number: 1})
		points, err := rule.CalculatePoints(ctx, testAthlete, activitiesOn(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, 2, points)
		m.AssertExpectations(t)
	})

	t.Run("empty week never queries", func(t *testing.T) {
		m := &store.MockStore{}
		rule := RegularityBonusA{BonusPoints: 2, Activities: m}.BindWeek(schema.Week{Year: 2025, Number: 2})
		points, err := rule.CalculatePoints(ctx, testAthlete, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, points)
		m.AssertNotCalled(t, "QueryActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unbound rule fails", func(t *testing.T) {
		rule := RegularityBonusA{BonusPoints: 2, Activities: &store.MockStore{}}
		_, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
		assert.Error(t, err)
	})

	t.Run("query failure propagates", func(t *testing.T) {
		m := &store.MockStore{}
		boom := errors.New("db down")
		m.On("QueryActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, boom)
		rule := RegularityBonusA{BonusPoints: 2, Activities: m}.BindWeek(schema.Week{Year: 2025, Number: 2})
		_, err := rule.CalculatePoints(ctx, testAthlete, fourDays)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("binding returns a copy", func(t *testing.T) {
		base := RegularityBonusA{BonusPoints: 2}
		bound := base.BindWeek(schema.Week{Year: 2025, Number: 5}).(RegularityBonusA)
		assert.Equal(t, 0, base.Week.Number)
		assert.Equal(t, 5, bound.Week.Number)
	})
}

func TestBreakdownWeek(t *testing.T) {
	ctx := context.Background()
	m := &store.MockStore{}
	m.On("QueryActivities", mock.Anything, testAthlete.ID, mock.Anything, mock.Anything, mock.Anything).
		Return(activitiesOn(time.Date(2025, 2, 26, 7, 0, 0, 0, time.UTC)), nil)

	rules := CanonicalRules(m, 20*time.Minute, time.UTC)
	score, err := BreakdownWeek(ctx, rules, schema.Week{Year: 2025, Number: 10}, testAthlete, fourDays)
	require.NoError(t, err)
	assert.Equal(t, 8, score.Total)
	assert.Equal(t, map[string]int{
		StandardRuleName:         4,
		RegularityBonusARuleName: 2,
		RegularityBonusBRuleName: 2,
	}, score.Breakdown)

	total, err := ScoreWeek(ctx, rules, schema.Week{Year: 2025, Number: 10}, testAthlete, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	t.Run("rule order does not change the total", func(t *testing.T) {
		reversed := []Rule{rules[2], rules[1], rules[0]}
		other, err := ScoreWeek(ctx, reversed, schema.Week{Year: 2025, Number: 10}, testAthlete, fourDays)
		require.NoError(t, err)
		assert.Equal(t, score.Total, other)
	})
}

func TestFilterQualifying(t *testing.T) {
	acts := []schema.Activity{
		{ID: 1, MovingTime: 19 * time.Minute},
		{ID: 2, MovingTime: 20 * time.Minute},
		{ID: 3, MovingTime: time.Hour},
	}
	got := filterQualifying(acts, 20*time.Minute)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
}
