package core

import (
	"testing"
	"time"

	"github.com/stravacontest/contest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeksInYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2015, 53},
		{2020, 53},
		{2021, 52},
		{2024, 52},
		{2025, 52},
		{2026, 53},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WeeksInYear(tt.year), "year %d", tt.year)
	}
}

func TestWeekBoundaries(t *testing.T) {
	t.Run("week 1 starts in previous year", func(t *testing.T) {
		monday, sunday, err := WeekBoundaries(2025, 1, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.December, 30), monday)
		assert.Equal(t, date(2025, time.January, 5), sunday)
	})

	t.Run("week 53 of a long year", func(t *testing.T) {
		monday, sunday, err := WeekBoundaries(2020, 53, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, date(2020, time.December, 28), monday)
		assert.Equal(t, date(2021, time.January, 3), sunday)
	})

	t.Run("monday is a monday and sunday six days later", func(t *testing.T) {
		for week := 1; week <= WeeksInYear(2024); week++ {
			monday, sunday, err := WeekBoundaries(2024, week, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, time.Monday, monday.Weekday())
			assert.Equal(t, time.Sunday, sunday.Weekday())
			y, w := monday.ISOWeek()
			assert.Equal(t, 2024, y)
			assert.Equal(t, week, w)
		}
	})

	t.Run("invalid weeks", func(t *testing.T) {
		for _, week := range []int{0, -1, 54} {
			_, _, err := WeekBoundaries(2025, week, time.UTC)
			assert.ErrorIs(t, err, ErrInvalidWeek, "week %d", week)
		}
		_, _, err := WeekBoundaries(2021, 53, time.UTC)
		assert.ErrorIs(t, err, ErrInvalidWeek)
	})

	t.Run("location is honored", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		monday, _, err := WeekBoundaries(2025, 10, loc)
		require.NoError(t, err)
		assert.Equal(t, loc, monday.Location())
		assert.Equal(t, 0, monday.Hour())
	})
}

func TestQueryRange(t *testing.T) {
	start, end, err := QueryRange(schema.Week{Year: 2025, Number: 2}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 6), start)
	assert.Equal(t, date(2025, time.January, 13).Add(-time.Nanosecond), end)

	_, _, err = QueryRange(schema.Week{Year: 2025, Number: 60}, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidWeek)
}

func TestPreviousWeek(t *testing.T) {
	assert.Equal(t, schema.Week{Year: 2025, Number: 9}, PreviousWeek(schema.Week{Year: 2025, Number: 10}))
	assert.Equal(t, schema.Week{Year: 2024, Number: 52}, PreviousWeek(schema.Week{Year: 2025, Number: 1}))
	assert.Equal(t, schema.Week{Year: 2020, Number: 53}, PreviousWeek(schema.Week{Year: 2021, Number: 1}))
}

func TestWeeksToCompute(t *testing.T) {
	t.Run("current year stops at current week", func(t *testing.T) {
		weeks := WeeksToCompute(2025, 2025, 3)
		assert.Equal(t, []schema.Week{
			{Year: 2024, Number: 52},
			{Year: 2025, Number: 1},
			{Year: 2025, Number: 2},
			{Year: 2025, Number: 3},
		}, weeks)
	})

	t.Run("past year is complete", func(t *testing.T) {
		weeks := WeeksToCompute(2021, 2025, 10)
		require.Len(t, weeks, 53)
		assert.Equal(t, schema.Week{Year: 2020, Number: 53}, weeks[0])
		assert.Equal(t, schema.Week{Year: 2021, Number: 52}, weeks[52])
	})

	t.Run("53 week year", func(t *testing.T) {
		weeks := WeeksToCompute(2020, 2020, 53)
		require.Len(t, weeks, 54)
		assert.Equal(t, schema.Week{Year: 2019, Number: 52}, weeks[0])
		assert.Equal(t, schema.Week{Year: 2020, Number: 53}, weeks[53])
	})

	t.Run("future year yields only lookback", func(t *testing.T) {
		weeks := WeeksToCompute(2026, 2025, 40)
		assert.Equal(t, []schema.Week{{Year: 2025, Number: 52}}, weeks)
	})

	t.Run("ascending and unique", func(t *testing.T) {
		weeks := WeeksToCompute(2026, 2026, 53)
		for i := 1; i < len(weeks); i++ {
			assert.True(t, weeks[i-1].Before(weeks[i]), "%s before %s", weeks[i-1], weeks[i])
		}
	})
}

func TestWeeksOfMonth(t *testing.T) {
	weeks := WeeksOfMonth(2025, time.January)
	assert.Equal(t, []schema.Week{
		{Year: 2025, Number: 1},
		{Year: 2025, Number: 2},
		{Year: 2025, Number: 3},
		{Year: 2025, Number: 4},
		{Year: 2025, Number: 5},
	}, weeks)

	// January 1-3 2021 belong to the last ISO week of 2020
	weeks = WeeksOfMonth(2021, time.January)
	require.Len(t, weeks, 5)
	assert.Equal(t, schema.Week{Year: 2020, Number: 53}, weeks[0])
	assert.Equal(t, schema.Week{Year: 2021, Number: 4}, weeks[4])
}

func TestWeeksOfYear(t *testing.T) {
	assert.Len(t, WeeksOfYear(2020), 53)
	assert.Len(t, WeeksOfYear(2025), 52)
}
