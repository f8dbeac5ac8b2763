package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/stravacontest/contest/schema"
)

// ErrInvalidWeek is returned for a (year, week) pair that is not a real ISO week.
var ErrInvalidWeek = errors.New("invalid ISO week")

// WeeksInYear returns the number of ISO weeks in year (52 or 53).
// December 28 always falls in the last ISO week of its year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

// LastWeekOf returns the last ISO week of year.
func LastWeekOf(year int) schema.Week {
	return schema.Week{Year: year, Number: WeeksInYear(year)}
}

// firstMonday returns the Monday starting ISO week 1 of year.
// Week 1 is the week containing January 4.
func firstMonday(year int, loc *time.Location) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset)
}

// WeekBoundaries returns the Monday and Sunday (midnight, in loc) of an ISO week.
// A nil loc means time.Local.
func WeekBoundaries(year, week int, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if week < 1 || week > WeeksInYear(year) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: year %d has no week %d", ErrInvalidWeek, year, week)
	}
	monday := firstMonday(year, loc).AddDate(0, 0, (week-1)*7)
	sunday := monday.AddDate(0, 0, 6)
	return monday, sunday, nil
}

// QueryRange returns the inclusive timestamp range covering every instant of
// an ISO week: Monday 00:00 through the last nanosecond of Sunday.
func QueryRange(week schema.Week, loc *time.Location) (time.Time, time.Time, error) {
	monday, sunday, err := WeekBoundaries(week.Year, week.Number, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return monday, sunday.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

// PreviousWeek returns the ISO week right before week. Week 1 rolls back to
// the last ISO week of the previous year.
func PreviousWeek(week schema.Week) schema.Week {
	if week.Number <= 1 {
		return LastWeekOf(week.Year - 1)
	}
	return schema.Week{Year: week.Year, Number: week.Number - 1}
}

// WeeksToCompute lists the weeks scored for a contest year, in ascending order:
// the last ISO week of the previous year (lookback) followed by every ISO week
// of contestYear up to and including (currentYear, currentWeek). Past contest
// years are returned in full; future ones yield only the lookback week.
func WeeksToCompute(contestYear, currentYear, currentWeek int) []schema.Week {
	weeks := []schema.Week{LastWeekOf(contestYear - 1)}
	jan4 := time.Date(contestYear, time.January, 4, 0, 0, 0, 0, time.UTC)
	for week := 1; week <= 53; week++ {
		// Round trip rejects week 53 in 52-week years.
		year, number := jan4.AddDate(0, 0, 7*(week-1)).ISOWeek()
		if year != contestYear || number != week {
			continue
		}
		if contestYear > currentYear || (contestYear == currentYear && week > currentWeek) {
			break
		}
		weeks = append(weeks, schema.Week{Year: contestYear, Number: week})
	}
	return weeks
}

// WeeksOfYear returns every ISO week of year.
func WeeksOfYear(year int) []schema.Week {
	n := WeeksInYear(year)
	weeks := make([]schema.Week, 0, n)
	for week := 1; week <= n; week++ {
		weeks = append(weeks, schema.Week{Year: year, Number: week})
	}
	return weeks
}

// WeeksOfMonth returns the distinct ISO weeks that contain at least one day
// of the given month, in ascending order.
func WeeksOfMonth(year int, month time.Month) []schema.Week {
	var weeks []schema.Week
	seen := make(map[schema.Week]struct{})
	for day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); day.Month() == month; day = day.AddDate(0, 0, 1) {
		w := schema.WeekOf(day)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		weeks = append(weeks, w)
	}
	return weeks
}
