// Package schema has models and constants shared by all parts of contest.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// Athlete is a contest participant.
type Athlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Country   string `json:"country,omitempty"`
}

// DisplayName returns "First Last", falling back to the athlete ID.
func (a Athlete) DisplayName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return fmt.Sprintf("athlete %d", a.ID)
	}
	return name
}

// Activity is one recorded exercise session owned by exactly one athlete.
type Activity struct {
	ID                 int64         `json:"id"`
	AthleteID          int64         `json:"athlete_id"`
	Name               string        `json:"name"`
	Type               string        `json:"type"`
	StartDate          time.Time     `json:"start_date"`
	MovingTime         time.Duration `json:"moving_time"`
	ElapsedTime        time.Duration `json:"elapsed_time"`
	Distance           float64       `json:"distance"`             // meters
	TotalElevationGain float64       `json:"total_elevation_gain"` // meters
}

// Qualifies reports whether the activity meets the minimum moving time.
func (a Activity) Qualifies(minDuration time.Duration) bool {
	return a.MovingTime >= minDuration
}

// Week identifies an ISO-8601 week.
type Week struct {
	Year   int `json:"year"`
	Number int `json:"week"`
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) Week {
	year, week := t.ISOWeek()
	return Week{Year: year, Number: week}
}

// Before reports whether w sorts before other.
func (w Week) Before(other Week) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Number < other.Number
}

func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}

// PointKey is the composite identity of a point row.
type PointKey struct {
	Year      int   `json:"year"`
	Week      int   `json:"week_number"`
	AthleteID int64 `json:"athlete_id"`
}

// ISOWeek returns the ISO week of the key.
func (k PointKey) ISOWeek() Week {
	return Week{Year: k.Year, Number: k.Week}
}

// Point records that an athlete earned TotalPoints in one ISO week.
// A persisted point always has TotalPoints > 0; absence means zero.
type Point struct {
	PointKey
	TotalPoints int `json:"total_points"`
}

// Standing is one line of a leaderboard.
type Standing struct {
	Rank      int    `json:"rank"`
	AthleteID int64  `json:"athlete_id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Points    int    `json:"points"`
}

// Leaderboard is a ranked list of standings over a period.
type Leaderboard struct {
	Period    Period     `json:"period"`
	Year      int        `json:"year"`
	Week      int        `json:"week,omitempty"`
	Month     int        `json:"month,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Standings []Standing `json:"standings"`
}

// WeekScore is the per-rule breakdown of one athlete's week.
type WeekScore struct {
	Week      Week           `json:"week"`
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
}

// WeeklyPoints is the per-week scoring of one athlete for a contest year.
type WeeklyPoints struct {
	Athlete Athlete     `json:"athlete"`
	Year    int         `json:"year"`
	Weeks   []WeekScore `json:"weeks"`
}

// Total sums the points of all weeks.
func (p WeeklyPoints) Total() int {
	total := 0
	for _, w := range p.Weeks {
		total += w.Total
	}
	return total
}
