// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/stravacontest/contest/schema"
)

// ActivityQuerier returns the activities of one athlete that started inside
// [start, end] and whose moving time is at least minDuration.
// Order of the returned activities is unspecified.
type ActivityQuerier interface {
	QueryActivities(ctx context.Context, athleteID int64, start, end time.Time, minDuration time.Duration) ([]schema.Activity, error)
}

// ActivityStore defines the athlete and activity side of the store.
// This allows the engine to be tested without a database.
type ActivityStore interface {
	ActivityQuerier

	// LoadAllActivities returns every activity of an athlete regardless of date or duration.
	LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error)

	// ListAthletes returns all known athletes ordered by ID.
	ListAthletes(ctx context.Context) ([]schema.Athlete, error)

	// GetAthlete returns a single athlete, or ErrNotFound.
	GetAthlete(ctx context.Context, athleteID int64) (schema.Athlete, error)

	// UpsertAthlete inserts or updates an athlete by ID.
	UpsertAthlete(ctx context.Context, athlete schema.Athlete) error

	// FindActivity returns the activity with the given ID and whether it exists.
	FindActivity(ctx context.Context, activityID int64) (schema.Activity, bool, error)

	// UpsertActivity inserts or updates an activity by ID.
	UpsertActivity(ctx context.Context, activity schema.Activity) error
}

// PointReader reads persisted point rows.
type PointReader interface {
	// FindPoint returns the row for key and whether it exists.
	FindPoint(ctx context.Context, key schema.PointKey) (schema.Point, bool, error)

	// ListAthletePoints returns every row of one athlete ordered by week.
	ListAthletePoints(ctx context.Context, athleteID int64) ([]schema.Point, error)
}

// PointWriter mutates point rows. It is only handed out inside a transaction.
type PointWriter interface {
	PointReader

	// UpsertPoint inserts the row or replaces its value. TotalPoints must be > 0.
	UpsertPoint(ctx context.Context, point schema.Point) error

	// DeletePoint removes the row for key if present.
	DeletePoint(ctx context.Context, key schema.PointKey) error
}

// PointStore defines the point side of the store.
type PointStore interface {
	PointReader

	// WithinTx runs fn in a single transaction. If fn returns an error
	// nothing it wrote is kept.
	WithinTx(ctx context.Context, fn func(tx PointWriter) error) error

	// Standings sums points per athlete over the given weeks, highest first.
	// Rank is left for the caller to assign.
	Standings(ctx context.Context, weeks []schema.Week) ([]schema.Standing, error)

	// ListPoints returns all rows ordered by year, week and athlete.
	ListPoints(ctx context.Context) ([]schema.Point, error)
}

// Store is the full persistence contract used by the CLI.
type Store interface {
	ActivityStore
	PointStore

	// GetStatus returns status information about the store.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// Clock returns the current time. Injected so tests can pin "today".
type Clock func() time.Time
