package store

import (
	"context"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store for testing.
// WithinTx hands the mock itself to the callback as the transaction.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// QueryActivities implements the Store interface.
func (m *MockStore) QueryActivities(ctx context.Context, athleteID int64, start, end time.Time, minDuration time.Duration) ([]schema.Activity, error) {
	args := m.Called(ctx, athleteID, start, end, minDuration)
	activities, _ := args.Get(0).([]schema.Activity)
	return activities, args.Error(1)
}

// LoadAllActivities implements the Store interface.
func (m *MockStore) LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error) {
	args := m.Called(ctx, athleteID)
	activities, _ := args.Get(0).([]schema.Activity)
	return activities, args.Error(1)
}

// ListAthletes implements the Store interface.
func (m *MockStore) ListAthletes(ctx context.Context) ([]schema.Athlete, error) {
	args := m.Called(ctx)
	athletes, _ := args.Get(0).([]schema.Athlete)
	return athletes, args.Error(1)
}

// GetAthlete implements the Store interface.
func (m *MockStore) GetAthlete(ctx context.Context, athleteID int64) (schema.Athlete, error) {
	args := m.Called(ctx, athleteID)
	return args.Get(0).(schema.Athlete), args.Error(1)
}

// UpsertAthlete implements the Store interface.
func (m *MockStore) UpsertAthlete(ctx context.Context, athlete schema.Athlete) error {
	args := m.Called(ctx, athlete)
	return args.Error(0)
}

// FindActivity implements the Store interface.
func (m *MockStore) FindActivity(ctx context.Context, activityID int64) (schema.Activity, bool, error) {
	args := m.Called(ctx, activityID)
	return args.Get(0).(schema.Activity), args.Bool(1), args.Error(2)
}

// UpsertActivity implements the Store interface.
func (m *MockStore) UpsertActivity(ctx context.Context, activity schema.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

// FindPoint implements the Store interface.
func (m *MockStore) FindPoint(ctx context.Context, key schema.PointKey) (schema.Point, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(schema.Point), args.Bool(1), args.Error(2)
}

// ListAthletePoints implements the Store interface.
func (m *MockStore) ListAthletePoints(ctx context.Context, athleteID int64) ([]schema.Point, error) {
	args := m.Called(ctx, athleteID)
	points, _ := args.Get(0).([]schema.Point)
	return points, args.Error(1)
}

// UpsertPoint implements the PointWriter interface.
func (m *MockStore) UpsertPoint(ctx context.Context, point schema.Point) error {
	args := m.Called(ctx, point)
	return args.Error(0)
}

// DeletePoint implements the PointWriter interface.
func (m *MockStore) DeletePoint(ctx context.Context, key schema.PointKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// WithinTx implements the Store interface.
func (m *MockStore) WithinTx(ctx context.Context, fn func(tx contract.PointWriter) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

// Standings implements the Store interface.
func (m *MockStore) Standings(ctx context.Context, weeks []schema.Week) ([]schema.Standing, error) {
	args := m.Called(ctx, weeks)
	standings, _ := args.Get(0).([]schema.Standing)
	return standings, args.Error(1)
}

// ListPoints implements the Store interface.
func (m *MockStore) ListPoints(ctx context.Context) ([]schema.Point, error) {
	args := m.Called(ctx)
	points, _ := args.Get(0).([]schema.Point)
	return points, args.Error(1)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
