package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// MemoryStore keeps everything in process memory. It backs tests and dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	txMu       sync.Mutex // one transaction at a time
	athletes   map[int64]schema.Athlete
	activities map[int64]schema.Activity
	points     map[schema.PointKey]memoryPoint
	now        func() time.Time
}

type memoryPoint struct {
	total     int
	updatedAt time.Time
}

var _ contract.Store = &MemoryStore{} // Compile-time check

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		athletes:   make(map[int64]schema.Athlete),
		activities: make(map[int64]schema.Activity),
		points:     make(map[schema.PointKey]memoryPoint),
		now:        time.Now,
	}
}

// QueryActivities implements contract.ActivityQuerier.
func (m *MemoryStore) QueryActivities(_ context.Context, athleteID int64, start, end time.Time, minDuration time.Duration) ([]schema.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schema.Activity
	for _, a := range m.activities {
		if a.AthleteID != athleteID || a.StartDate.Before(start) || a.StartDate.After(end) {
			continue
		}
		if a.Qualifies(minDuration) {
			out = append(out, a)
		}
	}
	sortActivities(out)
	return out, nil
}

// LoadAllActivities implements contract.ActivityStore.
func (m *MemoryStore) LoadAllActivities(_ context.Context, athleteID int64) ([]schema.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []schema.Activity
	for _, a := range m.activities {
		if a.AthleteID == athleteID {
			out = append(out, a)
		}
	}
	sortActivities(out)
	return out, nil
}

// ListActivities returns every activity ordered by athlete and start date.
func (m *MemoryStore) ListActivities(_ context.Context) ([]schema.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.activities))
	sortActivities(out)
	return out, nil
}

func sortActivities(activities []schema.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if a.AthleteID != b.AthleteID {
			return a.AthleteID < b.AthleteID
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})
}

// ListAthletes implements contract.ActivityStore.
func (m *MemoryStore) ListAthletes(_ context.Context) ([]schema.Athlete, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.athletes))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetAthlete implements contract.ActivityStore.
func (m *MemoryStore) GetAthlete(_ context.Context, athleteID int64) (schema.Athlete, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.athletes[athleteID]
	if !ok {
		return schema.Athlete{}, fmt.Errorf("athlete %d: %w", athleteID, contract.ErrNotFound)
	}
	return a, nil
}

// UpsertAthlete implements contract.ActivityStore.
func (m *MemoryStore) UpsertAthlete(_ context.Context, athlete schema.Athlete) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.athletes[athlete.ID] = athlete
	return nil
}

// FindActivity implements contract.ActivityStore.
func (m *MemoryStore) FindActivity(_ context.Context, activityID int64) (schema.Activity, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[activityID]
	return a, ok, nil
}

// UpsertActivity implements contract.ActivityStore.
func (m *MemoryStore) UpsertActivity(_ context.Context, activity schema.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.athletes[activity.AthleteID]; !ok {
		return fmt.Errorf("activity %d references athlete %d: %w", activity.ID, activity.AthleteID, contract.ErrNotFound)
	}
	m.activities[activity.ID] = activity
	return nil
}

// FindPoint implements contract.PointReader.
func (m *MemoryStore) FindPoint(_ context.Context, key schema.PointKey) (schema.Point, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return findPoint(m.points, key)
}

// ListAthletePoints implements contract.PointReader.
func (m *MemoryStore) ListAthletePoints(_ context.Context, athleteID int64) ([]schema.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return athletePoints(m.points, athleteID), nil
}

// ListPoints implements contract.PointStore.
func (m *MemoryStore) ListPoints(_ context.Context) ([]schema.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]schema.Point, 0, len(m.points))
	for key, p := range m.points {
		out = append(out, schema.Point{PointKey: key, TotalPoints: p.total})
	}
	sortPoints(out)
	return out, nil
}

// WithinTx implements contract.PointStore. fn works on a copy of the point
// table which replaces the original only when fn succeeds.
func (m *MemoryStore) WithinTx(_ context.Context, fn func(tx contract.PointWriter) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	tx := &memoryTx{points: maps.Clone(m.points), now: m.now}
	m.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.points = tx.points
	m.mu.Unlock()
	return nil
}

// Standings implements contract.PointStore.
func (m *MemoryStore) Standings(_ context.Context, weeks []schema.Week) ([]schema.Standing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[schema.Week]struct{}, len(weeks))
	for _, w := range weeks {
		wanted[w] = struct{}{}
	}
	totals := make(map[int64]int)
	for key, p := range m.points {
		if _, ok := wanted[key.ISOWeek()]; ok {
			totals[key.AthleteID] += p.total
		}
	}
	standings := make([]schema.Standing, 0, len(totals))
	for id, total := range totals {
		a, ok := m.athletes[id]
		if !ok {
			continue
		}
		standings = append(standings, schema.Standing{AthleteID: id, FirstName: a.FirstName, LastName: a.LastName, Points: total})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].AthleteID < standings[j].AthleteID
	})
	return standings, nil
}

// GetStatus implements contract.Store.
func (m *MemoryStore) GetStatus(_ context.Context) (schema.StoreStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := schema.StoreStatus{
		Backend:         string(schema.MemoryBackend),
		Connected:       true,
		TotalAthletes:   len(m.athletes),
		TotalActivities: len(m.activities),
		TotalPoints:     len(m.points),
		TableRows: map[string]int64{
			athletesTable:   int64(len(m.athletes)),
			activitiesTable: int64(len(m.activities)),
			pointsTable:     int64(len(m.points)),
		},
	}
	for _, a := range m.activities {
		if status.OldestActivity.IsZero() || a.StartDate.Before(status.OldestActivity) {
			status.OldestActivity = a.StartDate
		}
		if a.StartDate.After(status.LatestActivity) {
			status.LatestActivity = a.StartDate
		}
	}
	for _, p := range m.points {
		if p.updatedAt.After(status.LastPointsUpdate) {
			status.LastPointsUpdate = p.updatedAt
		}
	}
	return status, nil
}

// Close implements contract.Store.
func (m *MemoryStore) Close() error { return nil }

// memoryTx is the PointWriter handed to WithinTx callbacks.
type memoryTx struct {
	points map[schema.PointKey]memoryPoint
	now    func() time.Time
}

func (tx *memoryTx) FindPoint(_ context.Context, key schema.PointKey) (schema.Point, bool, error) {
	return findPoint(tx.points, key)
}

func (tx *memoryTx) ListAthletePoints(_ context.Context, athleteID int64) ([]schema.Point, error) {
	return athletePoints(tx.points, athleteID), nil
}

func (tx *memoryTx) UpsertPoint(_ context.Context, p schema.Point) error {
	if p.TotalPoints <= 0 {
		return fmt.Errorf("refusing to store %d points for %v", p.TotalPoints, p.PointKey)
	}
	tx.points[p.PointKey] = memoryPoint{total: p.TotalPoints, updatedAt: tx.now()}
	return nil
}

func (tx *memoryTx) DeletePoint(_ context.Context, key schema.PointKey) error {
	delete(tx.points, key)
	return nil
}

func findPoint(points map[schema.PointKey]memoryPoint, key schema.PointKey) (schema.Point, bool, error) {
	p, ok := points[key]
	if !ok {
		return schema.Point{}, false, nil
	}
	return schema.Point{PointKey: key, TotalPoints: p.total}, true, nil
}

func athletePoints(points map[schema.PointKey]memoryPoint, athleteID int64) []schema.Point {
	var out []schema.Point
	for key, p := range points {
		if key.AthleteID == athleteID {
			out = append(out, schema.Point{PointKey: key, TotalPoints: p.total})
		}
	}
	sortPoints(out)
	return out
}

func sortPoints(points []schema.Point) {
	sort.Slice(points, func(i, j int) bool {
		a, b := points[i].PointKey, points[j].PointKey
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.AthleteID < b.AthleteID
	})
}
