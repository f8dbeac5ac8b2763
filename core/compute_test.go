package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pointsOf(t *testing.T, s contract.PointReader, athleteID int64) map[schema.Week]int {
	t.Helper()
	rows, err := s.ListAthletePoints(context.Background(), athleteID)
	require.NoError(t, err)
	out := make(map[schema.Week]int, len(rows))
	for _, p := range rows {
		out[p.ISOWeek()] = p.TotalPoints
	}
	return out
}

func newTestRecomputer(s PointSyncStore) *Recomputer {
	return NewRecomputer(s, testConfig(at(2025, time.March, 1, 12)), contract.DiscardLogger())
}

func TestComputeAthletePoints(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, []schema.Athlete{testAthlete}, []schema.Activity{
		activity(1, 1, at(2024, time.December, 31, 7), 30*time.Minute), // 2025-W1
		activity(2, 1, at(2025, time.January, 6, 7), 30*time.Minute),   // 2025-W2
		activity(3, 1, at(2025, time.January, 7, 7), 30*time.Minute),
		activity(4, 1, at(2025, time.January, 8, 7), 30*time.Minute),
		activity(5, 1, at(2025, time.January, 9, 7), 30*time.Minute),
		activity(6, 1, at(2025, time.January, 22, 7), 5*time.Minute), // 2025-W4, too short
	})
	r := newTestRecomputer(s)

	res, err := r.ComputeAthletePoints(ctx, testAthlete)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Weeks)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Unchanged, "zero week without a row is a no-op")

	assert.Equal(t, map[schema.Week]int{
		{Year: 2025, Number: 1}: 1,
		{Year: 2025, Number: 2}: 8,
	}, pointsOf(t, s, testAthlete.ID))

	t.Run("idempotent", func(t *testing.T) {
		res, err := r.ComputeAthletePoints(ctx, testAthlete)
		require.NoError(t, err)
		assert.Zero(t, res.Inserted+res.Updated+res.Deleted)
		assert.Equal(t, map[schema.Week]int{
			{Year: 2025, Number: 1}: 1,
			{Year: 2025, Number: 2}: 8,
		}, pointsOf(t, s, testAthlete.ID))
	})

	t.Run("new activity updates the week", func(t *testing.T) {
		require.NoError(t, s.UpsertActivity(ctx, activity(7, 1, at(2025, time.January, 2, 7), 45*time.Minute)))
		res, err := r.ComputeAthletePoints(ctx, testAthlete)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Updated)
		assert.Equal(t, 2, pointsOf(t, s, testAthlete.ID)[schema.Week{Year: 2025, Number: 1}])
	})

	t.Run("week that drops to zero is deleted", func(t *testing.T) {
		// Shorten both week 1 activities below the threshold
		require.NoError(t, s.UpsertActivity(ctx, activity(1, 1, at(2024, time.December, 31, 7), 10*time.Minute)))
		require.NoError(t, s.UpsertActivity(ctx, activity(7, 1, at(2025, time.January, 2, 7), 10*time.Minute)))
		res, err := r.ComputeAthletePoints(ctx, testAthlete)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Deleted)
		assert.Equal(t, 1, res.Updated, "week 2 loses bonus A")
		assert.Equal(t, map[schema.Week]int{
			{Year: 2025, Number: 2}: 6,
		}, pointsOf(t, s, testAthlete.ID))
	})
}

func TestComputeAthletePoints_StaleRowWithoutActivities(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, []schema.Athlete{testAthlete}, nil)
	stale := schema.PointKey{Year: 2025, Week: 5, AthleteID: testAthlete.ID}
	require.NoError(t, s.WithinTx(ctx, func(tx contract.PointWriter) error {
		return tx.UpsertPoint(ctx, schema.Point{PointKey: stale, TotalPoints: 4})
	}))

	res, err := newTestRecomputer(s).ComputeAthletePoints(ctx, testAthlete)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Empty(t, pointsOf(t, s, testAthlete.ID))
}

func TestComputeAthletePoints_Timezone(t *testing.T) {
	ctx := context.Background()
	// Sunday 23:30 UTC is already Monday in UTC+2
	s := seedStore(t, []schema.Athlete{testAthlete}, []schema.Activity{
		activity(1, 1, time.Date(2025, time.March, 9, 23, 30, 0, 0, time.UTC), 30*time.Minute),
	})
	cfg := testConfig(at(2025, time.March, 20, 12))
	cfg.Location = time.FixedZone("UTC+2", 2*60*60)

	_, err := NewRecomputer(s, cfg, contract.DiscardLogger()).ComputeAthletePoints(ctx, testAthlete)
	require.NoError(t, err)
	assert.Equal(t, map[schema.Week]int{{Year: 2025, Number: 11}: 1}, pointsOf(t, s, testAthlete.ID))
}

func TestComputeAthletePoints_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, []schema.Athlete{testAthlete}, fourDays)
	r := newTestRecomputer(s)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ComputeAthletePoints(ctx, testAthlete)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, map[schema.Week]int{{Year: 2025, Number: 10}: 6}, pointsOf(t, s, testAthlete.ID))
}

// slowStore delays activity loads and tracks how many overlap per athlete.
type slowStore struct {
	*store.MemoryStore
	delay time.Duration

	mu     sync.Mutex
	active map[int64]int
	peak   map[int64]int
}

func newSlowStore(s *store.MemoryStore, delay time.Duration) *slowStore {
	return &slowStore{MemoryStore: s, delay: delay, active: map[int64]int{}, peak: map[int64]int{}}
}

func (s *slowStore) LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error) {
	s.mu.Lock()
	s.active[athleteID]++
	s.peak[athleteID] = max(s.peak[athleteID], s.active[athleteID])
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.active[athleteID]--
	s.mu.Unlock()
	return s.MemoryStore.LoadAllActivities(ctx, athleteID)
}

func (s *slowStore) peakFor(athleteID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak[athleteID]
}

func TestComputeAthletePoints_SerializedAcrossRecomputers(t *testing.T) {
	ctx := context.Background()
	slow := newSlowStore(seedStore(t, []schema.Athlete{testAthlete}, fourDays), 50*time.Millisecond)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := newTestRecomputer(slow).ComputeAthletePoints(ctx, testAthlete)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, slow.peakFor(testAthlete.ID), "one recomputation per athlete at a time")
	assert.Equal(t, map[schema.Week]int{{Year: 2025, Number: 10}: 6}, pointsOf(t, slow, testAthlete.ID))
}

func TestComputeAthletePoints_TxFailure(t *testing.T) {
	ctx := context.Background()
	m := &store.MockStore{}
	boom := errors.New("deadlock")
	m.On("LoadAllActivities", mock.Anything, testAthlete.ID).Return(fourDays, nil)
	m.On("ListAthletePoints", mock.Anything, testAthlete.ID).Return([]schema.Point{}, nil)
	m.On("QueryActivities", mock.Anything, testAthlete.ID, mock.Anything, mock.Anything, mock.Anything).Return([]schema.Activity{}, nil)
	m.On("WithinTx", mock.Anything).Return(boom)

	_, err := newTestRecomputer(m).ComputeAthletePoints(ctx, testAthlete)
	assert.ErrorIs(t, err, boom)
	m.AssertNotCalled(t, "UpsertPoint", mock.Anything, mock.Anything)
}

func TestComputeAthletePoints_WritesThroughTx(t *testing.T) {
	ctx := context.Background()
	m := &store.MockStore{}
	key := schema.PointKey{Year: 2025, Week: 10, AthleteID: testAthlete.ID}
	m.On("LoadAllActivities", mock.Anything, testAthlete.ID).Return(fourDays, nil)
	m.On("ListAthletePoints", mock.Anything, testAthlete.ID).Return([]schema.Point{}, nil)
	m.On("QueryActivities", mock.Anything, testAthlete.ID, mock.Anything, mock.Anything, mock.Anything).Return([]schema.Activity{}, nil)
	m.On("WithinTx", mock.Anything).Return(nil)
	m.On("FindPoint", mock.Anything, key).Return(schema.Point{PointKey: key, TotalPoints: 2}, true, nil)
	m.On("UpsertPoint", mock.Anything, schema.Point{PointKey: key, TotalPoints: 6}).Return(nil)

	res, err := newTestRecomputer(m).ComputeAthletePoints(ctx, testAthlete)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	m.AssertExpectations(t)
}

func TestComputeAthleteByID(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, []schema.Athlete{testAthlete}, fourDays)
	r := newTestRecomputer(s)

	res, err := r.ComputeAthleteByID(ctx, testAthlete.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)

	_, err = r.ComputeAthleteByID(ctx, 404)
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

// flakyStore fails to load activities for one athlete.
type flakyStore struct {
	*store.MemoryStore
	failFor int64
}

func (f flakyStore) LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error) {
	if athleteID == f.failFor {
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.LoadAllActivities(ctx, athleteID)
}

func TestCompute_Sweep(t *testing.T) {
	ctx := context.Background()
	athletes := []schema.Athlete{
		{ID: 1, FirstName: "Ada", LastName: "Lovelace"},
		{ID: 2, FirstName: "Alan", LastName: "Turing"},
		{ID: 3, FirstName: "Grace", LastName: "Hopper"},
	}
	var activities []schema.Activity
	for _, a := range athletes {
		activities = append(activities, activity(a.ID*100, a.ID, at(2025, time.February, 3, 7), 30*time.Minute))
	}
	mem := seedStore(t, athletes, activities)
	r := newTestRecomputer(flakyStore{MemoryStore: mem, failFor: 2})

	report, err := r.Compute(ctx)
	require.NoError(t, err, "per-athlete failures do not abort the sweep")
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.Athletes)
	assert.Equal(t, 2, report.Computed)
	assert.Equal(t, 2, report.Inserted)
	require.Contains(t, report.Failures, int64(2))
	assert.ErrorContains(t, report.Err(), "athlete 2")

	assert.Equal(t, map[schema.Week]int{{Year: 2025, Number: 6}: 1}, pointsOf(t, mem, 1))
	assert.Empty(t, pointsOf(t, mem, 2))
	assert.Equal(t, map[schema.Week]int{{Year: 2025, Number: 6}: 1}, pointsOf(t, mem, 3))

	t.Run("clean sweep", func(t *testing.T) {
		report, err := newTestRecomputer(mem).Compute(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, report.Computed)
		assert.Nil(t, report.Failures)
		assert.NoError(t, report.Err())
	})
}

func TestCompute_ListAthletesFails(t *testing.T) {
	m := &store.MockStore{}
	m.On("ListAthletes", mock.Anything).Return(nil, errors.New("no such table"))

	_, err := newTestRecomputer(m).Compute(context.Background())
	assert.ErrorContains(t, err, "failed to list athletes")
}

func TestCompute_NoAthletes(t *testing.T) {
	report, err := newTestRecomputer(store.NewMemoryStore()).Compute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Athletes)
	assert.Equal(t, 0, report.Computed)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "adhoc", runIDFrom(ctx))
	assert.Equal(t, "cli", triggerFrom(ctx))

	ctx = WithTrigger(WithRunID(ctx, "run-1"), "schedule")
	assert.Equal(t, "run-1", runIDFrom(ctx))
	assert.Equal(t, "schedule", triggerFrom(ctx))
}
