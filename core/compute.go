package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// PointSyncStore is what recomputation needs from the store.
type PointSyncStore interface {
	contract.ActivityStore
	contract.PointStore
}

// Recomputer keeps the persisted point table in line with the rule set.
type Recomputer struct {
	store       PointSyncStore
	rules       func() []Rule
	minDuration time.Duration
	location    *time.Location
	workers     int
	logger      *slog.Logger
	now         contract.Clock
}

// NewRecomputer builds a Recomputer over the canonical rule set.
func NewRecomputer(store PointSyncStore, cfg *contract.Config, logger *slog.Logger) *Recomputer {
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	r := &Recomputer{
		store:       store,
		minDuration: cfg.MinActivityTime,
		location:    cfg.Location,
		workers:     max(cfg.Workers, 1),
		logger:      logger,
		now:         now,
	}
	r.rules = func() []Rule {
		return CanonicalRules(store, r.minDuration, r.location)
	}
	return r
}

// ComputeAthletePoints recomputes every week the athlete has activity in, plus
// every week that still has a persisted row, and reconciles the point table in
// one transaction: positive totals are upserted, zero totals are deleted.
func (r *Recomputer) ComputeAthletePoints(ctx context.Context, athlete schema.Athlete) (schema.SyncResult, error) {
	unlock := recomputeLocks.lock(athlete.ID)
	defer unlock()

	res, err := r.computeAthletePoints(ctx, athlete)
	recordRecompute(triggerFrom(ctx), res, err)
	if err != nil {
		return schema.SyncResult{AthleteID: athlete.ID}, err
	}
	r.logger.Debug("points recomputed",
		"run_id", runIDFrom(ctx),
		"athlete_id", athlete.ID,
		"weeks", res.Weeks,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"deleted", res.Deleted,
	)
	return res, nil
}

func (r *Recomputer) computeAthletePoints(ctx context.Context, athlete schema.Athlete) (schema.SyncResult, error) {
	res := schema.SyncResult{AthleteID: athlete.ID}

	activities, err := r.store.LoadAllActivities(ctx, athlete.ID)
	if err != nil {
		return res, fmt.Errorf("failed to load activities of athlete %d: %w", athlete.ID, err)
	}
	groups := r.groupByWeek(activities)

	existing, err := r.store.ListAthletePoints(ctx, athlete.ID)
	if err != nil {
		return res, fmt.Errorf("failed to list points of athlete %d: %w", athlete.ID, err)
	}
	for _, p := range existing {
		week := p.ISOWeek()
		if _, ok := groups[week]; !ok {
			groups[week] = nil
		}
	}

	weeks := make([]schema.Week, 0, len(groups))
	for week := range groups {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	// Scoring reads the activity store, so it happens before the transaction.
	totals := make(map[schema.Week]int, len(weeks))
	for _, week := range weeks {
		qualifying := filterQualifying(groups[week], r.minDuration)
		total, err := ScoreWeek(ctx, r.rules(), week, athlete, qualifying)
		if err != nil {
			return res, fmt.Errorf("failed to score athlete %d: %w", athlete.ID, err)
		}
		totals[week] = total
	}
	res.Weeks = len(weeks)

	err = r.store.WithinTx(ctx, func(tx contract.PointWriter) error {
		for _, week := range weeks {
			key := schema.PointKey{Year: week.Year, Week: week.Number, AthleteID: athlete.ID}
			points := totals[week]
			current, found, err := tx.FindPoint(ctx, key)
			if err != nil {
				return err
			}
			switch {
			case points > 0 && !found:
				if err := tx.UpsertPoint(ctx, schema.Point{PointKey: key, TotalPoints: points}); err != nil {
					return err
				}
				res.Inserted++
			case points > 0 && current.TotalPoints != points:
				if err := tx.UpsertPoint(ctx, schema.Point{PointKey: key, TotalPoints: points}); err != nil {
					return err
				}
				res.Updated++
			case points == 0 && found:
				if err := tx.DeletePoint(ctx, key); err != nil {
					return err
				}
				res.Deleted++
			default:
				res.Unchanged++
			}
		}
		return nil
	})
	if err != nil {
		return schema.SyncResult{AthleteID: athlete.ID}, fmt.Errorf("failed to save points of athlete %d: %w", athlete.ID, err)
	}
	return res, nil
}

// groupByWeek partitions activities by the ISO week of their local start date.
func (r *Recomputer) groupByWeek(activities []schema.Activity) map[schema.Week][]schema.Activity {
	groups := make(map[schema.Week][]schema.Activity)
	for _, a := range localize(activities, r.location) {
		week := schema.WeekOf(a.StartDate)
		groups[week] = append(groups[week], a)
	}
	return groups
}

// ComputeAthleteByID looks the athlete up and recomputes its points.
func (r *Recomputer) ComputeAthleteByID(ctx context.Context, athleteID int64) (schema.SyncResult, error) {
	athlete, err := r.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return schema.SyncResult{AthleteID: athleteID}, fmt.Errorf("failed to load athlete %d: %w", athleteID, err)
	}
	return r.ComputeAthletePoints(ctx, athlete)
}

// Compute recomputes the points of every athlete. Athletes are independent:
// a failure is logged, recorded in the report and the sweep moves on.
// Only a failure to list athletes aborts the sweep.
func (r *Recomputer) Compute(ctx context.Context) (schema.SweepReport, error) {
	report := schema.SweepReport{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Failures:  make(map[int64]string),
	}
	ctx = WithRunID(ctx, report.RunID)

	athletes, err := r.store.ListAthletes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list athletes: %w", err)
	}
	report.Athletes = len(athletes)
	r.logger.Info("starting points sweep", "run_id", report.RunID, "athletes", len(athletes), "workers", r.workers)

	var mu sync.Mutex
	jobs := make(chan schema.Athlete)
	var wg sync.WaitGroup
	for range min(r.workers, max(len(athletes), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for athlete := range jobs {
				res, err := r.ComputeAthletePoints(ctx, athlete)
				mu.Lock()
				if err != nil {
					report.Failures[athlete.ID] = err.Error()
					r.logger.Error("points recomputation failed",
						"run_id", report.RunID, "athlete_id", athlete.ID, "error", err)
				} else {
					report.Computed++
					report.Inserted += res.Inserted
					report.Updated += res.Updated
					report.Deleted += res.Deleted
				}
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, athlete := range athletes {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- athlete:
		}
	}
	close(jobs)
	wg.Wait()

	finished := r.now()
	report.Duration = finished.Sub(report.StartedAt)
	recordSweep(report.StartedAt, finished)

	if len(report.Failures) == 0 {
		report.Failures = nil
	}
	r.logger.Info("points sweep finished",
		"run_id", report.RunID,
		"computed", report.Computed,
		"failed", len(report.Failures),
		"inserted", report.Inserted,
		"updated", report.Updated,
		"deleted", report.Deleted,
		"duration", report.Duration,
	)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// recomputeLocks is shared by every Recomputer in the process.
var recomputeLocks = newAthleteLocks()

// athleteLocks serializes recomputations of the same athlete.
type athleteLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newAthleteLocks() *athleteLocks {
	return &athleteLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *athleteLocks) lock(athleteID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[athleteID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[athleteID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
