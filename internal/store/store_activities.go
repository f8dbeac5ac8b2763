package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

const activityColumns = `id, athlete_id, name, type, start_date, moving_time, elapsed_time, distance, total_elevation_gain`

// QueryActivities implements contract.ActivityQuerier.
func (s *SQLStore) QueryActivities(ctx context.Context, athleteID int64, start, end time.Time, minDuration time.Duration) ([]schema.Activity, error) {
	query := rebind(s.backend, `SELECT `+activityColumns+` FROM activities
		WHERE athlete_id = ? AND start_date >= ? AND start_date <= ? AND moving_time >= ?
		ORDER BY start_date, id`)
	rows, err := s.db.QueryContext(ctx, query, athleteID, start.Unix(), end.Unix(), ceilSeconds(minDuration))
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	return scanActivities(rows)
}

// LoadAllActivities implements contract.ActivityStore.
func (s *SQLStore) LoadAllActivities(ctx context.Context, athleteID int64) ([]schema.Activity, error) {
	query := rebind(s.backend, `SELECT `+activityColumns+` FROM activities WHERE athlete_id = ? ORDER BY start_date, id`)
	rows, err := s.db.QueryContext(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	return scanActivities(rows)
}

// FindActivity implements contract.ActivityStore.
func (s *SQLStore) FindActivity(ctx context.Context, activityID int64) (schema.Activity, bool, error) {
	query := rebind(s.backend, `SELECT `+activityColumns+` FROM activities WHERE id = ?`)
	rows, err := s.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return schema.Activity{}, false, fmt.Errorf("failed to find activity %d: %w", activityID, err)
	}
	found, err := scanActivities(rows)
	if err != nil || len(found) == 0 {
		return schema.Activity{}, false, err
	}
	return found[0], true, nil
}

// ListActivities returns every activity ordered by athlete and start date.
func (s *SQLStore) ListActivities(ctx context.Context) ([]schema.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY athlete_id, start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]schema.Activity, error) {
	defer func() { _ = rows.Close() }()
	var activities []schema.Activity
	for rows.Next() {
		var a schema.Activity
		var start, moving, elapsed int64
		if err := rows.Scan(&a.ID, &a.AthleteID, &a.Name, &a.Type, &start, &moving, &elapsed, &a.Distance, &a.TotalElevationGain); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.StartDate = fromUnix(start)
		a.MovingTime = time.Duration(moving) * time.Second
		a.ElapsedTime = time.Duration(elapsed) * time.Second
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListAthletes implements contract.ActivityStore.
func (s *SQLStore) ListAthletes(ctx context.Context) ([]schema.Athlete, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, firstname, lastname, country FROM athletes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var athletes []schema.Athlete
	for rows.Next() {
		var a schema.Athlete
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Country); err != nil {
			return nil, fmt.Errorf("failed to scan athlete: %w", err)
		}
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// GetAthlete implements contract.ActivityStore.
func (s *SQLStore) GetAthlete(ctx context.Context, athleteID int64) (schema.Athlete, error) {
	query := rebind(s.backend, `SELECT id, firstname, lastname, country FROM athletes WHERE id = ?`)
	var a schema.Athlete
	err := s.db.QueryRowContext(ctx, query, athleteID).Scan(&a.ID, &a.FirstName, &a.LastName, &a.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Athlete{}, fmt.Errorf("athlete %d: %w", athleteID, contract.ErrNotFound)
	}
	if err != nil {
		return schema.Athlete{}, fmt.Errorf("failed to get athlete %d: %w", athleteID, err)
	}
	return a, nil
}

// UpsertAthlete implements contract.ActivityStore.
func (s *SQLStore) UpsertAthlete(ctx context.Context, athlete schema.Athlete) error {
	_, err := s.db.ExecContext(ctx, upsertAthleteQuery(s.backend), athlete.ID, athlete.FirstName, athlete.LastName, athlete.Country)
	if err != nil {
		return fmt.Errorf("failed to upsert athlete %d: %w", athlete.ID, err)
	}
	return nil
}

// UpsertActivity implements contract.ActivityStore.
func (s *SQLStore) UpsertActivity(ctx context.Context, a schema.Activity) error {
	_, err := s.db.ExecContext(ctx, upsertActivityQuery(s.backend),
		a.ID, a.AthleteID, a.Name, a.Type, a.StartDate.Unix(),
		int64(a.MovingTime/time.Second), int64(a.ElapsedTime/time.Second),
		a.Distance, a.TotalElevationGain,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert activity %d: %w", a.ID, err)
	}
	return nil
}
