package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// pointRepo runs point queries against the pool or an open transaction.
type pointRepo struct {
	q       queryer
	backend schema.DatabaseBackend
	now     func() time.Time
}

var _ contract.PointWriter = pointRepo{} // Compile-time check

func (s *SQLStore) points() pointRepo {
	return pointRepo{q: s.db, backend: s.backend, now: s.now}
}

// FindPoint implements contract.PointReader.
func (s *SQLStore) FindPoint(ctx context.Context, key schema.PointKey) (schema.Point, bool, error) {
	return s.points().FindPoint(ctx, key)
}

// ListAthletePoints implements contract.PointReader.
func (s *SQLStore) ListAthletePoints(ctx context.Context, athleteID int64) ([]schema.Point, error) {
	return s.points().ListAthletePoints(ctx, athleteID)
}

// WithinTx implements contract.PointStore.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(tx contract.PointWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(pointRepo{q: tx, backend: s.backend, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Standings implements contract.PointStore.
func (s *SQLStore) Standings(ctx context.Context, weeks []schema.Week) ([]schema.Standing, error) {
	if len(weeks) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(weeks))
	args := make([]any, 0, 2*len(weeks))
	for _, w := range weeks {
		conds = append(conds, "(p.year = ? AND p.week_number = ?)")
		args = append(args, w.Year, w.Number)
	}
	query := rebind(s.backend, `SELECT p.athlete_id, a.firstname, a.lastname, SUM(p.total_points) AS total
		FROM points p JOIN athletes a ON a.id = p.athlete_id
		WHERE `+strings.Join(conds, " OR ")+`
		GROUP BY p.athlete_id, a.firstname, a.lastname
		ORDER BY total DESC, a.lastname, a.firstname, p.athlete_id`)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var standings []schema.Standing
	for rows.Next() {
		var st schema.Standing
		var points int64
		if err := rows.Scan(&st.AthleteID, &st.FirstName, &st.LastName, &points); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		st.Points = int(points)
		standings = append(standings, st)
	}
	return standings, rows.Err()
}

// ListPoints implements contract.PointStore.
func (s *SQLStore) ListPoints(ctx context.Context) ([]schema.Point, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT year, week_number, athlete_id, total_points FROM points ORDER BY year, week_number, athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	return scanPoints(rows)
}

// FindPoint implements contract.PointReader.
func (r pointRepo) FindPoint(ctx context.Context, key schema.PointKey) (schema.Point, bool, error) {
	query := rebind(r.backend, `SELECT total_points FROM points WHERE year = ? AND week_number = ? AND athlete_id = ?`)
	p := schema.Point{PointKey: key}
	err := r.q.QueryRowContext(ctx, query, key.Year, key.Week, key.AthleteID).Scan(&p.TotalPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Point{}, false, nil
	}
	if err != nil {
		return schema.Point{}, false, fmt.Errorf("failed to find point %v: %w", key, err)
	}
	return p, true, nil
}

// ListAthletePoints implements contract.PointReader.
func (r pointRepo) ListAthletePoints(ctx context.Context, athleteID int64) ([]schema.Point, error) {
	query := rebind(r.backend, `SELECT year, week_number, athlete_id, total_points FROM points
		WHERE athlete_id = ? ORDER BY year, week_number`)
	rows, err := r.q.QueryContext(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list points of athlete %d: %w", athleteID, err)
	}
	return scanPoints(rows)
}

// UpsertPoint implements contract.PointWriter.
func (r pointRepo) UpsertPoint(ctx context.Context, p schema.Point) error {
	if p.TotalPoints <= 0 {
		return fmt.Errorf("refusing to store %d points for %v", p.TotalPoints, p.PointKey)
	}
	_, err := r.q.ExecContext(ctx, upsertPointQuery(r.backend), p.Year, p.Week, p.AthleteID, p.TotalPoints, r.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert point %v: %w", p.PointKey, err)
	}
	return nil
}

// DeletePoint implements contract.PointWriter.
func (r pointRepo) DeletePoint(ctx context.Context, key schema.PointKey) error {
	query := rebind(r.backend, `DELETE FROM points WHERE year = ? AND week_number = ? AND athlete_id = ?`)
	if _, err := r.q.ExecContext(ctx, query, key.Year, key.Week, key.AthleteID); err != nil {
		return fmt.Errorf("failed to delete point %v: %w", key, err)
	}
	return nil
}

func scanPoints(rows *sql.Rows) ([]schema.Point, error) {
	defer func() { _ = rows.Close() }()
	var points []schema.Point
	for rows.Next() {
		var p schema.Point
		if err := rows.Scan(&p.Year, &p.Week, &p.AthleteID, &p.TotalPoints); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
