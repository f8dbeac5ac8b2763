package store

import (
	"context"
	"fmt"
	"io"

	"github.com/stravacontest/contest/schema"
)

// GetStatus implements contract.Store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		TableRows: make(map[string]int64),
	}
	if err := s.db.PingContext(ctx); err != nil {
		return status, nil
	}
	status.Connected = true
	status.SchemaVersion = schemaVersion(s.db)

	for _, table := range []string{athletesTable, activitiesTable, pointsTable} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return status, fmt.Errorf("failed to count %s: %w", table, err)
		}
		status.TableRows[table] = n
	}
	status.TotalAthletes = int(status.TableRows[athletesTable])
	status.TotalActivities = int(status.TableRows[activitiesTable])
	status.TotalPoints = int(status.TableRows[pointsTable])

	var oldest, latest, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MIN(start_date), 0), COALESCE(MAX(start_date), 0) FROM activities").Scan(&oldest, &latest)
	if err != nil {
		return status, fmt.Errorf("failed to read activity range: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(updated_at), 0) FROM points").Scan(&updated); err != nil {
		return status, fmt.Errorf("failed to read last points update: %w", err)
	}
	status.OldestActivity = fromUnix(oldest)
	status.LatestActivity = fromUnix(latest)
	status.LastPointsUpdate = fromUnix(updated)
	return status, nil
}

// PrintStatus prints store status information.
func PrintStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	if status.SchemaVersion > 0 {
		_, _ = fmt.Fprintf(w, "Schema Version: %d\n", status.SchemaVersion)
	}
	_, _ = fmt.Fprintf(w, "Athletes: %d\n", status.TotalAthletes)
	_, _ = fmt.Fprintf(w, "Activities: %d\n", status.TotalActivities)
	if status.TotalActivities > 0 {
		_, _ = fmt.Fprintf(w, "Oldest Activity: %s\n", status.OldestActivity.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Latest Activity: %s\n", status.LatestActivity.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Point Rows: %d\n", status.TotalPoints)
	if !status.LastPointsUpdate.IsZero() {
		_, _ = fmt.Fprintf(w, "Last Points Update: %s\n", status.LastPointsUpdate.Format("2006-01-02 15:04:05"))
	}
}
