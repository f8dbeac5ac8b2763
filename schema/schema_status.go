package schema

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// StoreStatus represents the status of the contest store.
type StoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	SchemaVersion    uint             `json:"schema_version"`
	TotalAthletes    int              `json:"total_athletes"`
	TotalActivities  int              `json:"total_activities"`
	TotalPoints      int              `json:"total_points"`
	OldestActivity   time.Time        `json:"oldest_activity"`
	LatestActivity   time.Time        `json:"latest_activity"`
	LastPointsUpdate time.Time        `json:"last_points_update"`
	TableRows        map[string]int64 `json:"table_rows"`
}

// SweepReport summarizes one recomputation pass over all athletes.
type SweepReport struct {
	RunID     string           `json:"run_id"`
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Athletes  int              `json:"athletes"`
	Computed  int              `json:"computed"`
	Inserted  int              `json:"inserted"`
	Updated   int              `json:"updated"`
	Deleted   int              `json:"deleted"`
	Failures  map[int64]string `json:"failures,omitempty"`
}

// Err joins the per-athlete failures of the report, or returns nil.
func (r SweepReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(r.Failures))
	for id := range r.Failures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("athlete %d: %s", id, r.Failures[id]))
	}
	return errors.Join(errs...)
}

// SyncResult counts the point row changes of one athlete recomputation.
type SyncResult struct {
	AthleteID int64 `json:"athlete_id"`
	Weeks     int   `json:"weeks"`
	Inserted  int   `json:"inserted"`
	Updated   int   `json:"updated"`
	Deleted   int   `json:"deleted"`
	Unchanged int   `json:"unchanged"`
}
