// Package importer loads athletes and activities from a JSON export into the store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// localLayout is how naive timestamps are written by exports without an offset.
const localLayout = "2006-01-02T15:04:05"

// AthleteRecord is an athlete as found in an export file.
type AthleteRecord struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Country   string `json:"country"`
}

// ActivityRecord is an activity as found in an export file.
// Times are in seconds and start_date is ISO-8601.
type ActivityRecord struct {
	ID                 int64   `json:"id"`
	AthleteID          int64   `json:"athlete_id"`
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	StartDate          string  `json:"start_date"`
	MovingTime         int64   `json:"moving_time"`
	ElapsedTime        int64   `json:"elapsed_time"`
	Distance           float64 `json:"distance"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
}

// Export is the top-level document accepted by Import.
type Export struct {
	Athletes   []AthleteRecord  `json:"athletes"`
	Activities []ActivityRecord `json:"activities"`
}

// Result summarizes an import.
type Result struct {
	Athletes   int     `json:"athletes"`
	Activities int     `json:"activities"`
	AthleteIDs []int64 `json:"athlete_ids"`
}

// Importer writes decoded exports into an ActivityStore.
type Importer struct {
	Store    contract.ActivityStore
	Location *time.Location
	Logger   *slog.Logger
}

// New creates an importer that interprets naive timestamps in loc.
func New(store contract.ActivityStore, loc *time.Location, logger *slog.Logger) *Importer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{Store: store, Location: loc, Logger: logger}
}

// Decode parses an export document.
func Decode(r io.Reader) (Export, error) {
	var export Export
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&export); err != nil {
		return Export{}, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}

// Import upserts every athlete and then every activity of the export.
// Athletes go first so activities always reference a known athlete.
// The returned IDs are the athletes whose data changed, sorted.
func (im *Importer) Import(ctx context.Context, export Export) (Result, error) {
	touched := make(map[int64]struct{})

	for _, rec := range export.Athletes {
		if rec.ID <= 0 {
			return Result{}, fmt.Errorf("athlete has invalid id %d", rec.ID)
		}
		athlete := schema.Athlete{ID: rec.ID, FirstName: rec.FirstName, LastName: rec.LastName, Country: rec.Country}
		if err := im.Store.UpsertAthlete(ctx, athlete); err != nil {
			return Result{}, fmt.Errorf("failed to import athlete %d: %w", rec.ID, err)
		}
		touched[rec.ID] = struct{}{}
	}

	for _, rec := range export.Activities {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		activity, err := im.toActivity(rec)
		if err != nil {
			return Result{}, err
		}
		prev, found, err := im.Store.FindActivity(ctx, rec.ID)
		if err != nil {
			return Result{}, fmt.Errorf("failed to look up activity %d: %w", rec.ID, err)
		}
		if err := im.Store.UpsertActivity(ctx, activity); err != nil {
			if errors.Is(err, contract.ErrNotFound) {
				return Result{}, fmt.Errorf("activity %d references unknown athlete %d: %w", rec.ID, rec.AthleteID, err)
			}
			return Result{}, fmt.Errorf("failed to import activity %d: %w", rec.ID, err)
		}
		touched[rec.AthleteID] = struct{}{}
		if found && prev.AthleteID != rec.AthleteID {
			// The previous owner lost this activity and needs recomputing too.
			touched[prev.AthleteID] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	im.Logger.Info("Import finished",
		slog.Int("athletes", len(export.Athletes)),
		slog.Int("activities", len(export.Activities)))

	return Result{Athletes: len(export.Athletes), Activities: len(export.Activities), AthleteIDs: ids}, nil
}

func (im *Importer) toActivity(rec ActivityRecord) (schema.Activity, error) {
	if rec.ID <= 0 {
		return schema.Activity{}, fmt.Errorf("activity has invalid id %d", rec.ID)
	}
	if rec.AthleteID <= 0 {
		return schema.Activity{}, fmt.Errorf("activity %d has no athlete", rec.ID)
	}
	if rec.MovingTime < 0 || rec.ElapsedTime < 0 {
		return schema.Activity{}, fmt.Errorf("activity %d has negative duration", rec.ID)
	}
	start, err := im.parseStart(rec.StartDate)
	if err != nil {
		return schema.Activity{}, fmt.Errorf("activity %d: %w", rec.ID, err)
	}
	return schema.Activity{
		ID:                 rec.ID,
		AthleteID:          rec.AthleteID,
		Name:               rec.Name,
		Type:               rec.Type,
		StartDate:          start,
		MovingTime:         time.Duration(rec.MovingTime) * time.Second,
		ElapsedTime:        time.Duration(rec.ElapsedTime) * time.Second,
		Distance:           rec.Distance,
		TotalElevationGain: rec.TotalElevationGain,
	}, nil
}

// parseStart accepts RFC 3339 or a naive timestamp in the importer location.
func (im *Importer) parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing start_date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(localLayout, s, im.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date %q", s)
	}
	return t, nil
}
