package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/stravacontest/contest/internal/parquet"
	"github.com/stravacontest/contest/schema"
)

// Exportable is a store whose tables can be dumped in full.
type Exportable interface {
	ListAthletes(ctx context.Context) ([]schema.Athlete, error)
	ListActivities(ctx context.Context) ([]schema.Activity, error)
	ListPoints(ctx context.Context) ([]schema.Point, error)
}

var (
	_ Exportable = &SQLStore{}    // Compile-time check
	_ Exportable = &MemoryStore{} // Compile-time check
)

// ExportStore writes athletes, activities and points as Parquet files into
// outputDir and reports progress to w. It returns the written paths.
func ExportStore(ctx context.Context, src Exportable, outputDir string, w io.Writer) ([]string, error) {
	if outputDir == "" {
		return nil, errors.New("an output directory is required for export")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	athletes, err := src.ListAthletes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve athletes: %w", err)
	}
	activities, err := src.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve activities: %w", err)
	}
	points, err := src.ListPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve points: %w", err)
	}
	if len(athletes) == 0 && len(activities) == 0 && len(points) == 0 {
		return nil, errors.New("no contest data found to export")
	}

	var written []string
	athletesFile := filepath.Join(outputDir, "athletes.parquet")
	if err := parquet.WriteAthletesParquet(parquet.ConvertAthletes(athletes), athletesFile); err != nil {
		return written, fmt.Errorf("failed to write athletes: %w", err)
	}
	written = append(written, athletesFile)
	_, _ = fmt.Fprintf(w, "Exported %d athletes to: %s\n", len(athletes), athletesFile)

	activitiesFile := filepath.Join(outputDir, "activities.parquet")
	if err := parquet.WriteActivitiesParquet(parquet.ConvertActivities(activities), activitiesFile); err != nil {
		return written, fmt.Errorf("failed to write activities: %w", err)
	}
	written = append(written, activitiesFile)
	_, _ = fmt.Fprintf(w, "Exported %d activities to: %s\n", len(activities), activitiesFile)

	pointsFile := filepath.Join(outputDir, "points.parquet")
	if err := parquet.WritePointsParquet(parquet.ConvertPoints(points), pointsFile); err != nil {
		return written, fmt.Errorf("failed to write points: %w", err)
	}
	written = append(written, pointsFile)
	_, _ = fmt.Fprintf(w, "Exported %d point rows to: %s\n", len(points), pointsFile)

	return written, nil
}
