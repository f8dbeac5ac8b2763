// Package parquet provides data structures and functions for exporting contest
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stravacontest/contest/schema"
)

// Athlete maps to the athletes table.
type Athlete struct {
	AthleteID int64  `parquet:"athlete_id,snappy"`
	FirstName string `parquet:"firstname,snappy"`
	LastName  string `parquet:"lastname,snappy"`

	// Country is empty for athletes without one (nullable)
	Country *string `parquet:"country,optional,snappy"`
}

// Activity maps to the activities table.
type Activity struct {
	ActivityID int64  `parquet:"activity_id,snappy"`
	AthleteID  int64  `parquet:"athlete_id,snappy"`
	Name       string `parquet:"name,snappy"`
	Type       string `parquet:"type,snappy"`

	// StartDate is stored as TIMESTAMP with nanosecond precision
	StartDate time.Time `parquet:"start_date,snappy"`

	MovingTimeSec  int64   `parquet:"moving_time_sec,snappy"`
	ElapsedTimeSec int64   `parquet:"elapsed_time_sec,snappy"`
	DistanceM      float64 `parquet:"distance_m,snappy"`
	ElevationGainM float64 `parquet:"total_elevation_gain_m,snappy"`
}

// Point maps to the points table: one row per athlete and ISO week.
type Point struct {
	Year        int32 `parquet:"year,snappy"`
	WeekNumber  int32 `parquet:"week_number,snappy"`
	AthleteID   int64 `parquet:"athlete_id,snappy"`
	TotalPoints int32 `parquet:"total_points,snappy"`
}

// Standing is one ranked leaderboard line.
type Standing struct {
	Period    string `parquet:"period,snappy"`
	Year      int32  `parquet:"year,snappy"`
	Rank      int32  `parquet:"rank,snappy"`
	AthleteID int64  `parquet:"athlete_id,snappy"`
	FirstName string `parquet:"firstname,snappy"`
	LastName  string `parquet:"lastname,snappy"`
	Points    int32  `parquet:"points,snappy"`
}

// WriteAthletesParquet writes athletes to a Parquet file.
func WriteAthletesParquet(data []Athlete, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteActivitiesParquet writes activities to a Parquet file.
func WriteActivitiesParquet(data []Activity, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WritePointsParquet writes point rows to a Parquet file.
func WritePointsParquet(data []Point, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteStandingsParquet writes leaderboard lines to a Parquet file.
func WriteStandingsParquet(data []Standing, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAthletes converts schema.Athlete to Athlete for Parquet export.
func ConvertAthletes(records []schema.Athlete) []Athlete {
	result := make([]Athlete, len(records))
	for i, record := range records {
		result[i] = Athlete{
			AthleteID: record.ID,
			FirstName: record.FirstName,
			LastName:  record.LastName,
		}
		if record.Country != "" {
			country := record.Country
			result[i].Country = &country
		}
	}
	return result
}

// ConvertActivities converts schema.Activity to Activity for Parquet export.
func ConvertActivities(records []schema.Activity) []Activity {
	result := make([]Activity, len(records))
	for i, record := range records {
		result[i] = Activity{
			ActivityID:     record.ID,
			AthleteID:      record.AthleteID,
			Name:           record.Name,
			Type:           record.Type,
			StartDate:      record.StartDate,
			MovingTimeSec:  int64(record.MovingTime / time.Second),
			ElapsedTimeSec: int64(record.ElapsedTime / time.Second),
			DistanceM:      record.Distance,
			ElevationGainM: record.TotalElevationGain,
		}
	}
	return result
}

// ConvertPoints converts schema.Point to Point for Parquet export.
func ConvertPoints(records []schema.Point) []Point {
	result := make([]Point, len(records))
	for i, record := range records {
		result[i] = Point{
			Year:        int32(record.Year),
			WeekNumber:  int32(record.Week),
			AthleteID:   record.AthleteID,
			TotalPoints: int32(record.TotalPoints),
		}
	}
	return result
}

// ConvertLeaderboard flattens a leaderboard for Parquet export.
func ConvertLeaderboard(board schema.Leaderboard) []Standing {
	result := make([]Standing, len(board.Standings))
	for i, s := range board.Standings {
		result[i] = Standing{
			Period:    string(board.Period),
			Year:      int32(board.Year),
			Rank:      int32(s.Rank),
			AthleteID: s.AthleteID,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Points:    int32(s.Points),
		}
	}
	return result
}
