// Package main provides a performance benchmarking tool for the contest sweep.
// It seeds synthetic athletes and activities into each backend, then times the
// full recomputation with several worker counts, treating the first run as cold
// (every point row is inserted) and averaging the rest as warm (nothing changes),
// generating CSV output for performance analysis and documentation.
//
// Usage: go run benchmark/main.go [athletes]
//
//	athletes: Number of synthetic athletes (default 200)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/store"
	"github.com/stravacontest/contest/schema"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Backend  string
	Workers  int
	Athletes int
	Rows     int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Athletes           int
	ActivitiesPerWeek  int
	Year               int
	Runs               int
	WorkerCounts       []int
	Backends           []schema.DatabaseBackend
	MinActivityTime    time.Duration
	ActivityMovingTime time.Duration
}

func main() {
	athletes := 200
	if len(os.Args) == 2 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			fmt.Printf("Usage: %s [athletes]\n", os.Args[0])
			os.Exit(1)
		}
		athletes = n
	}

	config := BenchmarkConfig{
		Athletes:           athletes,
		ActivitiesPerWeek:  4,
		Year:               2024,
		Runs:               4,
		WorkerCounts:       []int{1, 4, 8},
		Backends:           []schema.DatabaseBackend{schema.MemoryBackend, schema.SQLiteBackend},
		MinActivityTime:    contract.DefaultMinActivityTime,
		ActivityMovingTime: 45 * time.Minute,
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes the sweep for every backend and worker count.
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d athletes, %d activities/week, %d runs, workers %v\n",
		config.Athletes, config.ActivitiesPerWeek, config.Runs, config.WorkerCounts)

	tmpDir, err := os.MkdirTemp("", "contest-benchmark-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	for _, backend := range config.Backends {
		for _, workers := range config.WorkerCounts {
			connStr := ""
			if backend == schema.SQLiteBackend {
				connStr = filepath.Join(tmpDir, fmt.Sprintf("bench-%d.db", workers))
			}
			result, err := runBenchmarkSuite(config, backend, connStr, workers)
			if err != nil {
				return nil, fmt.Errorf("%s with %d workers: %w", backend, workers, err)
			}
			results = append(results, result)
		}
	}
	return results, nil
}

// runBenchmarkSuite seeds a fresh store and times config.Runs sweeps.
func runBenchmarkSuite(config BenchmarkConfig, backend schema.DatabaseBackend, connStr string, workers int) (BenchmarkResult, error) {
	ctx := context.Background()
	fmt.Printf("Running %s with %d workers\n", backend, workers)

	st, err := store.NewStore(backend, connStr)
	if err != nil {
		return BenchmarkResult{}, err
	}
	defer func() { _ = st.Close() }()

	if err := seed(ctx, st, config); err != nil {
		return BenchmarkResult{}, fmt.Errorf("failed to seed: %w", err)
	}

	cfg := &contract.Config{
		MinActivityTime: config.MinActivityTime,
		ContestYear:     config.Year,
		Location:        time.UTC,
		Workers:         workers,
		Now:             time.Now,
	}
	recomputer := core.NewRecomputer(st, cfg, contract.DiscardLogger())

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()
		report, err := recomputer.Compute(ctx)
		if err != nil {
			return BenchmarkResult{}, err
		}
		if err := report.Err(); err != nil {
			return BenchmarkResult{}, err
		}
		times = append(times, time.Since(start).Seconds())
	}

	rows, err := st.ListPoints(ctx)
	if err != nil {
		return BenchmarkResult{}, err
	}

	coldTime := fmt.Sprintf("%.3fs", times[0])
	warmTime := "N/A"
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}
	fmt.Printf("  Cold time: %s, Warm average: %s, Rows: %d\n", coldTime, warmTime, len(rows))

	return BenchmarkResult{
		Backend:  string(backend),
		Workers:  workers,
		Athletes: config.Athletes,
		Rows:     len(rows),
		ColdTime: coldTime,
		WarmTime: warmTime,
	}, nil
}

// seed inserts athletes with a random weekly routine over the contest year.
// The generator is seeded so every backend sees the same data.
func seed(ctx context.Context, st contract.Store, config BenchmarkConfig) error {
	rng := rand.New(rand.NewPCG(42, uint64(config.Athletes)))
	activityID := int64(1)
	weeks := core.WeeksInYear(config.Year)

	for i := 1; i <= config.Athletes; i++ {
		athlete := schema.Athlete{ID: int64(i), FirstName: "Athlete", LastName: strconv.Itoa(i)}
		if err := st.UpsertAthlete(ctx, athlete); err != nil {
			return err
		}
		for week := 1; week <= weeks; week++ {
			monday, _, err := core.WeekBoundaries(config.Year, week, time.UTC)
			if err != nil {
				return err
			}
			for range rng.IntN(config.ActivitiesPerWeek + 1) {
				activity := schema.Activity{
					ID:         activityID,
					AthleteID:  athlete.ID,
					Name:       "Workout",
					Type:       "Run",
					StartDate:  monday.AddDate(0, 0, rng.IntN(7)).Add(time.Duration(6+rng.IntN(14)) * time.Hour),
					MovingTime: config.ActivityMovingTime - time.Duration(rng.IntN(40))*time.Minute,
				}
				if err := st.UpsertActivity(ctx, activity); err != nil {
					return err
				}
				activityID++
			}
		}
	}
	return nil
}

// saveResults writes benchmark results to a CSV file.
func saveResults(results []BenchmarkResult) error {
	filename := fmt.Sprintf("benchmark_results_%s.csv", time.Now().Format("20060102_150405"))
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Backend", "Workers", "Athletes", "Rows", "Cold Time", "Warm Time"}); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{r.Backend, strconv.Itoa(r.Workers), strconv.Itoa(r.Athletes), strconv.Itoa(r.Rows), r.ColdTime, r.WarmTime}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays a formatted summary of benchmark results.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("\nBenchmark Summary:\n")
	fmt.Printf("%-8s %-8s %-9s %-8s %-10s %-10s\n", "Backend", "Workers", "Athletes", "Rows", "Cold", "Warm")
	for _, r := range results {
		fmt.Printf("%-8s %-8d %-9d %-8d %-10s %-10s\n", r.Backend, r.Workers, r.Athletes, r.Rows, r.ColdTime, r.WarmTime)
	}
}
