package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// WriteWeeklyPoints outputs the weekly scores of one athlete.
func WriteWeeklyPoints(points schema.WeeklyPoints, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, points)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeeklyPointsCSV(w, points)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is only supported for leaderboards and export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeWeeklyPointsTable(w, points)
		}, "Wrote table")
	}
}

// ruleColumns returns the rule names present in any week, sorted.
func ruleColumns(weeks []schema.WeekScore) []string {
	seen := make(map[string]struct{})
	for _, w := range weeks {
		for name := range w.Breakdown {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func writeWeeklyPointsTable(w io.Writer, points schema.WeeklyPoints) error {
	if _, err := fmt.Fprintf(w, "📅 %s, contest year %d\n", points.Athlete.DisplayName(), points.Year); err != nil {
		return err
	}

	rules := ruleColumns(points.Weeks)
	header := append([]string{"Week"}, rules...)
	header = append(header, "Total")

	table := tablewriter.NewWriter(w)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(points.Weeks))
	for _, week := range points.Weeks {
		row := make([]string, 0, len(header))
		row = append(row, week.Week.String())
		for _, name := range rules {
			row = append(row, strconv.Itoa(week.Breakdown[name]))
		}
		row = append(row, strconv.Itoa(week.Total))
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Total: %d points over %d weeks\n", points.Total(), len(points.Weeks))
	return err
}

func writeWeeklyPointsCSV(w io.Writer, points schema.WeeklyPoints) error {
	rules := ruleColumns(points.Weeks)
	header := append([]string{"athlete_id", "year", "week_number"}, rules...)
	header = append(header, "total_points")
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, week := range points.Weeks {
			rec := []string{
				strconv.FormatInt(points.Athlete.ID, 10),
				strconv.Itoa(week.Week.Year),
				strconv.Itoa(week.Week.Number),
			}
			for _, name := range rules {
				rec = append(rec, strconv.Itoa(week.Breakdown[name]))
			}
			rec = append(rec, strconv.Itoa(week.Total))
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
