package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/parquet"
	"github.com/stravacontest/contest/schema"
)

// WriteLeaderboard outputs a leaderboard, dispatching based on the output format configured.
func WriteLeaderboard(board schema.Leaderboard, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, board)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardCSV(w, board)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("--output-file is required for parquet output")
		}
		if err := parquet.WriteStandingsParquet(parquet.ConvertLeaderboard(board), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeLeaderboardTable(w, board, cfg.UseColors, getMaxTableNameWidth())
		}, "Wrote table")
	}
}

// leaderboardTitle describes the period of a leaderboard.
func leaderboardTitle(board schema.Leaderboard) string {
	switch board.Period {
	case schema.WeekPeriod:
		return fmt.Sprintf("Week %d, %d (%s - %s)", board.Week, board.Year,
			board.Start.Format(DateFormat), board.End.Format(DateFormat))
	case schema.MonthPeriod:
		return fmt.Sprintf("%s %d", time.Month(board.Month), board.Year)
	default:
		return fmt.Sprintf("Year %d", board.Year)
	}
}

// writeLeaderboardTable generates and writes the human-readable table.
func writeLeaderboardTable(w io.Writer, board schema.Leaderboard, useColors bool, nameWidth int) error {
	if _, err := fmt.Fprintf(w, "🏆 %s\n", leaderboardTitle(board)); err != nil {
		return err
	}
	if len(board.Standings) == 0 {
		_, err := fmt.Fprintln(w, "No points recorded for this period.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Athlete", "Points"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(board.Standings))
	for _, s := range board.Standings {
		name := schema.Athlete{ID: s.AthleteID, FirstName: s.FirstName, LastName: s.LastName}.DisplayName()
		data = append(data, []string{
			formatRank(s.Rank, useColors),
			contract.TruncateName(name, nameWidth),
			strconv.Itoa(s.Points),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	total := 0
	for _, s := range board.Standings {
		total += s.Points
	}
	_, err := fmt.Fprintf(w, "Showing %d athletes (total points: %d)\n", len(board.Standings), total)
	return err
}

// writeLeaderboardCSV writes the leaderboard in CSV format.
func writeLeaderboardCSV(w io.Writer, board schema.Leaderboard) error {
	header := []string{"period", "year", "week", "month", "rank", "athlete_id", "firstname", "lastname", "points"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range board.Standings {
			rec := []string{
				string(board.Period),
				strconv.Itoa(board.Year),
				strconv.Itoa(board.Week),
				strconv.Itoa(board.Month),
				contract.GetPlainRank(s.Rank),
				strconv.FormatInt(s.AthleteID, 10),
				s.FirstName,
				s.LastName,
				strconv.Itoa(s.Points),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
