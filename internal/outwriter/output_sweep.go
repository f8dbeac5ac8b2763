package outwriter

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// WriteSweepReport prints the outcome of a recomputation pass.
// Only text and JSON make sense here; other modes fall back to text.
func WriteSweepReport(report schema.SweepReport, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	}
	return writeSweepSummary(os.Stdout, report)
}

// WriteSyncResult prints the outcome of one athlete recomputation.
func WriteSyncResult(res schema.SyncResult, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, res)
		}, "Wrote JSON")
	}
	_, err := fmt.Fprintf(os.Stdout,
		"Athlete %d: %d weeks scored, %d inserted, %d updated, %d deleted, %d unchanged\n",
		res.AthleteID, res.Weeks, res.Inserted, res.Updated, res.Deleted, res.Unchanged)
	return err
}

func writeSweepSummary(w io.Writer, report schema.SweepReport) error {
	if _, err := fmt.Fprintf(w, "🔁 Run %s: %d/%d athletes in %s\n",
		report.RunID, report.Computed, report.Athletes, report.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Rows: %d inserted, %d updated, %d deleted\n",
		report.Inserted, report.Updated, report.Deleted); err != nil {
		return err
	}
	if len(report.Failures) == 0 {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Athlete", "Error"})
	ids := make([]int64, 0, len(report.Failures))
	for id := range report.Failures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	data := make([][]string, 0, len(ids))
	for _, id := range ids {
		data = append(data, []string{strconv.FormatInt(id, 10), report.Failures[id]})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
