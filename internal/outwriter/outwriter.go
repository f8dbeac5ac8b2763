// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteLeaderboard prints a leaderboard using the configured output format.
func (ow *OutWriter) WriteLeaderboard(board schema.Leaderboard, cfg *contract.Config) error {
	return WriteLeaderboard(board, cfg)
}

// WriteWeeklyPoints prints the weekly scores of one athlete.
func (ow *OutWriter) WriteWeeklyPoints(points schema.WeeklyPoints, cfg *contract.Config) error {
	return WriteWeeklyPoints(points, cfg)
}

// WriteSweepReport prints the outcome of a full recomputation.
func (ow *OutWriter) WriteSweepReport(report schema.SweepReport, cfg *contract.Config) error {
	return WriteSweepReport(report, cfg)
}

// WriteSyncResult prints the outcome of a single athlete recomputation.
func (ow *OutWriter) WriteSyncResult(res schema.SyncResult, cfg *contract.Config) error {
	return WriteSyncResult(res, cfg)
}
