// Package scheduler runs the point recomputation sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/schema"
)

// Trigger tags recomputations started by the scheduler.
const Trigger = "schedule"

// Sweeper recomputes the points of every athlete.
type Sweeper interface {
	Compute(ctx context.Context) (schema.SweepReport, error)
}

// Scheduler owns the cron instance and the sweep job.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	logger  *slog.Logger

	// OnReport is called after every sweep, successful or not.
	OnReport func(schema.SweepReport, error)
}

// New creates a scheduler running sweeper on spec (standard cron or @every).
// Overlapping runs are skipped.
func New(spec string, sweeper Sweeper, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sweeper: sweeper,
		spec:    spec,
		logger:  logger,
	}
	return s, nil
}

// RunOnce performs a single sweep tagged with the scheduler trigger.
func (s *Scheduler) RunOnce(ctx context.Context) (schema.SweepReport, error) {
	s.logger.Info("Starting scheduled sweep", slog.String("schedule", s.spec))
	report, err := s.sweeper.Compute(core.WithTrigger(ctx, Trigger))
	if err == nil {
		err = report.Err()
	}
	if err != nil {
		s.logger.Error("Scheduled sweep finished with errors", slog.String("run_id", report.RunID), slog.Any("error", err))
	} else {
		s.logger.Info("Scheduled sweep completed", slog.String("run_id", report.RunID), slog.Int("athletes", report.Computed))
	}
	if s.OnReport != nil {
		s.OnReport(report, err)
	}
	return report, err
}

// Run registers the sweep and blocks until ctx is done. With runNow the
// first sweep starts immediately instead of waiting for the schedule.
func (s *Scheduler) Run(ctx context.Context, runNow bool) error {
	if _, err := s.cron.AddFunc(s.spec, func() { _, _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to register sweep: %w", err)
	}
	s.logger.Info("Scheduler started", slog.String("schedule", s.spec))

	if runNow {
		_, _ = s.RunOnce(ctx)
	}

	s.cron.Start()
	<-ctx.Done()

	// Wait for a running sweep to notice cancellation and return.
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
