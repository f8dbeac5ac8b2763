package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stravacontest/contest/core"
	"github.com/stravacontest/contest/internal/contract"
	"github.com/stravacontest/contest/internal/scheduler"
)

// scheduleCmd keeps points fresh on a cron schedule.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Recompute all points on a schedule until interrupted.",
	Long: `Run the full recomputation sweep on a cron schedule. A sweep that is still
running when the next one is due is skipped. A failing athlete is logged
and retried on the next run.

With --metrics-addr the Prometheus metrics of the sweeps are served on /metrics.

Examples:
  contest schedule --schedule "@every 10m"
  contest schedule --schedule "0 * * * *" --metrics-addr :9090 --log-format json`,
	PreRunE: sharedSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		sched, err := scheduler.New(cfg.Schedule, core.NewRecomputer(activeStore(), cfg, nil), slog.Default())
		if err != nil {
			contract.LogFatal("Cannot create scheduler", err)
		}

		if cfg.MetricsAddr != "" {
			srv := startMetricsServer(cfg.MetricsAddr)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		if err := sched.Run(ctx, viper.GetBool("run-now")); err != nil {
			contract.LogFatal("Scheduler failed", err)
		}
	},
}

// startMetricsServer serves /metrics in the background.
func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			contract.LogWarn("Metrics server stopped", err)
		}
	}()
	return srv
}
