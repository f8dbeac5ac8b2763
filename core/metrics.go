package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stravacontest/contest/schema"
)

var (
	recomputeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contest",
		Subsystem: "points",
		Name:      "recomputations_total",
		Help:      "Number of per-athlete point recomputations by result.",
	}, []string{"trigger", "result"})

	pointChangeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contest",
		Subsystem: "points",
		Name:      "row_changes_total",
		Help:      "Number of point rows inserted, updated or deleted.",
	}, []string{"op"})

	sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "contest",
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Duration of full recomputation sweeps.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	lastSweepGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "contest",
		Subsystem: "sweep",
		Name:      "last_completed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed sweep.",
	})
)

func init() {
	prometheus.MustRegister(recomputeCounter, pointChangeCounter, sweepDuration, lastSweepGauge)
}

func recordRecompute(trigger string, res schema.SyncResult, err error) {
	if err != nil {
		recomputeCounter.WithLabelValues(trigger, "error").Inc()
		return
	}
	recomputeCounter.WithLabelValues(trigger, "ok").Inc()
	pointChangeCounter.WithLabelValues("insert").Add(float64(res.Inserted))
	pointChangeCounter.WithLabelValues("update").Add(float64(res.Updated))
	pointChangeCounter.WithLabelValues("delete").Add(float64(res.Deleted))
}

func recordSweep(started time.Time, finished time.Time) {
	sweepDuration.Observe(finished.Sub(started).Seconds())
	lastSweepGauge.Set(float64(finished.Unix()))
}
