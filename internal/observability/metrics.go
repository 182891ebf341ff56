// Package observability exposes prometheus instruments for reconciliation
// runs.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_runs_total",
		Help: "Reconciliation runs by outcome.",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_run_duration_seconds",
		Help:    "Wall time of a full reconciliation run.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconciliation_last_run_timestamp_seconds",
		Help: "Unix time of the last successful run.",
	})
)
