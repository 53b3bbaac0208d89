package fwconfig

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the config reload path (spec §4.2 "Reload path"),
// adapted from the teacher's configuration hot-reload metrics down to the
// subset this simpler reload model needs: a single Collect+extract cycle
// per signal rather than a multi-phase rollback pipeline.
var (
	reloadTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corefx_config_reload_total",
			Help: "Total number of remote config reload attempts by outcome",
		},
		[]string{"outcome"},
	)

	reloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corefx_config_reload_duration_seconds",
			Help:    "Duration of a remote config reload cycle",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)
)
