package mpolymul

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	multiplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpoly_multiplications_total",
			Help: "The total number of polynomial multiplications, by the strategy that produced the product",
		},
		[]string{"strategy", "mode"},
	)
	strategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpoly_strategy_failures_total",
			Help: "The number of strategy attempts that declined and fell through",
		},
		[]string{"strategy"},
	)
	multiplicationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mpoly_multiplication_duration_seconds",
			Help:    "The duration of polynomial multiplications in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 14),
		},
		[]string{"strategy"},
	)
	handlesLeased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpoly_pool_handles_leased",
		Help: "The number of thread pool handles currently leased by multiplications",
	})
)

func modeLabel(threaded bool) string {
	if threaded {
		return "threaded"
	}
	return "single"
}
