package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alloclab",
		Name:      "validation_runs_total",
		Help:      "Validation runs by result.",
	}, []string{"result"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "alloclab",
		Name:      "validation_duration_seconds",
		Help:      "Wall time of a full validation pass.",
		Buckets:   prometheus.DefBuckets,
	})

	staleRunsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alloclab",
		Name:      "validation_stale_dropped_total",
		Help:      "Validation results discarded because a newer dataset version superseded them.",
	})

	fixesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alloclab",
		Name:      "fixes_applied_total",
		Help:      "Fix suggestions applied, by suggestion kind.",
	}, []string{"kind"})
)

func ObserveValidation(d time.Duration, valid bool) {
	result := "clean"
	if !valid {
		result = "errors"
	}
	validationRuns.WithLabelValues(result).Inc()
	validationDuration.Observe(d.Seconds())
}

func StaleRunDropped() { staleRunsDropped.Inc() }

func FixApplied(kind string) { fixesApplied.WithLabelValues(kind).Inc() }
