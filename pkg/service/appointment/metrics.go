package appointment

import (
	"time"

	"github.com/amirasaad/appointments/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appointment_transitions_total",
		Help: "Lifecycle transitions, labeled by operation and outcome",
	}, []string{"operation", "result"})

	transitionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appointment_transition_duration_seconds",
		Help:    "Latency distribution of lifecycle transitions",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	validationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appointment_validation_failures_total",
		Help: "Validation rule failures, labeled by failure code",
	}, []string{"code"})
)

// observeTransition records the outcome of one lifecycle operation: success,
// rejected (validation failures), or error.
func observeTransition(operation string, start time.Time, failures validation.Result, err error) {
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case !failures.Valid():
		result = "rejected"
	}
	transitionsTotal.WithLabelValues(operation, result).Inc()
	transitionLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	for _, f := range failures.Failures {
		validationFailuresTotal.WithLabelValues(string(f.Code)).Inc()
	}
}
