// Package metrics exposes the skill's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TurnsTotal counts handled turns by intent and outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pico",
		Name:      "turns_total",
		Help:      "Handled turns by intent name and outcome.",
	}, []string{"intent", "outcome"})

	// DispatchFailures counts empty dispatcher results by reason.
	DispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pico",
		Name:      "dispatch_failures_total",
		Help:      "Model calls that produced no usable answer, by reason.",
	}, []string{"reason"})

	// DispatchSeconds observes model call latency.
	DispatchSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pico",
		Name:      "dispatch_seconds",
		Help:      "Model call wall time in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 1.5, 2, 2.5, 3, 4, 6, 8},
	})

	// NoteCalls counts note-service calls by operation and status.
	NoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pico",
		Name:      "note_calls_total",
		Help:      "Note-service calls by operation and status.",
	}, []string{"op", "status"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
