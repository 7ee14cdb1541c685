// Package metrics provides Prometheus metrics for the dispatch pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/artpar/schemawire/core/dispatch"
)

// Collector holds all Prometheus metrics. It implements dispatch.Observer,
// so wiring it into the dispatcher is the only instrumentation needed.
type Collector struct {
	DispatchesTotal    *prometheus.CounterVec
	DispatchDuration   *prometheus.HistogramVec
	DispatchFailures   *prometheus.CounterVec
	DispatchesInFlight prometheus.Gauge
}

// New creates a collector registered on the default registerer.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector on a custom registry. Tests use this
// to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		DispatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemawire",
				Name:      "dispatches_total",
				Help:      "Total number of dispatched operations",
			},
			[]string{"operation", "method", "status"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "schemawire",
				Name:      "dispatch_duration_seconds",
				Help:      "Dispatch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		DispatchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "schemawire",
				Name:      "dispatch_failures_total",
				Help:      "Total number of failed dispatches by pipeline stage",
			},
			[]string{"operation", "stage"},
		),
		DispatchesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "schemawire",
				Name:      "dispatches_in_flight",
				Help:      "Number of operations currently being dispatched",
			},
		),
	}
}

// DispatchStarted marks an operation in flight.
func (c *Collector) DispatchStarted(operation string) {
	c.DispatchesInFlight.Inc()
}

// DispatchFinished records the outcome of a dispatch. Unmatched requests
// never started, so the gauge only moves for matched operations.
func (c *Collector) DispatchFinished(operation, method string, status int, stage dispatch.Stage, elapsed time.Duration) {
	if stage != dispatch.StageMatched {
		c.DispatchesInFlight.Dec()
	}
	c.DispatchesTotal.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	c.DispatchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if status >= 400 {
		c.DispatchFailures.WithLabelValues(operation, string(stage)).Inc()
	}
}

var _ dispatch.Observer = (*Collector)(nil)
