// Package telemetry holds the Prometheus collectors of the selection engine
// and the worker pool. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recomputation levels used as label values.
const (
	LevelROI     = "roi"
	LevelBranch  = "branch"
	LevelManager = "manager"
)

// Metrics bundles all collectors.
type Metrics struct {
	recomputeDuration *prometheus.HistogramVec
	recomputeInFlight prometheus.Gauge
	selectedFibers    prometheus.Gauge
	poolRuns          prometheus.Counter
	workerFailures    prometheus.Counter
}

// New registers the collectors with reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time to recompute a selection bitfield",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"level"}),
		recomputeInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recompute_in_flight",
			Help:      "Background recomputations started and not yet finished",
		}),
		selectedFibers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_fibers",
			Help:      "Fibers selected by the last manager recomputation",
		}),
		poolRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_runs_total",
			Help:      "Threaded function runs started",
		}),
		workerFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_failures_total",
			Help:      "Worker functions that returned an error or panicked",
		}),
	}
}

// ObserveRecompute records the duration of one recomputation at level.
func (m *Metrics) ObserveRecompute(level string, d time.Duration) {
	if m == nil {
		return
	}
	m.recomputeDuration.WithLabelValues(level).Observe(d.Seconds())
}

// RecomputeStarted increments the in-flight gauge.
func (m *Metrics) RecomputeStarted() {
	if m == nil {
		return
	}
	m.recomputeInFlight.Inc()
}

// RecomputeFinished decrements the in-flight gauge.
func (m *Metrics) RecomputeFinished() {
	if m == nil {
		return
	}
	m.recomputeInFlight.Dec()
}

// SetSelected records how many fibers the current output selects.
func (m *Metrics) SetSelected(n int) {
	if m == nil {
		return
	}
	m.selectedFibers.Set(float64(n))
}

// PoolRun counts a started pool run.
func (m *Metrics) PoolRun() {
	if m == nil {
		return
	}
	m.poolRuns.Inc()
}

// WorkerFailed counts a failed worker.
func (m *Metrics) WorkerFailed() {
	if m == nil {
		return
	}
	m.workerFailures.Inc()
}
