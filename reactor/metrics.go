package reactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a Prometheus-compatible collector for propagation cycles
// across one or more Groups, namespaced "reactor". Pass one to WithMetrics
// to attach it; nil (the default) disables collection entirely.
type Metrics struct {
	cycles         *prometheus.CounterVec
	cycleErrors    *prometheus.CounterVec
	cycleLatency   *prometheus.HistogramVec
	shiftRepairs   prometheus.Counter
	queueDepth     prometheus.Gauge
	asyncQueueSize prometheus.Gauge
}

// NewMetrics creates and registers a Metrics collector with registry. A nil
// registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reactor",
			Name:      "cycles_total",
			Help:      "Completed propagation cycles, by graph id.",
		}, []string{"graph_id"}),
		cycleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reactor",
			Name:      "cycle_errors_total",
			Help:      "Propagation cycles that ended in an error (panic or cycle detection).",
		}, []string{"graph_id"}),
		cycleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reactor",
			Name:      "cycle_latency_ms",
			Help:      "Propagation cycle duration in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
		}, []string{"graph_id"}),
		shiftRepairs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reactor",
			Name:      "shift_repairs_total",
			Help:      "Node re-queues caused by a dynamic-input topology shift.",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reactor",
			Name:      "queue_depth",
			Help:      "Largest number of pending level-queue entries seen during the most recent successful cycle.",
		}),
		asyncQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "reactor",
			Name:      "async_queue_size",
			Help:      "Buffered async transactions awaiting a Group's worker.",
		}),
	}
}

func (m *Metrics) observeCycle(id string, d time.Duration, failed bool) {
	m.cycles.WithLabelValues(id).Inc()
	if failed {
		m.cycleErrors.WithLabelValues(id).Inc()
	}
	m.cycleLatency.WithLabelValues(id).Observe(float64(d.Microseconds()) / 1000)
}

func (m *Metrics) observeShiftRepair() {
	m.shiftRepairs.Inc()
}

func (m *Metrics) setAsyncQueueSize(n int) {
	m.asyncQueueSize.Set(float64(n))
}

func (m *Metrics) setQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}
