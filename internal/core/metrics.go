package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	uploads    *prometheus.CounterVec
	sessions   prometheus.Gauge
	expired    prometheus.Counter
}

// NewMetrics registers the collectors plus the Go runtime and process
// collectors on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabledit",
			Name:      "operations_total",
			Help:      "Table operations by action and outcome.",
		}, []string{"action", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabledit",
			Name:      "operation_duration_seconds",
			Help:      "Time spent applying a table operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabledit",
			Name:      "uploads_total",
			Help:      "File uploads by outcome.",
		}, []string{"outcome"}),
		sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "tabledit",
			Name:      "sessions_open",
			Help:      "Editing sessions currently held in memory.",
		}),
		expired: f.NewCounter(prometheus.CounterOpts{
			Namespace: "tabledit",
			Name:      "sessions_expired_total",
			Help:      "Sessions removed by the idle sweeper.",
		}),
	}
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeOperation(action string, err error, elapsed time.Duration) {
	m.operations.WithLabelValues(action, outcome(err)).Inc()
	m.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) observeUpload(err error) {
	m.uploads.WithLabelValues(outcome(err)).Inc()
}

// outcome separates bad input from everything else.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsUserFacing(err):
		return outcomeRejected
	default:
		return outcomeFailed
	}
}
