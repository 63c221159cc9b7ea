package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - счетчики синхронизации участников. Методы безопасны для nil.
type Metrics struct {
	runs       *prometheus.CounterVec
	rows       *prometheus.CounterVec
	escalation prometheus.Counter
	rejected   prometheus.Counter
	duration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupsync",
			Name:      "reconcile_runs_total",
			Help:      "Member reconciliation runs by final status and error kind",
		}, []string{"status", "error_kind"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groupsync",
			Name:      "row_operations_total",
			Help:      "Member row operations by channel, operation and outcome",
		}, []string{"channel", "op", "outcome"}),
		escalation: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "groupsync",
			Name:      "escalations_total",
			Help:      "Runs that switched to the alternate channel",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "groupsync",
			Name:      "reconcile_rejected_total",
			Help:      "Runs rejected because another run for the group was in flight",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "groupsync",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of member reconciliation runs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveRun(status, errorKind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status, errorKind).Inc()
	m.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRow(channel, op, outcome string) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(channel, op, outcome).Inc()
}

func (m *Metrics) ObserveEscalation() {
	if m == nil {
		return
	}
	m.escalation.Inc()
}

func (m *Metrics) ObserveRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}
