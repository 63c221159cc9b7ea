package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("счетчики считают запуски и строки", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := New(reg)

		m.ObserveRun("converged", "", 150*time.Millisecond)
		m.ObserveRun("failed", "TIMEOUT", 12*time.Second)
		m.ObserveRow("primary", "insert", "ok")
		m.ObserveRow("primary", "insert", "ok")
		m.ObserveRow("primary", "delete", "transient")
		m.ObserveEscalation()
		m.ObserveRejected()

		assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("converged", "")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failed", "TIMEOUT")))
		assert.Equal(t, 2.0, testutil.ToFloat64(m.rows.WithLabelValues("primary", "insert", "ok")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.rows.WithLabelValues("primary", "delete", "transient")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.escalation))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))
	})

	t.Run("nil не паникует", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.ObserveRun("converged", "", time.Second)
			m.ObserveRow("primary", "update", "ok")
			m.ObserveEscalation()
			m.ObserveRejected()
		})
	})
}
