package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEscalationMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEscalationMetrics(reg)

	m.AddProcessed(3)
	m.AddReassigned(2)
	m.AddRoutedToOnCall(1)
	m.AddErrors(1)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.processed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.reassigned))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.onCall))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.errors))
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewEscalationMetrics(nil)
	m.AddProcessed(1)

	c := NewCronJobMetrics(nil)
	c.ObserveDuration("escalation", time.Second)
	c.IncSuccess("escalation")
	c.IncFailure("")
}
