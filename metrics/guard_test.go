package metrics_test

import (
	"testing"

	"github.com/hxrts/aura/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestGuardMetricsRecordsDenialsByReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewGuardMetrics(reg)
	require.NoError(t, err)

	m.RecordDenial("missing_capability")
	m.RecordDenial("missing_capability")
	m.RecordDenial("rate_limited")
	m.RecordSend()
	m.RecordCouplingRetry()

	var counter dto.Metric
	require.NoError(t, m.Denials.WithLabelValues("missing_capability").Write(&counter))
	require.Equal(t, float64(2), counter.GetCounter().GetValue())

	var rl dto.Metric
	require.NoError(t, m.Denials.WithLabelValues("rate_limited").Write(&rl))
	require.Equal(t, float64(1), rl.GetCounter().GetValue())

	var sends dto.Metric
	require.NoError(t, m.Sends.Write(&sends))
	require.Equal(t, float64(1), sends.GetCounter().GetValue())
}

func TestNilGuardMetricsIsNoOp(t *testing.T) {
	var m *metrics.GuardMetrics
	require.NotPanics(t, func() {
		m.RecordDenial("x")
		m.RecordSend()
		m.RecordCouplingRetry()
	})
}
