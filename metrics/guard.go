package metrics

import "github.com/prometheus/client_golang/prometheus"

// GuardMetrics are the Prometheus counters the send-guard chain emits
// (spec.md §4.3): one denial counter labelled by reason, plus plain
// counters for successful sends and for coupling retries. Grounded on
// poll/default.go's `prometheus.NewRegistry()` wiring pattern, narrowed
// from a whole-package registry to the three counters the guard chain
// actually needs.
type GuardMetrics struct {
	Denials         *prometheus.CounterVec
	Sends           prometheus.Counter
	CouplingRetries prometheus.Counter
}

// NewGuardMetrics registers guard_denials_total{reason}, guard_sends_total,
// and guard_coupling_retries_total against reg.
func NewGuardMetrics(reg prometheus.Registerer) (*GuardMetrics, error) {
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guard_denials_total",
		Help: "Total send-guard denials, labelled by reason.",
	}, []string{"reason"})
	sends := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guard_sends_total",
		Help: "Total sends allowed through the send-guard chain.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guard_coupling_retries_total",
		Help: "Total journal-coupling retry attempts after a coupling failure.",
	})

	for _, c := range []prometheus.Collector{denials, sends, retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &GuardMetrics{Denials: denials, Sends: sends, CouplingRetries: retries}, nil
}

// RecordDenial increments guard_denials_total for reason. A nil receiver
// is a no-op so callers can leave metrics unset in tests.
func (m *GuardMetrics) RecordDenial(reason string) {
	if m == nil {
		return
	}
	m.Denials.WithLabelValues(reason).Inc()
}

// RecordSend increments guard_sends_total.
func (m *GuardMetrics) RecordSend() {
	if m == nil {
		return
	}
	m.Sends.Inc()
}

// RecordCouplingRetry increments guard_coupling_retries_total.
func (m *GuardMetrics) RecordCouplingRetry() {
	if m == nil {
		return
	}
	m.CouplingRetries.Inc()
}
