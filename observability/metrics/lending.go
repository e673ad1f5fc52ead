package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"loanchain/core/events"
)

type LendingMetrics struct {
	moduleEvents  *prometheus.CounterVec
	loansActive   prometheus.Gauge
	poolUtilized  prometheus.Gauge
	consensusFail *prometheus.CounterVec
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			moduleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_module_events_total",
				Help: "Count of ledger events emitted by the lending modules, by event type.",
			}, []string{"type"}),
			loansActive: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lending_loans_active",
				Help: "Number of loans currently in the active state.",
			}),
			poolUtilized: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "lending_pool_utilization_bps",
				Help: "Outstanding debt as basis points of total pool underlying.",
			}),
			consensusFail: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_terms_consensus_failures_total",
				Help: "Count of rejected loan-term submission sets, by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			lendingRegistry.moduleEvents,
			lendingRegistry.loansActive,
			lendingRegistry.poolUtilized,
			lendingRegistry.consensusFail,
		)
	})
	return lendingRegistry
}

func (m *LendingMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.moduleEvents.WithLabelValues(eventType).Inc()
}

func (m *LendingMetrics) SetActiveLoans(count float64) {
	if m == nil {
		return
	}
	m.loansActive.Set(count)
}

func (m *LendingMetrics) SetPoolUtilization(bps float64) {
	if m == nil {
		return
	}
	m.poolUtilized.Set(bps)
}

func (m *LendingMetrics) IncConsensusFailure(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.consensusFail.WithLabelValues(reason).Inc()
}

// Recorder adapts the metrics registry to the ledger event Emitter so engines
// feed counters without importing prometheus.
type Recorder struct {
	metrics *LendingMetrics
	next    events.Emitter
}

// NewRecorder wraps next (nil for none) and counts every event passing
// through.
func NewRecorder(next events.Emitter) *Recorder {
	return &Recorder{metrics: Lending(), next: next}
}

func (r *Recorder) Emit(evt events.Event) {
	if r == nil || evt == nil {
		return
	}
	r.metrics.ObserveEvent(evt.EventType())
	if r.next != nil {
		r.next.Emit(evt)
	}
}
