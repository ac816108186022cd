// Package observability exposes prometheus instrumentation for the screening
// pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scheduler dispatch outcome labels
const (
	OutcomeResolved  = "resolved"
	OutcomeExhausted = "exhausted"
)

// Metrics bundles the pipeline instruments. A nil *Metrics is valid and
// records nothing, so tests can run components without a registry.
type Metrics struct {
	registry *prometheus.Registry

	QueueDepth    prometheus.Gauge
	ActiveWorkers prometheus.Gauge

	DispatchedTotal *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	SettledTotal    *prometheus.CounterVec

	DecisionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline instruments on a fresh
// registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screening_queue_depth",
			Help: "Number of analysis tasks waiting for dispatch.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screening_active_workers",
			Help: "Number of analyses currently executing.",
		}),
		DispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screening_dispatched_total",
			Help: "Analysis tasks dispatched, by analysis mode.",
		}, []string{"mode"}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screening_retries_total",
			Help: "Analysis attempts retried after a transient failure.",
		}),
		SettledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screening_settled_total",
			Help: "Analysis tasks settled, by outcome.",
		}, []string{"outcome"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Moderation decisions persisted, by resulting status.",
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.QueueDepth,
		m.ActiveWorkers,
		m.DispatchedTotal,
		m.RetriesTotal,
		m.SettledTotal,
		m.DecisionsTotal,
	)

	return m
}

// Handler serves the registry in prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetQueueDepth records the pending queue length
func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

// SetActiveWorkers records the number of in-flight analyses
func (m *Metrics) SetActiveWorkers(active int) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Set(float64(active))
}

// ObserveDispatch counts one task dispatch in the given mode
func (m *Metrics) ObserveDispatch(mode string) {
	if m == nil {
		return
	}
	m.DispatchedTotal.WithLabelValues(mode).Inc()
}

// ObserveRetry counts one retried analysis attempt
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// ObserveSettled counts one settled task by outcome
func (m *Metrics) ObserveSettled(outcome string) {
	if m == nil {
		return
	}
	m.SettledTotal.WithLabelValues(outcome).Inc()
}

// ObserveDecision counts one persisted moderation decision by status
func (m *Metrics) ObserveDecision(status string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(status).Inc()
}
