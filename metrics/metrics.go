// Package metrics exposes Prometheus instrumentation for the orchestration
// engine: step transitions, planner calls and retries, tool executions and
// turn outcomes. All methods are nil-safe so instrumentation can be left
// unset in tests and examples.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine, registered on a
// private registry so multiple instances can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	StepTransitionsTotal *prometheus.CounterVec

	PlannerCallsTotal   *prometheus.CounterVec
	PlannerRetriesTotal prometheus.Counter
	PlannerCallDuration *prometheus.HistogramVec

	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	TurnsTotal   *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	ActiveTurns  prometheus.Gauge
}

// New creates and registers all engine collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		StepTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloom_step_transitions_total",
				Help: "Total number of completed graph step transitions",
			},
			[]string{"step"},
		),

		PlannerCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloom_planner_calls_total",
				Help: "Total number of planner adapter calls",
			},
			[]string{"op", "status"},
		),
		PlannerRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agentloom_planner_retries_total",
				Help: "Total number of planner call retries",
			},
		),
		PlannerCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloom_planner_call_duration_seconds",
				Help:    "Duration of planner adapter calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloom_tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloom_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloom_turns_total",
				Help: "Total number of conversational turns by outcome",
			},
			[]string{"status"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentloom_turn_duration_seconds",
				Help:    "Duration of conversational turns in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		ActiveTurns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentloom_active_turns",
				Help: "Number of turns currently executing",
			},
		),
	}

	registry.MustRegister(
		m.StepTransitionsTotal,
		m.PlannerCallsTotal,
		m.PlannerRetriesTotal,
		m.PlannerCallDuration,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.TurnsTotal,
		m.TurnDuration,
		m.ActiveTurns,
	)

	return m
}

// Handler returns an HTTP handler serving the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStep records a completed step transition.
func (m *Metrics) ObserveStep(step string) {
	if m == nil {
		return
	}
	m.StepTransitionsTotal.WithLabelValues(step).Inc()
}

// ObservePlannerCall records one planner adapter call.
func (m *Metrics) ObservePlannerCall(op string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.PlannerCallsTotal.WithLabelValues(op, status).Inc()
	m.PlannerCallDuration.WithLabelValues(op).Observe(dur.Seconds())
}

// ObservePlannerRetry records one retried planner call.
func (m *Metrics) ObservePlannerRetry() {
	if m == nil {
		return
	}
	m.PlannerRetriesTotal.Inc()
}

// ObserveToolExecution records one tool dispatch.
func (m *Metrics) ObserveToolExecution(tool string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ToolExecutionsTotal.WithLabelValues(tool, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// TurnStarted marks a turn as active.
func (m *Metrics) TurnStarted() {
	if m == nil {
		return
	}
	m.ActiveTurns.Inc()
}

// TurnFinished records a completed turn and its outcome.
func (m *Metrics) TurnFinished(dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.ActiveTurns.Dec()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.TurnsTotal.WithLabelValues(status).Inc()
	m.TurnDuration.Observe(dur.Seconds())
}
