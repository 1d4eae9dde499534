// Package metrics exposes Prometheus instrumentation for the triage engine,
// delivered through the engine's lifecycle hooks.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/viridien/triage/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	stepsTotal       *prometheus.CounterVec
	stepErrorsTotal  *prometheus.CounterVec
	stepDuration     *prometheus.HistogramVec
	turnsTotal       *prometheus.CounterVec
	suspensionsTotal prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_steps_total",
			Help: "Processing steps executed, by step name.",
		}, []string{"step"}),
		stepErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_step_errors_total",
			Help: "Processing steps that returned an error, by step name.",
		}, []string{"step"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triage_step_duration_seconds",
			Help:    "Wall-clock duration of processing steps.",
			Buckets: prometheus.DefBuckets,
		}, []string{"step"}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_turns_total",
			Help: "Completed turns, by the route ingest selected.",
		}, []string{"route"}),
		suspensionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "triage_suspensions_total",
			Help: "Turns suspended at the admin review checkpoint.",
		}),
	}
	reg.MustRegister(m.stepsTotal, m.stepErrorsTotal, m.stepDuration, m.turnsTotal, m.suspensionsTotal)
	return m
}

// Hooks adapts the collectors to the engine's lifecycle hook surface.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnd: func(threadID string, step domain.StepName, elapsed time.Duration, err error) {
			m.stepsTotal.WithLabelValues(string(step)).Inc()
			m.stepDuration.WithLabelValues(string(step)).Observe(elapsed.Seconds())
			if err != nil {
				m.stepErrorsTotal.WithLabelValues(string(step)).Inc()
			}
		},
		OnSuspend: func(threadID string, step domain.StepName) {
			m.suspensionsTotal.Inc()
		},
		OnTurnEnd: func(threadID string, route domain.Route) {
			m.turnsTotal.WithLabelValues(string(route)).Inc()
		},
	}
}
