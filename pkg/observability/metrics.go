package observability

import (
	"context"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fluxo"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits     *prometheus.CounterVec
	NodeFailures   *prometheus.CounterVec
	EffectDuration *prometheus.HistogramVec
	EffectFailures *prometheus.CounterVec
	StatusChanges  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_visits_total",
				Help:      "Total number of nodes processed, by node type.",
			},
			[]string{"node_type"},
		),
		NodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_failures_total",
				Help:      "Total number of nodes whose processing failed.",
			},
			[]string{"node_type"},
		),
		EffectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "effect_duration_seconds",
				Help:      "Duration of external effect calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"effect", "mode"},
		),
		EffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "effect_failures_total",
				Help:      "Total number of failed external effect calls.",
			},
			[]string{"effect", "mode"},
		),
		StatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "run_status_transitions_total",
				Help:      "Run status transitions, by target status.",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.NodeVisits, m.NodeFailures, m.EffectDuration, m.EffectFailures, m.StatusChanges)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
// Node ids are left out of the labels to keep cardinality bounded.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(string(e.NodeType)).Inc()
			if !e.Success {
				m.NodeFailures.WithLabelValues(string(e.NodeType)).Inc()
			}
		},
		OnEffectReturn: func(_ context.Context, e *domain.EffectEvent) {
			m.EffectDuration.WithLabelValues(e.Effect, e.Mode).Observe(e.Duration.Seconds())
			if e.IsError {
				m.EffectFailures.WithLabelValues(e.Effect, e.Mode).Inc()
			}
		},
		OnStatusChange: func(_ context.Context, e *domain.StatusEvent) {
			m.StatusChanges.WithLabelValues(string(e.To)).Inc()
		},
	}
}
