package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finecision/finecision/pkg/domain"
)

// Metrics records engine activity as Prometheus series.
type Metrics struct {
	registry    *prometheus.Registry
	decisions   *prometheus.CounterVec
	nodeVisits  *prometheus.CounterVec
	creditScore prometheus.Histogram
	steps       prometheus.Histogram
}

// NewMetrics creates the collectors and registers them, together with the Go
// and process collectors, on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finecision_decisions_total",
				Help: "Total number of workflow decisions by status",
			},
			[]string{"workflow_id", "status"},
		),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finecision_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node_type"},
		),
		creditScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finecision_credit_score",
				Help:    "Distribution of primary credit scores",
				Buckets: prometheus.LinearBuckets(0, 100, 11),
			},
		),
		steps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finecision_execution_steps",
				Help:    "Number of traversal steps per execution",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
	}

	m.registry.MustRegister(
		m.decisions,
		m.nodeVisits,
		m.creditScore,
		m.steps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(string(e.NodeType)).Inc()
		},
		OnDecision: func(_ context.Context, e *domain.DecisionEvent) {
			m.decisions.WithLabelValues(e.WorkflowID, string(e.Result.Status)).Inc()
			m.steps.Observe(float64(e.Steps))
			if e.Result.CreditScore != nil {
				m.creditScore.Observe(*e.Result.CreditScore)
			}
		},
	}
}
