package observability

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors of a filtering host.
type Metrics struct {
	RunsTotal         prometheus.Counter
	StepsTotal        prometheus.Counter
	MissingStepsTotal prometheus.Counter
	StepSurprise      prometheus.Histogram
	RunDuration       prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the given registerer
// (use prometheus.DefaultRegisterer for the process-wide registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_runs_total",
			Help: "Total number of completed filtering runs",
		}),
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_steps_total",
			Help: "Total number of filtered observations",
		}),
		MissingStepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "canopy_missing_steps_total",
			Help: "Total number of steps with a missing observation",
		}),
		StepSurprise: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_step_surprise",
			Help:    "Per-step Gaussian surprise of the input node",
			Buckets: prometheus.ExponentialBuckets(0.125, 2, 12),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "canopy_run_duration_seconds",
			Help:    "Duration of filtering runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.RunsTotal, m.StepsTotal, m.MissingStepsTotal, m.StepSurprise, m.RunDuration)
	return m
}

// Hooks returns lifecycle hooks feeding the collectors. Attach them to a
// Model or Engine via WithLifecycleHooks.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			m.StepsTotal.Inc()
			if !e.Observed {
				m.MissingStepsTotal.Inc()
				return
			}
			m.StepSurprise.Observe(e.Surprise)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.RunsTotal.Inc()
			m.RunDuration.Observe(e.Duration.Seconds())
		},
	}
}
