package canopy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Model is the high-level entry point for the canopy library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Model struct {
	cfg     domain.Config
	network *domain.Network
	engine  *runtime.Engine
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	store   ports.TrajectoryStore
	runID   string

	trajectory *domain.Trajectory
	surprise   float64
	fitted     bool
}

// Option defines a functional option for configuring the Model.
type Option func(*Model)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Model) {
		m.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the model.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// WithStore persists the trajectory of every Fit under the model's run ID.
func WithStore(store ports.TrajectoryStore) Option {
	return func(m *Model) {
		m.store = store
	}
}

// WithRunID sets the run ID used when persisting trajectories
// (default: "latest").
func WithRunID(runID string) Option {
	return func(m *Model) {
		m.runID = runID
	}
}

// New initializes a Model from a configuration. The node graph is built
// once, up front; a malformed configuration fails here, never mid-run.
func New(cfg domain.Config, opts ...Option) (*Model, error) {
	m := &Model{
		cfg:   cfg,
		runID: "latest",
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}

	network, err := domain.NewNetwork(cfg)
	if err != nil {
		return nil, err
	}
	m.network = network
	m.engine = runtime.NewEngine(
		runtime.WithLogger(m.logger),
		runtime.WithLifecycleHooks(m.hooks),
	)
	return m, nil
}

// Fit filters the observation sequence through the model. The network is
// reset to its configured priors first, so Fit is repeatable: calling it
// twice with the same observations yields identical trajectories.
func (m *Model) Fit(ctx context.Context, observations []float64) error {
	m.network.Reset()
	trajectory, surprise, err := m.engine.Run(ctx, m.network, observations)
	if err != nil {
		return err
	}
	m.trajectory = trajectory
	m.surprise = surprise
	m.fitted = true

	if m.store != nil {
		if err := m.store.Save(ctx, m.runID, trajectory); err != nil {
			return fmt.Errorf("failed to persist trajectory: %w", err)
		}
	}
	return nil
}

// Surprise returns the total Gaussian surprise of the last Fit.
func (m *Model) Surprise() float64 { return m.surprise }

// Trajectory returns the belief trajectory of the last Fit, or nil before
// the first Fit.
func (m *Model) Trajectory() *domain.Trajectory { return m.trajectory }

// Fitted reports whether the model has filtered at least one sequence.
func (m *Model) Fitted() bool { return m.fitted }

// Network exposes the underlying node graph (beliefs reflect the last Fit).
func (m *Model) Network() *domain.Network { return m.network }

// Config returns the model's configuration.
func (m *Model) Config() domain.Config { return m.cfg }

// Evaluator derives a likelihood evaluator sharing this model's fixed
// configuration.
func (m *Model) Evaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	return NewEvaluator(m.cfg, opts...)
}
