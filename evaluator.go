package canopy

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/runtime"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Evaluator maps parameter vectors to log-likelihoods (negative total
// surprise) by running a full filtering pass per call. Every call builds a
// fresh network from the fixed configuration merged with the free
// parameters, so concurrent calls never share mutable state.
type Evaluator struct {
	cfg     domain.Config
	engine  *runtime.Engine
	logger  *slog.Logger
	penalty *float64
}

var _ ports.Evaluator = (*Evaluator)(nil)

// EvaluatorOption defines a functional option for configuring the Evaluator.
type EvaluatorOption func(*Evaluator)

// WithPenalty maps numerical failures to a fixed (large negative)
// log-likelihood instead of an error. Samplers typically prefer treating an
// exploding parameter vector as "implausible" rather than aborting a chain.
// Configuration and sentinel errors still surface as errors: they indicate a
// bug in the caller, not an implausible parameter region.
func WithPenalty(logLikelihood float64) EvaluatorOption {
	return func(e *Evaluator) {
		v := logLikelihood
		e.penalty = &v
	}
}

// WithEvaluatorLogger sets a structured logger for the evaluator.
func WithEvaluatorLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator validates the fixed configuration once and returns an
// evaluator for it.
func NewEvaluator(cfg domain.Config, opts ...EvaluatorOption) (*Evaluator, error) {
	e := &Evaluator{cfg: cfg.WithDefaults()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	e.engine = runtime.NewEngine(runtime.WithLogger(e.logger))
	return e, nil
}

// LogLikelihood merges the parameter vector over the fixed configuration,
// filters the observations through a fresh network, and returns the negative
// total surprise. Safe for concurrent calls with identical observations.
func (e *Evaluator) LogLikelihood(ctx context.Context, params domain.ParameterVector, observations []float64) (float64, error) {
	merged, err := e.cfg.Merge(params)
	if err != nil {
		return 0, err
	}
	network, err := domain.NewNetwork(merged)
	if err != nil {
		return 0, err
	}

	_, surprise, err := e.engine.Run(ctx, network, observations)
	if err != nil {
		var numErr *domain.NumericalError
		if e.penalty != nil && errors.As(err, &numErr) {
			e.logger.Debug("penalizing numerical failure", "step", numErr.Step, "node", numErr.Node, "err", err)
			return *e.penalty, nil
		}
		return 0, err
	}
	return -surprise, nil
}
