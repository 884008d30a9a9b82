package runtime

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Engine drives a Network through repeated prediction/update cycles. It owns
// no belief state of its own: identical (network configuration, observation
// sequence) inputs always produce identical trajectories.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an engine. Without options it is silent.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run filters a finite observation sequence through the network, mutating
// its beliefs in place, and returns the completed trajectory together with
// the total Gaussian surprise. The observation slice is never modified.
// Missing observations (domain.Missing) skip the correction: the prediction
// still advances time, so beliefs widen but are not pulled toward data.
//
// The context is forwarded to lifecycle hooks only; the filter itself is
// pure computation with no cancellation points. A caller needing
// cancellation should check between Run invocations.
func (e *Engine) Run(ctx context.Context, net *domain.Network, observations []float64) (*domain.Trajectory, float64, error) {
	start := time.Now()
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{Steps: len(observations)})
	}

	trajectory := &domain.Trajectory{Steps: make([]domain.Snapshot, 0, len(observations))}
	total := 0.0
	for step, u := range observations {
		snapshot, err := e.Step(ctx, net, u, step)
		if err != nil {
			return nil, 0, err
		}
		total += snapshot.Surprise
		trajectory.Steps = append(trajectory.Steps, snapshot)

		if e.hooks.OnStep != nil {
			e.hooks.OnStep(ctx, &domain.StepEvent{
				Step:        step,
				Observed:    snapshot.Observed,
				Observation: snapshot.Observation,
				Surprise:    snapshot.Surprise,
			})
		}
	}
	trajectory.TotalSurprise = total

	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			Steps:         len(observations),
			TotalSurprise: total,
			Duration:      time.Since(start),
		})
	}
	e.logger.Debug("run complete", "steps", len(observations), "surprise", total)
	return trajectory, total, nil
}

// Step executes one full prediction-then-update cycle and returns the
// per-node snapshot for this step.
func (e *Engine) Step(ctx context.Context, net *domain.Network, observation float64, step int) (domain.Snapshot, error) {
	if err := predict(net, step); err != nil {
		return domain.Snapshot{}, err
	}

	observed := !domain.IsMissing(observation)
	surprise := 0.0
	if observed {
		s, err := update(net, observation, step)
		if err != nil {
			return domain.Snapshot{}, err
		}
		surprise = s
	} else {
		settle(net)
	}

	return net.Snapshot(step, observed, observation, surprise), nil
}

// predict visits nodes parents-first and computes the prior for this step:
// the expected mean follows the node's own drift plus the value parent's
// belief, the expected precision loses the step variance
// exp(kappa*muhat_parent + omega).
func predict(net *domain.Network, step int) error {
	for _, idx := range net.PredictionOrder() {
		n := &net.Nodes[idx]
		n.MuHat = n.Mu + n.Rho
		if n.ValueParent != domain.NoParent {
			n.MuHat += n.Psi * net.Nodes[n.ValueParent].Mu
		}

		logvol := n.Omega
		if n.VolatilityParent != domain.NoParent {
			logvol += n.Kappa * net.Nodes[n.VolatilityParent].MuHat
		}
		n.Nu = math.Exp(logvol)
		n.PiHat = 1 / (1/n.Pi + n.Nu)
		if !(n.PiHat > 0) || math.IsInf(n.PiHat, 0) {
			return &domain.NumericalError{Step: step, Node: n.ID, Quantity: "pihat", Value: n.PiHat}
		}
	}
	return nil
}

// update visits nodes children-first. The input node is corrected by the
// observation; every other node folds in the prediction errors of its
// children, precision first, then the precision-weighted mean.
func update(net *domain.Network, observation float64, step int) (float64, error) {
	for _, idx := range net.UpdateOrder() {
		n := &net.Nodes[idx]

		if idx == 0 {
			piU := net.InputPrecision
			pi := n.PiHat + piU
			mu := n.MuHat + piU/pi*(observation-n.MuHat)
			if !(pi > 0) || math.IsInf(pi, 0) {
				return 0, &domain.NumericalError{Step: step, Node: n.ID, Quantity: "pi", Value: pi}
			}
			if math.IsNaN(mu) || math.IsInf(mu, 0) {
				return 0, &domain.NumericalError{Step: step, Node: n.ID, Quantity: "mu", Value: mu}
			}
			n.Pi, n.Mu = pi, mu
			continue
		}

		pi := n.PiHat
		for _, ci := range n.ValueChildren {
			c := net.Nodes[ci]
			pi += c.Psi * c.Psi * c.PiHat
		}
		for _, ci := range n.VolatilityChildren {
			c := net.Nodes[ci]
			sig := volatilitySignal(c)
			pi += 0.5 * (c.Kappa * sig.gamma) * (c.Kappa * sig.gamma) * (1 + sig.factor*sig.vope)
		}
		if !(pi > 0) || math.IsInf(pi, 0) {
			return 0, &domain.NumericalError{Step: step, Node: n.ID, Quantity: "pi", Value: pi}
		}

		mu := n.MuHat
		for _, ci := range n.ValueChildren {
			c := net.Nodes[ci]
			mu += c.Psi * c.PiHat / pi * (c.Mu - c.MuHat)
		}
		for _, ci := range n.VolatilityChildren {
			c := net.Nodes[ci]
			sig := volatilitySignal(c)
			mu += 0.5 * c.Kappa * sig.gamma / pi * sig.vope
		}
		if math.IsNaN(mu) || math.IsInf(mu, 0) {
			return 0, &domain.NumericalError{Step: step, Node: n.ID, Quantity: "mu", Value: mu}
		}

		n.Pi, n.Mu = pi, mu
	}

	in := net.Input()
	surprise := GaussianSurprise(observation, in.MuHat, in.PiHat)
	if math.IsNaN(surprise) || math.IsInf(surprise, 0) {
		return 0, &domain.NumericalError{Step: step, Node: in.ID, Quantity: "surprise", Value: surprise}
	}
	return surprise, nil
}

// settle is the missing-observation path: the posterior collapses onto the
// prior, so the step widens beliefs without correcting them.
func settle(net *domain.Network) {
	for i := range net.Nodes {
		n := &net.Nodes[i]
		n.Pi = n.PiHat
		n.Mu = n.MuHat
	}
}

// volSignal carries the volatility prediction error of a child node and the
// weights its volatility parent folds it in with.
type volSignal struct {
	gamma  float64 // nu * pihat, the fraction of the step variance that was expected
	vope   float64 // precision-weighted squared error minus one
	factor float64 // second-order correction, 1 - (1/pi_prev)/nu
}

// volatilitySignal derives the child's volatility prediction error from its
// post-update beliefs. The child's previous posterior precision is recovered
// from 1/pihat = 1/pi_prev + nu, so nothing beyond the prediction-pass state
// needs to be stored. When the expected step variance is zero the child
// carries no volatility information and the signal vanishes.
func volatilitySignal(c domain.Node) volSignal {
	if c.Nu == 0 {
		return volSignal{}
	}
	delta := c.Mu - c.MuHat
	vope := (1/c.Pi+delta*delta)*c.PiHat - 1
	piPrevInv := 1/c.PiHat - c.Nu
	return volSignal{
		gamma:  c.Nu * c.PiHat,
		vope:   vope,
		factor: 1 - piPrevInv/c.Nu,
	}
}
