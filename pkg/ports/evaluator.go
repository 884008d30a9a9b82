package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// Evaluator maps a parameter vector and an observation sequence to a scalar
// log-likelihood (the negative total surprise of a full filtering pass).
// Implementations must be safe for concurrent calls: every call owns a
// private network, with no state shared across calls.
type Evaluator interface {
	LogLikelihood(ctx context.Context, params domain.ParameterVector, observations []float64) (float64, error)
}
