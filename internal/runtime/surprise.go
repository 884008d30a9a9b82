package runtime

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianSurprise is the negative log-density of an observation under the
// input node's predictive distribution:
//
//	0.5*log(2*pi/pihat) + 0.5*pihat*(x - muhat)^2
func GaussianSurprise(x, muhat, pihat float64) float64 {
	normal := distuv.Normal{Mu: muhat, Sigma: 1 / math.Sqrt(pihat)}
	return -normal.LogProb(x)
}
