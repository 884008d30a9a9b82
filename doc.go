/*
Package canopy implements the Hierarchical Gaussian Filter (HGF): an online
Bayesian filter that tracks the hidden state of a multi-level hierarchy of
coupled Gaussian random walks, updating beliefs about every level as scalar
observations arrive.

Canopy treats the hierarchy as a graph of nodes. A node may have a value
parent (the parent's mean shifts the node's mean) and a volatility parent
(the parent's mean modulates the node's step size through an exponential
link). Each step runs a prediction pass from the top of the hierarchy down
and an update pass from the observed node up, propagating precision-weighted
prediction errors.

The core accumulates Gaussian surprise (negative log-evidence), and the
Evaluator exposes a full filtering pass as a likelihood function of a
parameter vector, the seam an external sampler (HMC/NUTS, grid search, ...)
iterates over. This Hexagonal Architecture keeps the filter embeddable in
any host: CLI, HTTP server, or agent infrastructure.
*/
package canopy
