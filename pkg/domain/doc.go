// Package domain contains the core types of the canopy Hierarchical
// Gaussian Filter: nodes, networks, configurations, trajectories and the
// error taxonomy shared by the runtime and its adapters.
//
// The node hierarchy is index-addressed (a slice of Node records plus
// parent/child index arrays) rather than a web of pointers. This keeps the
// whole network trivially serializable for checkpointing and makes
// independent subtrees safe to evaluate in any order.
package domain
