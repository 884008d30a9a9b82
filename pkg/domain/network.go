package domain

import "fmt"

// NoParent marks the absence of a parent in a Node's index fields.
const NoParent = -1

// Node is one latent continuous state in the hierarchy. Belief parameters
// are updated in place by the filtering engine; coupling fields are fixed at
// construction.
type Node struct {
	ID    string `yaml:"id" json:"id"`
	Level int    `yaml:"level" json:"level"`

	// Posterior and predicted sufficient statistics for the current step.
	Mu    float64 `yaml:"mu" json:"mu"`
	Pi    float64 `yaml:"pi" json:"pi"`
	MuHat float64 `yaml:"muhat" json:"muhat"`
	PiHat float64 `yaml:"pihat" json:"pihat"`

	// Nu is the predicted step variance exp(kappa*muhat_parent + omega),
	// refreshed by every prediction pass.
	Nu float64 `yaml:"nu" json:"nu"`

	// Tonic volatility and drift.
	Omega float64 `yaml:"omega" json:"omega"`
	Rho   float64 `yaml:"rho" json:"rho"`

	// Coupling structure. At most one parent per kind; fan-out to several
	// children is allowed.
	ValueParent      int     `yaml:"value_parent" json:"value_parent"`
	VolatilityParent int     `yaml:"volatility_parent" json:"volatility_parent"`
	Psi              float64 `yaml:"psi" json:"psi"`     // strength toward the value parent
	Kappa            float64 `yaml:"kappa" json:"kappa"` // strength toward the volatility parent

	ValueChildren      []int `yaml:"value_children,omitempty" json:"value_children,omitempty"`
	VolatilityChildren []int `yaml:"volatility_children,omitempty" json:"volatility_children,omitempty"`
}

// Network is the acyclic coupling graph of a filter hierarchy. Index 0 is
// the input node (level 1, directly observed). A Network is built once from
// a Config, mutated step by step by the engine, and reset to re-run from the
// prior.
type Network struct {
	Nodes          []Node  `yaml:"nodes" json:"nodes"`
	InputPrecision float64 `yaml:"input_precision" json:"input_precision"`

	predictionOrder []int
	updateOrder     []int
	initial         []Node
}

// NewNetwork builds the node graph described by cfg. It returns a
// configuration error (never a downstream numerical one) when the
// configuration is malformed or the coupling graph is not a DAG.
func NewNetwork(cfg Config) (*Network, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nodes := make([]Node, cfg.Levels)
	for level := 1; level <= cfg.Levels; level++ {
		nodes[level-1] = Node{
			ID:               fmt.Sprintf("x%d", level),
			Level:            level,
			Mu:               cfg.InitialMu[level],
			Pi:               cfg.InitialPi[level],
			MuHat:            cfg.InitialMu[level],
			PiHat:            cfg.InitialPi[level],
			Omega:            cfg.Omega[level],
			Rho:              cfg.Rho[level], // zero drift when absent
			ValueParent:      NoParent,
			VolatilityParent: NoParent,
		}
	}

	edges := cfg.Edges
	if len(edges) == 0 {
		// Default chain: kappa[j] couples level j upward to level j+1.
		for level := 1; level < cfg.Levels; level++ {
			if k, ok := cfg.Kappa[level]; ok {
				edges = append(edges, Edge{
					Child:    level,
					Parent:   level + 1,
					Kind:     CouplingVolatility,
					Strength: NewParam(k),
				})
			}
		}
	}

	for _, e := range edges {
		child := &nodes[e.Child-1]
		parentIdx := e.Parent - 1
		switch e.Kind {
		case CouplingValue:
			if child.ValueParent != NoParent {
				return nil, &ConfigError{
					Field:  fmt.Sprintf("edges (level %d)", e.Child),
					Reason: "multiple value parents for one node are not supported",
				}
			}
			child.ValueParent = parentIdx
			child.Psi = e.Strength.Or(1.0)
			nodes[parentIdx].ValueChildren = append(nodes[parentIdx].ValueChildren, e.Child-1)
		case CouplingVolatility:
			if child.VolatilityParent != NoParent {
				return nil, &ConfigError{
					Field:  fmt.Sprintf("edges (level %d)", e.Child),
					Reason: "multiple volatility parents for one node are not supported",
				}
			}
			strength, ok := cfg.Kappa[e.Child]
			if e.Strength.IsSet() {
				strength, _ = e.Strength.Float()
			} else if !ok {
				return nil, &ConfigError{
					Field:  fmt.Sprintf("kappa[%d]", e.Child),
					Reason: "required for a declared volatility coupling edge",
				}
			}
			child.VolatilityParent = parentIdx
			child.Kappa = strength
			nodes[parentIdx].VolatilityChildren = append(nodes[parentIdx].VolatilityChildren, e.Child-1)
		}
	}

	net := &Network{
		Nodes:          nodes,
		InputPrecision: cfg.InputPrecision,
	}
	if err := net.buildOrders(); err != nil {
		return nil, err
	}
	net.initial = append([]Node(nil), nodes...)
	return net, nil
}

// buildOrders derives the traversal orders from the coupling graph:
// prediction visits parents before children (a child's step size depends on
// its volatility parent's fresh expectation), update visits children before
// parents (prediction errors flow upward).
func (n *Network) buildOrders() error {
	count := len(n.Nodes)

	// Kahn's algorithm over parent -> child edges.
	indegree := make([]int, count)
	for i := range n.Nodes {
		if n.Nodes[i].ValueParent != NoParent {
			indegree[i]++
		}
		if n.Nodes[i].VolatilityParent != NoParent {
			indegree[i]++
		}
	}

	queue := make([]int, 0, count)
	for i := count - 1; i >= 0; i-- {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, count)
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		order = append(order, idx)
		for _, child := range n.Nodes[idx].ValueChildren {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
		for _, child := range n.Nodes[idx].VolatilityChildren {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != count {
		return &ConfigError{Field: "edges", Reason: "coupling graph contains a cycle"}
	}

	n.predictionOrder = order
	n.updateOrder = make([]int, count)
	for i, idx := range order {
		n.updateOrder[count-1-i] = idx
	}
	return nil
}

// PredictionOrder returns node indexes in parent-before-child order.
func (n *Network) PredictionOrder() []int { return n.predictionOrder }

// UpdateOrder returns node indexes in child-before-parent order.
func (n *Network) UpdateOrder() []int { return n.updateOrder }

// Input returns the observed node (level 1).
func (n *Network) Input() *Node { return &n.Nodes[0] }

// Reset restores every node to its configured initial beliefs, discarding
// all filtering state. Traversal orders are structural and survive a reset.
func (n *Network) Reset() {
	copy(n.Nodes, n.initial)
}

// Snapshot captures the current beliefs of every node.
func (n *Network) Snapshot(step int, observed bool, observation, surprise float64) Snapshot {
	beliefs := make([]Belief, len(n.Nodes))
	for i, node := range n.Nodes {
		beliefs[i] = Belief{
			Node:  node.ID,
			Mu:    node.Mu,
			Pi:    node.Pi,
			MuHat: node.MuHat,
			PiHat: node.PiHat,
		}
	}
	return Snapshot{
		Step:        step,
		Observed:    observed,
		Observation: observation,
		Surprise:    surprise,
		Beliefs:     beliefs,
	}
}
