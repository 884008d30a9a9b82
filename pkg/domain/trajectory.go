package domain

import (
	"encoding/json"
	"math"
)

// Missing returns the marker for a missing observation. A missing step
// still advances time (beliefs widen) but applies no correction.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-observation marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Belief is one node's sufficient statistics at one step.
type Belief struct {
	Node  string  `yaml:"node" json:"node"`
	Mu    float64 `yaml:"mu" json:"mu"`
	Pi    float64 `yaml:"pi" json:"pi"`
	MuHat float64 `yaml:"muhat" json:"muhat"`
	PiHat float64 `yaml:"pihat" json:"pihat"`
}

// Snapshot is the state of every node after one prediction/update cycle.
type Snapshot struct {
	Step        int
	Observed    bool
	Observation float64 // NaN when the step was missing
	Surprise    float64 // zero for missing steps
	Beliefs     []Belief
}

// snapshotJSON is the wire form of a Snapshot: a missing observation is
// encoded as null because JSON has no NaN.
type snapshotJSON struct {
	Step        int      `json:"step"`
	Observed    bool     `json:"observed"`
	Observation *float64 `json:"observation"`
	Surprise    float64  `json:"surprise"`
	Beliefs     []Belief `json:"beliefs"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		Step:     s.Step,
		Observed: s.Observed,
		Surprise: s.Surprise,
		Beliefs:  s.Beliefs,
	}
	if s.Observed {
		obs := s.Observation
		out.Observation = &obs
	}
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Step = in.Step
	s.Observed = in.Observed
	s.Surprise = in.Surprise
	s.Beliefs = in.Beliefs
	if in.Observation != nil {
		s.Observation = *in.Observation
	} else {
		s.Observation = Missing()
	}
	return nil
}

// Trajectory is the ordered, append-only record of one filtering run. It is
// handed to the caller as an immutable sequence once the run completes.
type Trajectory struct {
	Steps         []Snapshot `json:"steps"`
	TotalSurprise float64    `json:"total_surprise"`
}

// Len returns the number of recorded steps.
func (t *Trajectory) Len() int { return len(t.Steps) }

// Mu returns the posterior mean series for a node across all steps.
func (t *Trajectory) Mu(nodeID string) []float64 {
	return t.series(nodeID, func(b Belief) float64 { return b.Mu })
}

// Pi returns the posterior precision series for a node across all steps.
func (t *Trajectory) Pi(nodeID string) []float64 {
	return t.series(nodeID, func(b Belief) float64 { return b.Pi })
}

// Surprises returns the per-step surprise series.
func (t *Trajectory) Surprises() []float64 {
	out := make([]float64, len(t.Steps))
	for i, s := range t.Steps {
		out[i] = s.Surprise
	}
	return out
}

func (t *Trajectory) series(nodeID string, pick func(Belief) float64) []float64 {
	out := make([]float64, 0, len(t.Steps))
	for _, s := range t.Steps {
		for _, b := range s.Beliefs {
			if b.Node == nodeID {
				out = append(out, pick(b))
				break
			}
		}
	}
	return out
}
