package domain

import (
	"encoding/json"
	"testing"
)

func TestSnapshotJSONMissingObservation(t *testing.T) {
	s := Snapshot{
		Step:        3,
		Observed:    false,
		Observation: Missing(),
		Beliefs:     []Belief{{Node: "x1", Mu: 0.1, Pi: 1.2}},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Observed {
		t.Fatal("missing step decoded as observed")
	}
	if !IsMissing(decoded.Observation) {
		t.Fatalf("missing observation decoded as %v", decoded.Observation)
	}
}

func TestTrajectorySeries(t *testing.T) {
	tr := Trajectory{Steps: []Snapshot{
		{Step: 0, Surprise: 1.0, Beliefs: []Belief{{Node: "x1", Mu: 0.1, Pi: 2}, {Node: "x2", Mu: 1, Pi: 1}}},
		{Step: 1, Surprise: 0.5, Beliefs: []Belief{{Node: "x1", Mu: 0.2, Pi: 3}, {Node: "x2", Mu: 1.1, Pi: 1}}},
	}}

	mu := tr.Mu("x1")
	if len(mu) != 2 || mu[0] != 0.1 || mu[1] != 0.2 {
		t.Fatalf("unexpected mu series: %v", mu)
	}
	pi := tr.Pi("x1")
	if len(pi) != 2 || pi[1] != 3 {
		t.Fatalf("unexpected pi series: %v", pi)
	}
	if s := tr.Surprises(); len(s) != 2 || s[0] != 1.0 {
		t.Fatalf("unexpected surprise series: %v", s)
	}
	if got := tr.Mu("nope"); len(got) != 0 {
		t.Fatalf("unknown node should yield an empty series, got %v", got)
	}
}
