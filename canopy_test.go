package canopy_test

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
)

func testConfig() domain.Config {
	return domain.Config{
		Levels:    2,
		InitialMu: map[int]float64{1: 0, 2: 1},
		InitialPi: map[int]float64{1: 1, 2: 1},
		Omega:     map[int]float64{1: -2, 2: -2},
		Kappa:     map[int]float64{1: 1},
	}
}

func TestNewRejectsMalformedConfig(t *testing.T) {
	_, err := canopy.New(domain.Config{Levels: -1})
	if err == nil {
		t.Fatal("expected an error for a malformed configuration")
	}
}

func TestModelFit(t *testing.T) {
	model, err := canopy.New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if model.Fitted() {
		t.Fatal("model claims to be fitted before Fit")
	}

	observations := []float64{0.2, 0.5, domain.Missing(), 0.4}
	if err := model.Fit(context.Background(), observations); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if !model.Fitted() {
		t.Fatal("Fitted should report true after Fit")
	}
	trajectory := model.Trajectory()
	if trajectory.Len() != len(observations) {
		t.Fatalf("expected %d steps, got %d", len(observations), trajectory.Len())
	}
	if model.Surprise() != trajectory.TotalSurprise {
		t.Fatalf("Surprise %v disagrees with trajectory %v", model.Surprise(), trajectory.TotalSurprise)
	}
	if math.IsNaN(model.Surprise()) || math.IsInf(model.Surprise(), 0) {
		t.Fatalf("surprise is not finite: %v", model.Surprise())
	}
}

// Fit resets the network first, so refitting the same data reproduces the
// same trajectory instead of compounding on stale beliefs.
func TestModelFitIsRepeatable(t *testing.T) {
	model, err := canopy.New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	observations := []float64{0.3, -0.1, 0.8}
	if err := model.Fit(context.Background(), observations); err != nil {
		t.Fatalf("first Fit failed: %v", err)
	}
	first := model.Trajectory()

	if err := model.Fit(context.Background(), observations); err != nil {
		t.Fatalf("second Fit failed: %v", err)
	}
	second := model.Trajectory()

	if !reflect.DeepEqual(first, second) {
		t.Fatal("refitting the same observations changed the trajectory")
	}
}

func TestModelFitPersistsTrajectory(t *testing.T) {
	store := memory.New()
	model, err := canopy.New(testConfig(),
		canopy.WithStore(store),
		canopy.WithRunID("session-7"),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := model.Fit(context.Background(), []float64{0.1, 0.2}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	loaded, err := store.Load(context.Background(), "session-7")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.TotalSurprise != model.Surprise() {
		t.Fatalf("persisted surprise %v, want %v", loaded.TotalSurprise, model.Surprise())
	}
}
