package canopy_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
)

// ExampleNew_library demonstrates how to use canopy purely as a Go library,
// defining the hierarchy with pure Go structs and filtering a short series.
func ExampleNew_library() {
	// 1. Describe a two-level hierarchy: an observed random walk whose step
	// size is governed by a slower volatility level above it.
	cfg := domain.Config{
		Levels:    2,
		InitialMu: map[int]float64{1: 0, 2: 1},
		InitialPi: map[int]float64{1: 1, 2: 1},
		Omega:     map[int]float64{1: -3, 2: -3},
		Kappa:     map[int]float64{1: 1},
	}

	// 2. Build the model. A malformed configuration fails here, never mid-run.
	model, err := canopy.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// 3. Filter a series. Use domain.Missing() for gaps in the data.
	observations := []float64{0.4, 0.5, domain.Missing(), 0.35}
	if err := model.Fit(context.Background(), observations); err != nil {
		log.Fatal(err)
	}

	// 4. Inspect the belief trajectory.
	trajectory := model.Trajectory()
	fmt.Println("steps:", trajectory.Len())
	fmt.Println("observed step 2:", trajectory.Steps[2].Observed)
	// Output:
	// steps: 4
	// observed step 2: false
}
