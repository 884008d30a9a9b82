package canopy_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
)

func TestEvaluatorLogLikelihood(t *testing.T) {
	evaluator, err := canopy.NewEvaluator(testConfig())
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	observations := []float64{0.2, 0.5, 0.4}
	first, err := evaluator.LogLikelihood(context.Background(), nil, observations)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	second, err := evaluator.LogLikelihood(context.Background(), nil, observations)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeated evaluation differs: %v vs %v", first, second)
	}

	// The value is the negative total surprise of a plain fit.
	model, err := canopy.New(testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := model.Fit(context.Background(), observations); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if first != -model.Surprise() {
		t.Fatalf("log-likelihood %v, want %v", first, -model.Surprise())
	}
}

func TestEvaluatorParametersChangeTheValue(t *testing.T) {
	evaluator, err := canopy.NewEvaluator(testConfig())
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	observations := []float64{0.2, 0.5, 0.4}
	base, err := evaluator.LogLikelihood(context.Background(), nil, observations)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	shifted, err := evaluator.LogLikelihood(context.Background(),
		domain.ParameterVector{1: {Omega: domain.NewParam(-6)}}, observations)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}
	if base == shifted {
		t.Fatal("changing omega should change the log-likelihood")
	}
}

// Each call builds a fresh network, so concurrent evaluations over different
// parameter vectors never interfere.
func TestEvaluatorConcurrentCalls(t *testing.T) {
	evaluator, err := canopy.NewEvaluator(testConfig())
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	observations := []float64{0.2, 0.5, 0.4, -0.3, 0.1}
	want, err := evaluator.LogLikelihood(context.Background(), nil, observations)
	if err != nil {
		t.Fatalf("LogLikelihood failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]float64, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = evaluator.LogLikelihood(context.Background(), nil, observations)
		}(i)
	}
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("call %d failed: %v", i, errs[i])
		}
		if results[i] != want {
			t.Fatalf("call %d returned %v, want %v", i, results[i], want)
		}
	}
}

func TestEvaluatorPenalty(t *testing.T) {
	// exp(1000) overflows during prediction, a numerical failure.
	exploding := domain.ParameterVector{1: {Omega: domain.NewParam(1000)}}
	observations := []float64{0.2, 0.5}

	strict, err := canopy.NewEvaluator(testConfig())
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	_, err = strict.LogLikelihood(context.Background(), exploding, observations)
	var numErr *domain.NumericalError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalError, got %v", err)
	}

	lenient, err := canopy.NewEvaluator(testConfig(), canopy.WithPenalty(-1e10))
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}
	got, err := lenient.LogLikelihood(context.Background(), exploding, observations)
	if err != nil {
		t.Fatalf("penalized evaluation should not fail: %v", err)
	}
	if got != -1e10 {
		t.Fatalf("expected the penalty value, got %v", got)
	}
}

// The penalty policy covers implausible parameter regions only. A caller
// addressing a level that does not exist is a bug and must stay an error.
func TestEvaluatorPenaltyDoesNotMaskSentinelMisuse(t *testing.T) {
	evaluator, err := canopy.NewEvaluator(testConfig(), canopy.WithPenalty(-1e10))
	if err != nil {
		t.Fatalf("NewEvaluator failed: %v", err)
	}

	_, err = evaluator.LogLikelihood(context.Background(),
		domain.ParameterVector{9: {Omega: domain.NewParam(-1)}}, []float64{0.2})
	var sentErr *domain.SentinelError
	if !errors.As(err, &sentErr) {
		t.Fatalf("expected SentinelError, got %v", err)
	}
}
