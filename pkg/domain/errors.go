package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID cannot be found in a store.
var ErrRunNotFound = errors.New("run not found")

// ConfigError represents a single configuration failure. It is raised at
// construction time, never mid-run, and is not retried.
type ConfigError struct {
	Field  string // Offending field, e.g. "initial_pi[2]"
	Reason string // Human-readable reason for failure
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid configuration: field %q: %s", e.Field, e.Reason)
}

// AggregateError represents multiple configuration failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d configuration errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ConfigErrors returns all underlying errors if err is an AggregateError.
// Otherwise returns nil.
func ConfigErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// NumericalError signals that a belief became invalid during filtering: a
// posterior or predicted precision dropped to or below zero, or a surprise
// value stopped being finite. The run is aborted at the offending step since
// every later step would depend on a corrupt prior.
type NumericalError struct {
	Step     int     // Step index of the failure
	Node     string  // Node identity, e.g. "x2"
	Quantity string  // Which quantity went bad, e.g. "pi"
	Value    float64 // The offending value
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error at step %d, node %s: %s = %v", e.Step, e.Node, e.Quantity, e.Value)
}

// SentinelError signals that an equation path tried to read a not-applicable
// parameter as a number. This indicates a level-depth mismatch between the
// configuration and the coupling graph.
type SentinelError struct {
	Param string // Optional name of the dereferenced parameter
}

func (e *SentinelError) Error() string {
	if e.Param == "" {
		return "dereferenced a not-applicable parameter"
	}
	return fmt.Sprintf("dereferenced not-applicable parameter %q", e.Param)
}
