package domain

import "fmt"

// DefaultInputPrecision is the expected precision of the observation noise
// when the configuration leaves it unset.
const DefaultInputPrecision = 1e4

// CouplingKind distinguishes how a parent level shapes its child.
type CouplingKind string

const (
	// CouplingValue: the parent's mean directly shifts the child's mean.
	CouplingValue CouplingKind = "value"
	// CouplingVolatility: the parent's mean modulates the child's step size
	// through an exponential link.
	CouplingVolatility CouplingKind = "volatility"
)

// Edge declares a coupling between two levels of the hierarchy.
type Edge struct {
	Child    int          `yaml:"child" json:"child" mapstructure:"child"`
	Parent   int          `yaml:"parent" json:"parent" mapstructure:"parent"`
	Kind     CouplingKind `yaml:"kind" json:"kind" mapstructure:"kind"`
	Strength Param        `yaml:"strength" json:"strength" mapstructure:"strength"`
}

// Config enumerates the per-level parameters of a filter hierarchy. Maps are
// keyed by level (1 = input level). A level missing from an optional map is
// "not applicable", which is different from a level set to zero.
type Config struct {
	// Levels is the depth of the hierarchy, including the observed level.
	Levels int `yaml:"levels" json:"levels" mapstructure:"levels"`

	// InputPrecision is the precision of the observation noise on level 1.
	// Defaults to DefaultInputPrecision when zero.
	InputPrecision float64 `yaml:"input_precision,omitempty" json:"input_precision,omitempty" mapstructure:"input_precision"`

	InitialMu map[int]float64 `yaml:"initial_mu" json:"initial_mu" mapstructure:"initial_mu"`
	InitialPi map[int]float64 `yaml:"initial_pi" json:"initial_pi" mapstructure:"initial_pi"`
	Omega     map[int]float64 `yaml:"omega" json:"omega" mapstructure:"omega"`

	// Rho is the additive drift per level. Levels without an entry do not
	// drift.
	Rho map[int]float64 `yaml:"rho,omitempty" json:"rho,omitempty" mapstructure:"rho"`

	// Kappa declares the volatility coupling strength between level j and
	// level j+1. An entry for level j therefore requires level j+1 to exist.
	Kappa map[int]float64 `yaml:"kappa,omitempty" json:"kappa,omitempty" mapstructure:"kappa"`

	// Edges optionally declares the coupling graph explicitly. When empty,
	// the graph is the chain implied by Kappa: each entry kappa[j] couples
	// level j to a volatility parent at level j+1.
	Edges []Edge `yaml:"edges,omitempty" json:"edges,omitempty" mapstructure:"edges"`
}

// WithDefaults returns a copy of the configuration with unset scalar fields
// replaced by their documented defaults.
func (c Config) WithDefaults() Config {
	if c.InputPrecision == 0 {
		c.InputPrecision = DefaultInputPrecision
	}
	return c
}

// Validate checks internal consistency. All failures are collected into an
// AggregateError so a caller sees every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Levels < 1 {
		errs = append(errs, &ConfigError{Field: "levels", Reason: fmt.Sprintf("must be a positive integer, got %d", c.Levels)})
		if len(errs) > 0 {
			return &AggregateError{Errors: errs}
		}
	}
	if c.InputPrecision < 0 {
		errs = append(errs, &ConfigError{Field: "input_precision", Reason: fmt.Sprintf("must be positive, got %v", c.InputPrecision)})
	}

	// Every existing level needs its initial beliefs and tonic volatility.
	required := map[string]map[int]float64{
		"initial_mu": c.InitialMu,
		"initial_pi": c.InitialPi,
		"omega":      c.Omega,
	}
	for name, m := range required {
		for level := 1; level <= c.Levels; level++ {
			if _, ok := m[level]; !ok {
				errs = append(errs, &ConfigError{
					Field:  fmt.Sprintf("%s[%d]", name, level),
					Reason: "required for every declared level",
				})
			}
		}
		for level := range m {
			if level < 1 || level > c.Levels {
				errs = append(errs, &ConfigError{
					Field:  fmt.Sprintf("%s[%d]", name, level),
					Reason: fmt.Sprintf("level does not exist in a %d-level hierarchy", c.Levels),
				})
			}
		}
	}

	for level, pi := range c.InitialPi {
		if pi <= 0 {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("initial_pi[%d]", level),
				Reason: fmt.Sprintf("precision must be strictly positive, got %v", pi),
			})
		}
	}

	for level := range c.Rho {
		if level < 1 || level > c.Levels {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("rho[%d]", level),
				Reason: fmt.Sprintf("level does not exist in a %d-level hierarchy", c.Levels),
			})
		}
	}

	// kappa[j] couples level j to a volatility parent at level j+1, so the
	// parent level must be part of the hierarchy.
	for level := range c.Kappa {
		if level < 1 || level+1 > c.Levels {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("kappa[%d]", level),
				Reason: fmt.Sprintf("declares a volatility parent at level %d, absent from a %d-level hierarchy", level+1, c.Levels),
			})
		}
	}

	for i, e := range c.Edges {
		if e.Child < 1 || e.Child > c.Levels {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("edges[%d].child", i),
				Reason: fmt.Sprintf("level %d does not exist in a %d-level hierarchy", e.Child, c.Levels),
			})
		}
		if e.Parent < 1 || e.Parent > c.Levels {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("edges[%d].parent", i),
				Reason: fmt.Sprintf("level %d does not exist in a %d-level hierarchy", e.Parent, c.Levels),
			})
		}
		if e.Child == e.Parent {
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("edges[%d]", i),
				Reason: "a level cannot be coupled to itself",
			})
		}
		switch e.Kind {
		case CouplingValue, CouplingVolatility:
		default:
			errs = append(errs, &ConfigError{
				Field:  fmt.Sprintf("edges[%d].kind", i),
				Reason: fmt.Sprintf("unknown coupling kind %q", e.Kind),
			})
		}
		if e.Kind == CouplingVolatility && !e.Strength.IsSet() {
			if _, ok := c.Kappa[e.Child]; !ok {
				errs = append(errs, &ConfigError{
					Field:  fmt.Sprintf("edges[%d].strength", i),
					Reason: "volatility coupling requires a strength (or a kappa entry for the child level)",
				})
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// LevelParams names the free parameters of one level in a parameter vector.
// Absent fields stay at their configured (fixed) values.
type LevelParams struct {
	Omega Param `yaml:"omega" json:"omega" mapstructure:"omega"`
	Rho   Param `yaml:"rho" json:"rho" mapstructure:"rho"`
	Kappa Param `yaml:"kappa" json:"kappa" mapstructure:"kappa"`
	Mu    Param `yaml:"mu" json:"mu" mapstructure:"mu"`
	Pi    Param `yaml:"pi" json:"pi" mapstructure:"pi"`
}

// ParameterVector maps level identifiers to their free parameters. It is the
// flat vector an external sampler mutates between likelihood calls.
type ParameterVector map[int]LevelParams

// Merge overlays a parameter vector on the configuration and returns the
// resulting configuration. The receiver is not modified; maps are deep
// copied so merged configurations never share mutable state. Referring to a
// level outside the hierarchy is a SentinelError.
func (c Config) Merge(pv ParameterVector) (Config, error) {
	merged := c
	merged.InitialMu = copyLevelMap(c.InitialMu)
	merged.InitialPi = copyLevelMap(c.InitialPi)
	merged.Omega = copyLevelMap(c.Omega)
	merged.Rho = copyLevelMap(c.Rho)
	merged.Kappa = copyLevelMap(c.Kappa)
	merged.Edges = append([]Edge(nil), c.Edges...)

	for level, lp := range pv {
		if level < 1 || level > c.Levels {
			return Config{}, &SentinelError{Param: fmt.Sprintf("level %d", level)}
		}
		if lp.Omega.IsSet() {
			v, _ := lp.Omega.Float()
			merged.Omega[level] = v
		}
		if lp.Rho.IsSet() {
			v, _ := lp.Rho.Float()
			merged.Rho[level] = v
		}
		if lp.Kappa.IsSet() {
			if level+1 > c.Levels {
				return Config{}, &SentinelError{Param: fmt.Sprintf("kappa[%d]", level)}
			}
			v, _ := lp.Kappa.Float()
			merged.Kappa[level] = v
		}
		if lp.Mu.IsSet() {
			v, _ := lp.Mu.Float()
			merged.InitialMu[level] = v
		}
		if lp.Pi.IsSet() {
			v, _ := lp.Pi.Float()
			merged.InitialPi[level] = v
		}
	}
	return merged, nil
}

func copyLevelMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
