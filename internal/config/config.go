package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Load reads a model configuration from a YAML file. The file layout
// mirrors domain.Config:
//
//	levels: 2
//	input_precision: 10000
//	initial_mu: {1: 0.0, 2: 0.0}
//	initial_pi: {1: 1.0, 2: 1.0}
//	omega: {1: -3.0, 2: -3.0}
//	kappa: {1: 1.0}
func Load(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// FromMap decodes a generic map (e.g. a JSON body or a tool argument) into a
// configuration. Level keys may arrive as strings; decoding is weakly typed
// to absorb that.
func FromMap(raw map[string]any) (domain.Config, error) {
	var cfg domain.Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       paramHook,
	})
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return domain.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// paramHook teaches mapstructure about the tagged-absence Param type:
// nil decodes to "not applicable", numbers decode to a set parameter.
func paramHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(domain.Param{}) {
		return data, nil
	}
	if data == nil {
		return domain.Param{}, nil
	}
	switch v := data.(type) {
	case float64:
		return domain.NewParam(v), nil
	case float32:
		return domain.NewParam(float64(v)), nil
	case int:
		return domain.NewParam(float64(v)), nil
	case int64:
		return domain.NewParam(float64(v)), nil
	default:
		return nil, fmt.Errorf("cannot decode %T into a parameter", data)
	}
}

// LoadObservations reads an observation sequence from a YAML file: a list
// of scalars where null (or ~) marks a missing observation.
func LoadObservations(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations: %w", err)
	}
	var raw []*float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse observations: %w", err)
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = domain.Missing()
		} else {
			out[i] = *v
		}
	}
	return out, nil
}
