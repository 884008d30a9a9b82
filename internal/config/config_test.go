package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "canopy.yaml", `
levels: 2
initial_mu: {1: 0.0, 2: 1.0}
initial_pi: {1: 1.0, 2: 1.0}
omega: {1: -3.0, 2: -3.0}
kappa: {1: 1.0}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Levels)
	assert.Equal(t, -3.0, cfg.Omega[1])
	assert.Equal(t, 1.0, cfg.Kappa[1])
	assert.Equal(t, domain.DefaultInputPrecision, cfg.InputPrecision,
		"unset input precision should take the default")

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromMap(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		"levels":     2,
		"initial_mu": map[string]any{"1": 0.0, "2": 1.0},
		"initial_pi": map[string]any{"1": 1, "2": 1},
		"omega":      map[string]any{"1": -3.0, "2": -3.0},
		"kappa":      map[string]any{"1": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Levels)
	assert.Equal(t, 1.0, cfg.InitialMu[2])
	require.NoError(t, cfg.Validate())
}

func TestFromMapDecodesEdgeStrength(t *testing.T) {
	cfg, err := config.FromMap(map[string]any{
		"levels":     2,
		"initial_mu": map[string]any{"1": 0.0, "2": 1.0},
		"initial_pi": map[string]any{"1": 1.0, "2": 1.0},
		"omega":      map[string]any{"1": -3.0, "2": -3.0},
		"edges": []map[string]any{
			{"child": 1, "parent": 2, "kind": "volatility", "strength": 0.5},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Edges, 1)
	assert.Equal(t, 0.5, cfg.Edges[0].Strength.Or(0))

	cfg, err = config.FromMap(map[string]any{
		"levels":     2,
		"initial_mu": map[string]any{"1": 0.0, "2": 1.0},
		"initial_pi": map[string]any{"1": 1.0, "2": 1.0},
		"omega":      map[string]any{"1": -3.0, "2": -3.0},
		"edges": []map[string]any{
			{"child": 1, "parent": 2, "kind": "value", "strength": nil},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Edges, 1)
	assert.False(t, cfg.Edges[0].Strength.IsSet(), "null strength should decode as absent")
}

func TestLoadObservations(t *testing.T) {
	path := writeFile(t, "observations.yaml", `
- 0.5
- null
- 0.7
`)

	observations, err := config.LoadObservations(path)
	require.NoError(t, err)
	require.Len(t, observations, 3)
	assert.Equal(t, 0.5, observations[0])
	assert.True(t, domain.IsMissing(observations[1]))
	assert.Equal(t, 0.7, observations[2])
}
