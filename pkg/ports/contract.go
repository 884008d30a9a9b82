package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTrajectoryStoreContract runs a suite of tests to verify that a
// TrajectoryStore implementation adheres to the defined interface contract.
func RunTrajectoryStoreContract(t *testing.T, store TrajectoryStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	trajectory := &domain.Trajectory{
		TotalSurprise: 2.5,
		Steps: []domain.Snapshot{
			{
				Step:        0,
				Observed:    true,
				Observation: 0.5,
				Surprise:    1.5,
				Beliefs: []domain.Belief{
					{Node: "x1", Mu: 0.4, Pi: 1.2, MuHat: 0.0, PiHat: 0.9},
					{Node: "x2", Mu: -0.1, Pi: 0.8, MuHat: 0.0, PiHat: 0.7},
				},
			},
			{
				Step:        1,
				Observed:    false,
				Observation: domain.Missing(),
				Surprise:    0,
				Beliefs: []domain.Belief{
					{Node: "x1", Mu: 0.4, Pi: 1.1, MuHat: 0.4, PiHat: 1.1},
					{Node: "x2", Mu: -0.1, Pi: 0.75, MuHat: -0.1, PiHat: 0.75},
				},
			},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, runID, trajectory)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		require.Equal(t, trajectory.Len(), loaded.Len())
		assert.Equal(t, trajectory.TotalSurprise, loaded.TotalSurprise)
		assert.Equal(t, trajectory.Steps[0].Beliefs, loaded.Steps[0].Beliefs)

		// Missing steps must round-trip as missing, not as zero.
		assert.False(t, loaded.Steps[1].Observed)
		assert.True(t, domain.IsMissing(loaded.Steps[1].Observation))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, trajectory)
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})
}
