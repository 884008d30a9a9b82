package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TrajectoryStore defines the interface for persisting completed filtering
// runs, so downstream consumers (plotting, response-function agents) can
// fetch belief trajectories without re-running the filter.
type TrajectoryStore interface {
	// Save persists the trajectory under a run ID.
	Save(ctx context.Context, runID string, trajectory *domain.Trajectory) error

	// Load retrieves the trajectory for a run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Trajectory, error)

	// Delete removes the trajectory for a run ID.
	Delete(ctx context.Context, runID string) error
}
