package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Store implements ports.TrajectoryStore using an in-memory map. Safe for
// concurrent use; trajectories are serialized on Save so later mutations by
// the caller cannot leak into the store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the trajectory under runID.
func (s *Store) Save(ctx context.Context, runID string, trajectory *domain.Trajectory) error {
	payload, err := json.Marshal(trajectory)
	if err != nil {
		return fmt.Errorf("failed to marshal trajectory: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = payload
	return nil
}

// Load retrieves the trajectory for runID.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Trajectory, error) {
	s.mu.RLock()
	payload, ok := s.data[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	var trajectory domain.Trajectory
	if err := json.Unmarshal(payload, &trajectory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trajectory: %w", err)
	}
	return &trajectory, nil
}

// Delete removes the trajectory for runID.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}
