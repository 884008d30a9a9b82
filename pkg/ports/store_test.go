package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// mapStore is a minimal in-package reference implementation used to keep the
// contract suite itself honest.
type mapStore struct {
	mu   sync.Mutex
	data map[string]*domain.Trajectory
}

func (s *mapStore) Save(ctx context.Context, runID string, trajectory *domain.Trajectory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *trajectory
	clone.Steps = append([]domain.Snapshot(nil), trajectory.Steps...)
	s.data[runID] = &clone
	return nil
}

func (s *mapStore) Load(ctx context.Context, runID string) (*domain.Trajectory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trajectory, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return trajectory, nil
}

func (s *mapStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

func TestContractAcceptsConformingStore(t *testing.T) {
	ports.RunTrajectoryStoreContract(t, &mapStore{data: make(map[string]*domain.Trajectory)})
}
