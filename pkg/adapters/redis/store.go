package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.TrajectoryStore using Redis, so completed runs can
// be shared between processes (e.g. a filtering service and a plotting
// host).
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration for stored trajectories.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored trajectories.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "canopy:run:",
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying connection, so a likelihood Cache can share
// it instead of dialing twice.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(runID string) string {
	return s.prefix + runID
}

// Save persists the trajectory to Redis.
func (s *Store) Save(ctx context.Context, runID string, trajectory *domain.Trajectory) error {
	payload, err := json.Marshal(trajectory)
	if err != nil {
		return fmt.Errorf("failed to marshal trajectory: %w", err)
	}
	if err := s.client.Set(ctx, s.key(runID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the trajectory from Redis.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Trajectory, error) {
	val, err := s.client.Get(ctx, s.key(runID)).Result()
	if err != nil {
		if err == backend.Nil {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	var trajectory domain.Trajectory
	if err := json.Unmarshal([]byte(val), &trajectory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trajectory: %w", err)
	}
	return &trajectory, nil
}

// Delete removes the trajectory from Redis.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, s.key(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}
