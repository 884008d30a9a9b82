package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Cache is a read-through layer over a ports.Evaluator. Samplers revisit
// parameter vectors (rejected proposals, multiple chains on the same data),
// and a filtering pass is pure: the result for (parameters, observations)
// never changes, so it can be memoized indefinitely.
type Cache struct {
	inner  ports.Evaluator
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ ports.Evaluator = (*Cache)(nil)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheTTL sets the expiration for cached likelihood values.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithCachePrefix sets the key prefix for cached likelihood values.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// NewCache wraps an evaluator with a Redis-backed memo.
func NewCache(client *backend.Client, inner ports.Evaluator, opts ...CacheOption) *Cache {
	cache := &Cache{
		inner:  inner,
		client: client,
		prefix: "canopy:loglik:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// LogLikelihood returns the memoized value when the (parameters,
// observations) pair was evaluated before, and otherwise delegates to the
// wrapped evaluator and stores the result. A cache failure falls back to
// evaluation: the cache is an accelerator, never a correctness dependency.
func (c *Cache) LogLikelihood(ctx context.Context, params domain.ParameterVector, observations []float64) (float64, error) {
	key, err := c.cacheKey(params, observations)
	if err != nil {
		return c.inner.LogLikelihood(ctx, params, observations)
	}

	if val, err := c.client.Get(ctx, key).Result(); err == nil {
		if parsed, perr := strconv.ParseFloat(val, 64); perr == nil {
			return parsed, nil
		}
	}

	result, err := c.inner.LogLikelihood(ctx, params, observations)
	if err != nil {
		return 0, err
	}

	// Best effort: a write failure only costs a future recomputation.
	c.client.Set(ctx, key, strconv.FormatFloat(result, 'g', -1, 64), c.ttl)
	return result, nil
}

// cacheKey hashes the canonical JSON of the inputs. Param encodes absence
// as null, so "fixed" and "free at zero" never collide.
func (c *Cache) cacheKey(params domain.ParameterVector, observations []float64) (string, error) {
	obs := make([]*float64, len(observations))
	for i := range observations {
		if !domain.IsMissing(observations[i]) {
			obs[i] = &observations[i]
		}
	}
	payload, err := json.Marshal(struct {
		Params       domain.ParameterVector `json:"params"`
		Observations []*float64             `json:"observations"`
	}{params, obs})
	if err != nil {
		return "", fmt.Errorf("failed to derive cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return c.prefix + hex.EncodeToString(sum[:]), nil
}
