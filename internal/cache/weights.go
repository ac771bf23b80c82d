// Package cache provides a two-tier read-through cache for configured answer
// weights: an in-memory LRU for hot entries backed by an optional shared
// Redis tier.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// WeightCache caches score-config lookups. A cache failure is never an
// error, only a miss; the repository remains the source of truth.
type WeightCache struct {
	memory *lru.Cache[string, int]
	redis  *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// NewWeightCache creates a weight cache. redisClient may be nil, in which
// case only the in-memory tier is used.
func NewWeightCache(redisClient *redis.Client, memorySize int, ttl time.Duration, logger *logrus.Logger) (*WeightCache, error) {
	memory, err := lru.New[string, int](memorySize)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}

	return &WeightCache{
		memory: memory,
		redis:  redisClient,
		ttl:    ttl,
		log:    logger,
	}, nil
}

// Get returns the cached weight for a (question, option) pair.
func (c *WeightCache) Get(ctx context.Context, questionID, optionValue string) (int, bool) {
	key := weightKey(questionID, optionValue)

	if score, ok := c.memory.Get(key); ok {
		return score, true
	}

	if c.redis == nil {
		return 0, false
	}

	score, err := c.redis.Get(ctx, key).Int()
	if err != nil {
		if err != redis.Nil {
			c.log.WithField("key", key).WithError(err).Debug("Redis weight lookup failed")
		}
		return 0, false
	}

	// Promote to the memory tier.
	c.memory.Add(key, score)
	return score, true
}

// Set stores a weight in both tiers.
func (c *WeightCache) Set(ctx context.Context, questionID, optionValue string, score int) {
	key := weightKey(questionID, optionValue)
	c.memory.Add(key, score)

	if c.redis == nil {
		return
	}

	if err := c.redis.Set(ctx, key, score, c.ttl).Err(); err != nil {
		c.log.WithField("key", key).WithError(err).Debug("Redis weight store failed")
	}
}

// Purge clears the in-memory tier. Redis entries expire via TTL.
func (c *WeightCache) Purge() {
	c.memory.Purge()
}

// Len returns the number of entries in the memory tier.
func (c *WeightCache) Len() int {
	return c.memory.Len()
}

func weightKey(questionID, optionValue string) string {
	return fmt.Sprintf("weight:%s:%s", questionID, optionValue)
}
