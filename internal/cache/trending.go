// Package cache provides a Redis-backed read-through cache for the
// trending view. Cache failures degrade to recomputation; the cache is
// never part of the feed correctness contract.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MundoTango/Mundo-Tango-sub013/internal/post"
)

// DefaultTrendingTTL bounds how stale the trending view may get.
const DefaultTrendingTTL = 60 * time.Second

// TrendingCache caches trending post lists in Redis, keyed by limit so
// different view sizes never serve each other's truncated lists.
type TrendingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTrendingCache creates a TrendingCache. A non-positive ttl falls
// back to DefaultTrendingTTL.
func NewTrendingCache(client *redis.Client, ttl time.Duration) *TrendingCache {
	if ttl <= 0 {
		ttl = DefaultTrendingTTL
	}
	return &TrendingCache{
		client: client,
		ttl:    ttl,
	}
}

// key builds the Redis key for a given view size.
func key(limit int) string {
	return fmt.Sprintf("feed:trending:%d", limit)
}

// Get returns the cached trending posts for the given limit, or
// (nil, nil) on a miss.
func (c *TrendingCache) Get(ctx context.Context, limit int) ([]*post.Post, error) {
	data, err := c.client.Get(ctx, key(limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trending cache: %w", err)
	}

	var posts []*post.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decoding trending cache: %w", err)
	}
	return posts, nil
}

// Set stores the trending posts for the given limit with the cache TTL.
func (c *TrendingCache) Set(ctx context.Context, limit int, posts []*post.Post) error {
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encoding trending cache: %w", err)
	}
	if err := c.client.Set(ctx, key(limit), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing trending cache: %w", err)
	}
	return nil
}
