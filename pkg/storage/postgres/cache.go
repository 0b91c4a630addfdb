package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/observability"
)

const (
	cacheTTL = 5 * time.Minute

	// noneSentinel caches "user has no subscription" so repeated anonymous
	// checks do not hammer the database.
	noneSentinel = "none"
)

// Cache is a Redis read-through layer over SubscriptionStore. Every write
// invalidates the user's cache entry before hitting the database, so a
// successful mutation is always followed by a fresh read.
type Cache struct {
	store   *SubscriptionStore
	redis   *redis.Client
	metrics *observability.Metrics
}

// NewCache creates the cache layer. metrics may be nil.
func NewCache(store *SubscriptionStore, redisClient *redis.Client, metrics *observability.Metrics) *Cache {
	return &Cache{store: store, redis: redisClient, metrics: metrics}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("subscription:%s", userID)
}

// CurrentForUser returns the user's most recent subscription, consulting
// Redis first. Cache failures fall through to the database; the cache is an
// optimization, never a source of truth.
func (c *Cache) CurrentForUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	key := cacheKey(userID)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hit()
		if cached == noneSentinel {
			return nil, nil
		}
		var sub billing.Subscription
		if err := json.Unmarshal([]byte(cached), &sub); err == nil {
			return &sub, nil
		}
		// Corrupt entry: drop it and refetch.
		c.redis.Del(ctx, key)
	case errors.Is(err, redis.Nil):
		c.miss()
	default:
		// Redis unavailable: serve from the database.
		c.miss()
	}

	sub, err := c.store.CurrentForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, sub)
	return sub, nil
}

// Insert creates a subscription and invalidates the user's cache entry.
func (c *Cache) Insert(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error) {
	c.redis.Del(ctx, cacheKey(sub.UserID))
	return c.store.Insert(ctx, sub)
}

// UpdatePlan changes the live subscription's plan and invalidates the cache.
func (c *Cache) UpdatePlan(ctx context.Context, userID, planID string) (*billing.Subscription, error) {
	c.redis.Del(ctx, cacheKey(userID))
	return c.store.UpdatePlan(ctx, userID, planID)
}

// Cancel cancels the live subscription and invalidates the cache.
func (c *Cache) Cancel(ctx context.Context, userID string) (*billing.Subscription, error) {
	c.redis.Del(ctx, cacheKey(userID))
	return c.store.Cancel(ctx, userID)
}

// SweepPastDue runs the lapse sweep and flushes all cached entries, since a
// sweep can touch any user.
func (c *Cache) SweepPastDue(ctx context.Context, now time.Time) (int64, int64, error) {
	lapsedActive, lapsedTrials, err := c.store.SweepPastDue(ctx, now)
	if err != nil {
		return lapsedActive, lapsedTrials, err
	}
	if lapsedActive+lapsedTrials > 0 {
		c.flush(ctx)
	}
	return lapsedActive, lapsedTrials, nil
}

func (c *Cache) fill(ctx context.Context, key string, sub *billing.Subscription) {
	if sub == nil {
		c.redis.Set(ctx, key, noneSentinel, cacheTTL)
		return
	}
	if data, err := json.Marshal(sub); err == nil {
		c.redis.Set(ctx, key, data, cacheTTL)
	}
}

func (c *Cache) flush(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, "subscription:*", 0).Iterator()
	for iter.Next(ctx) {
		c.redis.Del(ctx, iter.Val())
	}
}

func (c *Cache) hit() {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
	}
}

func (c *Cache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues("redis").Inc()
	}
}
