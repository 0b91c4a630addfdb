package httputil

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/observability"
)

// RateLimitConfig controls how many requests a single caller may make in a
// window. Burst allows short spikes above the steady rate.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
	Burst             int
}

// DefaultRateLimitConfig is tuned for subscription lifecycle traffic: callers
// mutate a subscription a handful of times per session, never continuously.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 120,
		WindowDuration:    time.Minute,
		Burst:             20,
	}
}

// Limiter decides whether a caller identified by key may proceed. Remaining
// reports the quota left in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Remaining(ctx context.Context, key string) (int, error)
}

// MemoryLimiter is a token-bucket limiter local to one process. Single-replica
// deployments use it directly; multi-replica deployments want RedisLimiter so
// the quota is shared.
type MemoryLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

func NewMemoryLimiter(config RateLimitConfig) *MemoryLimiter {
	return &MemoryLimiter{
		config:  config,
		buckets: make(map[string]*tokenBucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

func (l *MemoryLimiter) Remaining(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.refill(key).tokens), nil
}

// refill tops up a bucket proportionally to the time since its last refill.
// Callers hold l.mu.
func (l *MemoryLimiter) refill(key string) *tokenBucket {
	max := float64(l.config.RequestsPerWindow + l.config.Burst)
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: max, lastRefill: time.Now()}
		l.buckets[key] = b
		return b
	}

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	b.tokens += elapsed.Seconds() * float64(l.config.RequestsPerWindow) / l.config.WindowDuration.Seconds()
	if b.tokens > max {
		b.tokens = max
	}
	b.lastRefill = now
	return b
}

// Sweep drops buckets idle for more than two windows so the map does not grow
// without bound.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-2 * l.config.WindowDuration)
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// RedisLimiter is a fixed-window limiter shared across replicas through
// redis. Redis failures fail open: a degraded cache must not take the billing
// surface down with it.
type RedisLimiter struct {
	client *redis.Client
	config RateLimitConfig
	prefix string
}

func NewRedisLimiter(client *redis.Client, config RateLimitConfig, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, config: config, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + ":" + key

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit incr: %w", err)
	}

	limit := int64(l.config.RequestsPerWindow + l.config.Burst)
	return incr.Val() <= limit, nil
}

func (l *RedisLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := l.client.Get(ctx, l.prefix+":"+key).Int()
	if err == redis.Nil {
		return l.config.RequestsPerWindow + l.config.Burst, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := l.config.RequestsPerWindow + l.config.Burst - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the window for a key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+":"+key).Err()
}

// RateLimitMiddleware throttles requests per caller: authenticated sessions
// by user ID, anonymous requests by client IP. Limiter errors are logged and
// the request proceeds.
func RateLimitMiddleware(limiter Limiter, config RateLimitConfig, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.WithError(err).Warn("rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				retryAfter := int(config.WindowDuration.Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Remaining", "0")
				WriteErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			if remaining, err := limiter.Remaining(r.Context(), key); err == nil {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if session := auth.FromContext(r.Context()); session != nil {
		return "user:" + session.UserID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
