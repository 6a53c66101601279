// Package ratelimit provides per-client request limiters: an in-process
// token bucket for a single instance and a Redis fixed window shared by
// several instances.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// client holds a per-key rate limiter and the time it was last seen.
// lastSeen lets us evict old entries so the map does not grow forever.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucket gives every key its own golang.org/x/time/rate limiter.
type TokenBucket struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*client
}

// NewTokenBucket creates a limiter allowing rps requests per second with the
// given burst per key.
func NewTokenBucket(rps float64, burst int) (*TokenBucket, error) {
	if rps <= 0 || burst <= 0 {
		return nil, errors.New("rate limiter requires positive rps and burst")
	}
	return &TokenBucket{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*client),
	}, nil
}

// Allow consumes one token for key and reports whether one was available.
func (l *TokenBucket) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.clients[key]
	if !found {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// Sweep removes keys idle for longer than maxIdle.
func (l *TokenBucket) Sweep(maxIdle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.clients {
		if time.Since(c.lastSeen) > maxIdle {
			delete(l.clients, key)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (l *TokenBucket) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep(maxIdle)
		}
	}
}

func (l *TokenBucket) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindow limits requests per key in a fixed time window counted in Redis.
type FixedWindow struct {
	limit  int
	window time.Duration

	redisClient *redis.Client
	redisPrefix string
}

// NewFixedWindow creates a Redis-backed distributed limiter.
func NewFixedWindow(addr, password, prefix string, limit int, window time.Duration) (*FixedWindow, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bookcatalog:ratelimit"
	}
	return &FixedWindow{
		limit:  limit,
		window: window,
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		redisPrefix: prefix,
	}, nil
}

// Allow returns true when the key is within quota.
// On Redis failures it fails closed and returns false.
func (l *FixedWindow) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return true
	}
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.redisPrefix, key, windowSlot)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.redisClient, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return res <= int64(l.limit)
}

// Ping checks that Redis is reachable.
func (l *FixedWindow) Ping(ctx context.Context) error {
	return l.redisClient.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (l *FixedWindow) Close() error {
	return l.redisClient.Close()
}
