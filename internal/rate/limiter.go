// Package rate provides a Redis-backed fixed-window rate limiter keyed by
// client IP, used to throttle the public signup endpoint.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/waitlist-service/internal/pkg/logger"
)

// incrWindowScript increments the counter for the current window and stamps
// the TTL only on the first hit, so the window does not slide on every
// request. Returns the post-increment count.
const incrWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`

// Limiter allows up to Limit requests per key per Window. When Redis is
// unreachable the limiter fails open: signup availability wins over
// throttling accuracy.
type Limiter struct {
	client *redis.Client
	script *redis.Script
	limit  int64
	window time.Duration
	prefix string
}

// NewLimiter creates a fixed-window limiter. A nil client disables limiting
// entirely (every Allow call succeeds).
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		script: redis.NewScript(incrWindowScript),
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:signup",
	}
}

// Allow reports whether the request identified by key (normally the client
// IP) is within the window's budget.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l.client == nil {
		return true
	}

	bucket := time.Now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)

	count, err := l.script.Run(ctx, l.client,
		[]string{redisKey}, int(l.window.Seconds())).Int64()
	if err != nil {
		logger.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
		return true
	}
	return count <= l.limit
}
