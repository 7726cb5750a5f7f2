package sigrate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// tokenBucketScript mirrors the single-bucket token-bucket algorithm,
// executed atomically so concurrent collector instances sharing one Redis
// backend converge on the same rate for a given factor source kind.
//
// KEYS[1]   = bucket key
// ARGV[1]   = refill rate (tokens/sec)
// ARGV[2]   = capacity
// ARGV[3]   = current unix time (float seconds)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)

return allowed
`)

// RedisLimiter paces calls across every collector process sharing client,
// polling the bucket at a fixed interval until a token is available or ctx
// expires.
type RedisLimiter struct {
	client   *redis.Client
	rps      float64
	capacity float64
	poll     time.Duration
}

// NewRedisLimiter builds a distributed limiter allowing rps tokens per
// second per kind, with the given bucket capacity.
func NewRedisLimiter(client *redis.Client, rps, capacity float64) *RedisLimiter {
	return &RedisLimiter{client: client, rps: rps, capacity: capacity, poll: 50 * time.Millisecond}
}

// Wait blocks, polling the shared bucket, until kind may proceed or ctx is
// cancelled.
func (l *RedisLimiter) Wait(ctx context.Context, kind factor.Kind) error {
	key := fmt.Sprintf("sigrate:%s", kind.String())
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		allowed, err := l.tryAcquire(ctx, key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLimiter) tryAcquire(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	res, err := tokenBucketScript.Run(ctx, l.client, []string{key}, l.rps, l.capacity, now).Int64()
	if err != nil {
		return false, fmt.Errorf("sigrate: redis token bucket: %w", err)
	}
	return res == 1, nil
}
