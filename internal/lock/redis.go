// Package lock provides a Redis-backed submission guard so that only one sale
// per terminal is in flight even when several processes serve the terminal.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Second

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisGuard builds the guard. ttl must outlive the longest submission;
// a crashed holder frees the terminal once it expires.
func NewRedisGuard(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisGuard{client: client, ttl: ttl, log: log}
}

func (g *RedisGuard) Acquire(ctx context.Context, terminalID int64, token string) (func(), error) {
	key := lockKey(terminalID)
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return nil, checkout.ErrCheckoutInProgress
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
			g.log.Warn("failed to release submission lock",
				zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func lockKey(terminalID int64) string {
	return fmt.Sprintf("pos:checkout:terminal:%d", terminalID)
}
