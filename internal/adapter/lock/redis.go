package lock

import (
	"context"
	"errors"
	"time"

	domain "tuichain-backend/internal/domain/lock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "tuichain:lock:"
	retryBackoff = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implements lock.Locker with SET NX PX and a token-checked release,
// so locks are shared by every API instance using the same Redis.
type Redis struct {
	rdb     *redis.Client
	maxWait time.Duration
}

var _ domain.Locker = (*Redis)(nil)

func NewRedis(rdb *redis.Client, maxWait time.Duration) *Redis {
	return &Redis{rdb: rdb, maxWait: maxWait}
}

func (l *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	full := keyPrefix + key

	ctx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.rdb, []string{full}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, domain.ErrNotAcquired
		case <-time.After(retryBackoff):
		}
	}
}
