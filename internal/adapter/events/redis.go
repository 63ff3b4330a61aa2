package events

import (
	"context"
	"fmt"

	"tuichain-backend/internal/domain/events"

	"github.com/redis/go-redis/v9"
)

// RedisStream appends events to a Redis stream, trimmed to roughly MaxLen
// entries.
type RedisStream struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

var _ events.Publisher = (*RedisStream)(nil)

func NewRedisStream(rdb *redis.Client, stream string, maxLen int64) *RedisStream {
	if stream == "" {
		stream = "tuichain:events"
	}
	return &RedisStream{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (r *RedisStream) Publish(ctx context.Context, e events.Event) error {
	b, err := encode(e)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{"type": string(e.Type), "event": string(b)},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	if err := r.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis stream %s: %w", r.stream, err)
	}
	return nil
}
