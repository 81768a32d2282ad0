package kafka

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// AttemptTracker 记录任务失败次数。
type AttemptTracker interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// attemptsTTL 是失败计数的保留时间。
const attemptsTTL = 24 * time.Hour

type redisAttemptTracker struct {
	rdb *redis.Client
}

// NewRedisAttemptTracker 使用 Redis 计数器记录失败次数。
func NewRedisAttemptTracker(rdb *redis.Client) AttemptTracker {
	return &redisAttemptTracker{rdb: rdb}
}

func (t *redisAttemptTracker) Incr(ctx context.Context, key string) (int64, error) {
	n, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = t.rdb.Expire(ctx, key, attemptsTTL).Err()
	return n, nil
}

func (t *redisAttemptTracker) Reset(ctx context.Context, key string) error {
	return t.rdb.Del(ctx, key).Err()
}
