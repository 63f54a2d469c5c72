package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease keeps replicas from scanning at the same time.
type Lease interface {
	// Acquire reports false when another holder owns the lease.
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

const DefaultLeaseKey = "reminders:scan:lease"

type RedisLease struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLease expires the lease after ttl so a crashed holder cannot block scans.
func NewRedisLease(rdb redis.Cmdable, key string, ttl time.Duration) *RedisLease {
	if key == "" {
		key = DefaultLeaseKey
	}
	if ttl <= 0 {
		ttl = 4 * time.Minute
	}
	return &RedisLease{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisLease) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.rdb, []string{l.key}, token).Err()
	}
	return release, true, nil
}
