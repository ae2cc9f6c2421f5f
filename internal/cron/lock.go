package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	maintenanceLockKeyFormat = "wh:maintenance:lock:%s"
	// lockGrace keeps the lock past one interval so a slow purge is not overlapped.
	lockGrace = time.Hour
)

// Lock keeps maintenance cycles single-flight across cron-worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// MaintenanceLockKey namespaces the lock per environment so staging and
// production workers sharing a Redis do not block each other.
func MaintenanceLockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(maintenanceLockKeyFormat, env)
}

// RedisLock holds a key with SET NX and a TTL. The value names the holder so a
// stuck lock can be traced to a host.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	host   string
	owner  string
}

// NewRedisLock builds a lock that lives for one maintenance interval plus
// lockGrace. A non-positive interval is treated as daily.
func NewRedisLock(client redisStore, key string, interval time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return &RedisLock{client: client, key: key, ttl: interval + lockGrace, host: host}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := l.host + "/" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release deletes the key only while this instance still owns it; an expired
// and re-acquired lock belongs to someone else.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	defer func() { l.owner = "" }()

	holder, err := l.client.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read holder of %s: %w", l.key, err)
	case holder != l.owner:
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
