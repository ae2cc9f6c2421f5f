package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestMaintenanceLockKey(t *testing.T) {
	assert.Equal(t, "wh:maintenance:lock:production", MaintenanceLockKey("production"))
	assert.Equal(t, "wh:maintenance:lock:local", MaintenanceLockKey(""))
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	ctx := context.Background()

	first, err := NewRedisLock(store, MaintenanceLockKey("test"), time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, MaintenanceLockKey("test"), time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// a non-owner release leaves the lock in place
	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, MaintenanceLockKey("test"))

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, store.values["wh:maintenance:lock:test"], "/")
}

func TestRedisLockTTLCoversInterval(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "k", 6*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour, lock.ttl)

	daily, err := NewRedisLock(store, "k", 0)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Hour, daily.ttl)
}

func TestRedisLockDoesNotReleaseReacquiredKey(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	ctx := context.Background()
	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// expired, then taken by another worker
	store.values["k"] = "other-host/123"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "other-host/123", store.values["k"])
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, err := NewRedisLock(store, "k", 0)
	require.NoError(t, err)

	_, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	delete(store.values, "k")
	assert.NoError(t, lock.Release(context.Background()))
}
