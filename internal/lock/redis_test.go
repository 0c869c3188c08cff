package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t)

	lease, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(keyPrefix+"renewal:run"))

	_, ok, err = l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second lock on a held key")

	_, ok, err = l.TryLock(ctx, "other", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists(keyPrefix+"renewal:run"))

	_, ok, err = l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_StaleLeaseKeepsNewHolder(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t)

	stale, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	current, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "expired lease can be taken over")
	token, err := mr.Get(keyPrefix + "renewal:run")
	require.NoError(t, err)

	held, err := stale.Extend(ctx, time.Hour)
	require.NoError(t, err)
	assert.False(t, held)
	require.NoError(t, stale.Release(ctx))

	got, err := mr.Get(keyPrefix + "renewal:run")
	require.NoError(t, err)
	assert.Equal(t, token, got, "new holder's key untouched")
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"renewal:run"))

	require.NoError(t, current.Release(ctx))
	assert.False(t, mr.Exists(keyPrefix+"renewal:run"))
}

func TestRedisLocker_Extend(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t)

	lease, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(45 * time.Second)
	held, err := lease.Extend(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, held)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"renewal:run"))

	mr.FastForward(45 * time.Second)
	_, ok, err = l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "extended lease outlives its first TTL")
}

func TestRedisLocker_Unavailable(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestRedisLocker(t)
	mr.SetError("LOADING redis is loading the dataset in memory")

	_, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.Error(t, err)
	assert.False(t, ok)
}
