package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	lease, ok, err := l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "renewal:run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second lock on a held key")

	_, ok, _ = l.TryLock(ctx, "other", time.Minute)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx))

	_, ok, _ = l.TryLock(ctx, "renewal:run", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	stale, ok, _ := l.TryLock(ctx, "renewal:run", 20*time.Millisecond)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok, _ = l.TryLock(ctx, "renewal:run", time.Minute)
	require.True(t, ok, "expired lease can be taken over")

	// the stale lease must not free or extend the new holder's lock
	held, err := stale.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, stale.Release(ctx))
	_, ok, _ = l.TryLock(ctx, "renewal:run", time.Minute)
	assert.False(t, ok)
}

func TestMemoryLocker_Extend(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	lease, ok, _ := l.TryLock(ctx, "renewal:run", 40*time.Millisecond)
	require.True(t, ok)

	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		held, err := lease.Extend(ctx, 40*time.Millisecond)
		require.NoError(t, err)
		require.True(t, held)
	}

	// well past the original TTL the key is still taken
	_, ok, _ = l.TryLock(ctx, "renewal:run", time.Minute)
	assert.False(t, ok)

	require.NoError(t, lease.Release(ctx))
	held, err := lease.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, held, "released lease cannot be extended")
}
