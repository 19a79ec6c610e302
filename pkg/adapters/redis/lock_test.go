package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/finecision/finecision/pkg/adapters/redis"
	"github.com/finecision/finecision/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunLockerContract(t, redis.NewLocker(client, "test:"))
}

func TestRedisLocker_Keys(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "app-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:app-1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:app-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_UnlockAfterExpiry(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "app-2", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock2, err := second.Lock(ctx, "app-2", 5*time.Second)
	require.NoError(t, err)

	// A stale holder must not release someone else's lock.
	require.NoError(t, unlock1(ctx))
	assert.True(t, mr.Exists("test:lock:app-2"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("test:lock:app-2"))
}
