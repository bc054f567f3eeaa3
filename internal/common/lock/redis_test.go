package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, "review:", time.Minute), mr
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	locker, mr := newMiniredisLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, "review:app-1", lease.Key)
	assert.True(t, mr.Exists("review:app-1"))
	assert.Equal(t, time.Minute, mr.TTL("review:app-1"))

	_, err = locker.Acquire(ctx, "app-1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	other, err := locker.Acquire(ctx, "app-2")
	require.NoError(t, err)

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("review:app-1"))
	assert.True(t, mr.Exists("review:app-2"))

	_, err = locker.Acquire(ctx, "app-1")
	assert.NoError(t, err)
	require.NoError(t, other.Release(ctx))
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	locker, mr := newMiniredisLocker(t)
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "app-1")
	require.NoError(t, err)

	// Lease expired and somebody else took the lock.
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("review:app-1", "someone-else"))

	require.NoError(t, lease.Release(ctx))
	got, err := mr.Get("review:app-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_BackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	locker := NewRedisLocker(client, "review:", 30*time.Second)
	locker.newToken = func() string { return "token-1" }

	mock.ExpectSetNX("review:app-1", "token-1", 30*time.Second).SetErr(errors.New("connection refused"))
	_, err := locker.Acquire(context.Background(), "app-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectSetNX("review:app-1", "token-1", 30*time.Second).SetVal(false)
	_, err = locker.Acquire(context.Background(), "app-1")
	assert.ErrorIs(t, err, ErrNotAcquired)

	assert.NoError(t, mock.ExpectationsWereMet())
}
