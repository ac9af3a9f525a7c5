package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewResourceLocker(client, 5*time.Second), mr, client
}

func TestWithLockRunsCriticalSection(t *testing.T) {
	locker, _, _ := newTestLocker(t)

	ran := false
	err := locker.WithLock(context.Background(), "lock:agenda:t1:moema:any:2024-01-10", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLockReleasesAfterwards(t *testing.T) {
	locker, mr, _ := newTestLocker(t)
	key := "lock:agenda:t1:moema:any:2024-01-10"

	err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		assert.True(t, mr.Exists(key), "lock key should be held during the critical section")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key), "lock key should be released on return")

	// And a second acquisition succeeds.
	err = locker.WithLock(context.Background(), key, func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestWithLockContention(t *testing.T) {
	locker, mr, _ := newTestLocker(t)
	key := "lock:agenda:t1:moema:any:2024-01-10"

	// Someone else holds the key.
	require.NoError(t, mr.Set(key, "other-token"))

	err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		t.Fatal("critical section must not run while the lock is held elsewhere")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// The foreign holder's lock survives our failed attempt.
	assert.True(t, mr.Exists(key))
}

func TestWithLockDoesNotReleaseForeignToken(t *testing.T) {
	locker, mr, client := newTestLocker(t)
	key := "lock:agenda:t1:online:any:2024-01-10"

	err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		// Simulate TTL expiry plus takeover by another worker mid-section.
		mr.FastForward(10 * time.Second)
		require.NoError(t, client.Set(ctx, key, "other-token", time.Minute).Err())
		return nil
	})
	require.NoError(t, err)

	// Our deferred release must leave the other holder's lock alone.
	val, err := client.Get(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other-token", val)
}

func TestWithLockPropagatesSectionError(t *testing.T) {
	locker, mr, _ := newTestLocker(t)
	key := "lock:agenda:t1:perdizes:any:2024-01-10"

	sentinel := errors.New("conflict inside section")
	err := locker.WithLock(context.Background(), key, func(ctx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.False(t, mr.Exists(key), "lock is released even when the section fails")
}

func TestNopLocker(t *testing.T) {
	ran := false
	err := NopLocker{}.WithLock(context.Background(), "anything", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
