package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, Locker) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, NewRedisLocker(rdb, ttl)
}

func TestWithLockAcquiresAndReleases(t *testing.T) {
	mr, locker := newTestLocker(t, 30*time.Second)

	ran := false
	err := locker.WithLock(context.Background(), "sweep", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:sweep"))
		assert.Greater(t, mr.TTL("lock:sweep"), time.Duration(0))
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:sweep"))
}

func TestWithLockContention(t *testing.T) {
	_, locker := newTestLocker(t, 30*time.Second)

	err := locker.WithLock(context.Background(), "sweep", func(ctx context.Context) error {
		inner := locker.WithLock(ctx, "sweep", func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)

		// other names are independent
		return locker.WithLock(ctx, "other", func(context.Context) error { return nil })
	})
	require.NoError(t, err)

	// released, so the next caller gets it
	require.NoError(t, locker.WithLock(context.Background(), "sweep", func(context.Context) error { return nil }))
}

func TestWithLockReleasesOnlyOwnKey(t *testing.T) {
	mr, locker := newTestLocker(t, 30*time.Second)

	err := locker.WithLock(context.Background(), "sweep", func(context.Context) error {
		// the lease ran out and another replica took the lock
		require.NoError(t, mr.Set("lock:sweep", "another-owner"))
		return nil
	})
	require.NoError(t, err)

	got, err := mr.Get("lock:sweep")
	require.NoError(t, err)
	assert.Equal(t, "another-owner", got)
}

func TestWithLockReturnsCallbackError(t *testing.T) {
	mr, locker := newTestLocker(t, 30*time.Second)
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), "sweep", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:sweep"))
}

func TestWithLockRedisDown(t *testing.T) {
	mr, locker := newTestLocker(t, 30*time.Second)
	mr.Close()

	err := locker.WithLock(context.Background(), "sweep", func(context.Context) error {
		t.Fatal("must not run without the lock")
		return nil
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
}

func TestNoopLockerRunsCallback(t *testing.T) {
	ran := false
	require.NoError(t, NoopLocker().WithLock(context.Background(), "sweep", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}
