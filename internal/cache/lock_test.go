package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	locker := NewMemoryLocker()
	locker.now = func() time.Time { return now }

	first, err := locker.Acquire(ctx, "employee:1", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "employee:1", first.Key())

	_, err = locker.Acquire(ctx, "employee:1", 10*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Acquire(ctx, "employee:2", 10*time.Second)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, first.Release(ctx))
	second, err := locker.Acquire(ctx, "employee:1", 10*time.Second)
	require.NoError(t, err)

	// a stale holder must not release the lock owned by someone else
	require.NoError(t, first.Release(ctx))
	_, err = locker.Acquire(ctx, "employee:1", 10*time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, second.Release(ctx))
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	locker := NewMemoryLocker()
	locker.now = func() time.Time { return now }

	_, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = locker.Acquire(ctx, "k", time.Second)
	assert.NoError(t, err)
}
