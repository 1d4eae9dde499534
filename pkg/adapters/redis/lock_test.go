package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viridien/triage/pkg/adapters/redis"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	// 1. Acquire lock
	unlock, err := locker.Lock(ctx, "thread-1", 5*time.Second)
	assert.NoError(t, err)
	assert.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:thread-1"), "Lock key should be set in Redis")

	// 2. Release lock
	err = unlock(ctx)
	assert.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:thread-1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newTestClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:")
	ctx := context.Background()

	// 1. Holder 1 acquires the lock
	unlock1, err := locker1.Lock(ctx, "thread-1", 5*time.Second)
	assert.NoError(t, err)

	// 2. Holder 2 polls until its context times out
	ctxTimeout, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	_, err = locker2.Lock(ctxTimeout, "thread-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 3. After release, holder 2 succeeds
	assert.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "thread-1", 5*time.Second)
	assert.NoError(t, err)
	defer unlock2(ctx)

	assert.True(t, mr.Exists("test:lock:thread-1"))
}

func TestRedisLocker_UnlockOnlyReleasesOwnLock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "thread-1", 5*time.Second)
	assert.NoError(t, err)

	// Simulate expiry plus takeover by another holder.
	mr.Set("test:lock:thread-1", "someone-else")

	assert.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("test:lock:thread-1"), "unlock must not delete a lock it no longer owns")
}
