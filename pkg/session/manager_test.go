package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viridien/triage/pkg/adapters/memory"
	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
	"github.com/viridien/triage/pkg/session"
)

func TestManager_LoadOrStart(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	// First call initializes and persists a fresh state.
	state, err := m.LoadOrStart(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Empty(t, state.Messages)

	// The id is reserved: a direct Load now succeeds.
	loaded, err := m.Load(ctx, "t1")
	require.NoError(t, err)
	assert.NotNil(t, loaded)
}

func TestManager_LoadMissing(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	_, err := m.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}

func TestManager_SaveDeleteList(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	state := domain.NewState()
	state.OrderID = "ORD1001"
	require.NoError(t, m.Save(ctx, "t1", state))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "t1")

	require.NoError(t, m.Delete(ctx, "t1"))
	_, err = m.Load(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)
}

func TestManager_WithLockSerializesPerThread(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	var mu sync.Mutex
	running := 0
	maxRunning := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "same-thread", func(ctx context.Context) error {
				mu.Lock()
				running++
				if running > maxRunning {
					maxRunning = running
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxRunning, "executions on one thread must never overlap")
}

func TestManager_WithLockAllowsDifferentThreads(t *testing.T) {
	m := session.NewManager(memory.NewStore())
	ctx := context.Background()

	release := make(chan struct{})
	acquired := make(chan struct{})

	go func() {
		_ = m.WithLock(ctx, "a", func(ctx context.Context) error {
			close(acquired)
			<-release
			return nil
		})
	}()
	<-acquired

	// A different thread id is not blocked by the held lock.
	done := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "b", func(ctx context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on thread a blocked thread b")
	}
	close(release)
}

// recordingLocker records distributed lock activity.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.unlocked = append(l.unlocked, key)
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	m := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	err := m.WithLock(context.Background(), "t1", func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, locker.locked)
	assert.Equal(t, []string{"t1"}, locker.unlocked)
}
