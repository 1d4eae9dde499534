package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc
}

// Manager serializes turn execution per thread id, guaranteeing at most one
// in-flight execution per thread. It uses reference counting to garbage
// collect unused locks, and optionally a distributed locker to extend the
// guarantee across replicas.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new thread session manager over the given store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock entry.mu, and call release(threadID) after unlocking.
func (m *Manager) acquire(threadID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		entry = &lockEntry{}
		m.locks[threadID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[threadID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, threadID)
	}
}

// Load retrieves an existing thread state from the store.
func (m *Manager) Load(ctx context.Context, threadID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, threadID)
		return err
	})
	return state, err
}

// LoadOrStart tries to load a thread. If not found, it initializes a fresh
// state and persists it immediately to reserve the id.
func (m *Manager) LoadOrStart(ctx context.Context, threadID string) (*domain.State, error) {
	var state *domain.State
	err := m.WithLock(ctx, threadID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, threadID)
		if err == nil {
			return nil
		}

		if err != domain.ErrThreadNotFound {
			return fmt.Errorf("failed to check thread existence: %w", err)
		}

		state = domain.NewState()
		if err := m.store.Save(ctx, threadID, state); err != nil {
			return fmt.Errorf("failed to initialize thread: %w", err)
		}
		return nil
	})
	return state, err
}

// Save persists the thread state.
func (m *Manager) Save(ctx context.Context, threadID string, state *domain.State) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Save(ctx, threadID, state)
	})
}

// Delete removes the thread from the store.
func (m *Manager) Delete(ctx context.Context, threadID string) error {
	return m.WithLock(ctx, threadID, func(ctx context.Context) error {
		return m.store.Delete(ctx, threadID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes fn while holding the lock for the thread.
func (m *Manager) WithLock(ctx context.Context, threadID string, fn func(context.Context) error) error {
	entry := m.acquire(threadID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(threadID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, threadID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"thread_id", threadID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
