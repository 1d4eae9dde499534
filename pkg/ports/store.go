package ports

import (
	"context"

	"github.com/viridien/triage/pkg/domain"
)

// StateStore persists conversation state per thread. This is what makes the
// suspend/resume protocol durable: the snapshot saved here, together with
// State.PendingStep, is everything needed to resume after a restart.
type StateStore interface {
	// Save persists the state for a given thread id.
	Save(ctx context.Context, threadID string, state *domain.State) error

	// Load retrieves the state for a given thread id.
	// Returns domain.ErrThreadNotFound if the thread does not exist.
	Load(ctx context.Context, threadID string) (*domain.State, error)

	// Delete removes the state for a given thread id.
	Delete(ctx context.Context, threadID string) error

	// List returns the ids of all stored threads.
	List(ctx context.Context) ([]string, error)
}
