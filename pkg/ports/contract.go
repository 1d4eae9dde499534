package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viridien/triage/pkg/domain"
)

// RunStateStoreContract verifies that a StateStore implementation adheres to
// the interface contract. Adapter tests call this against their store.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	threadID := "contract-test-thread-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState()
		state.TicketText = "refund please, order ORD1001"
		state.OrderID = "ORD1001"
		state.IssueType = "refund_request"
		state.Scenario = domain.ScenarioReply
		state.PendingStep = domain.StepAdminReview
		state.Messages = append(state.Messages, domain.Message{Role: domain.RoleUser, Content: "refund please"})

		err := store.Save(ctx, threadID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.OrderID, loaded.OrderID)
		assert.Equal(t, state.IssueType, loaded.IssueType)
		assert.Equal(t, domain.StepAdminReview, loaded.PendingStep)
		require.Len(t, loaded.Messages, 1)
		assert.Equal(t, domain.RoleUser, loaded.Messages[0].Role)
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		loaded.Messages = append(loaded.Messages, domain.Message{Role: domain.RoleAgent, Content: "mutated"})
		loaded.OrderID = "ORD9999"

		again, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, "ORD1001", again.OrderID, "mutating a loaded state must not affect the store")
		assert.Len(t, again.Messages, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, threadID, domain.NewState())
		require.NoError(t, err)

		err = store.Delete(ctx, threadID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound, "Load after Delete should return ErrThreadNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		_ = store.Save(ctx, id1, domain.NewState())
		_ = store.Save(ctx, id2, domain.NewState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})
}
