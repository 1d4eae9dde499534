package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viridien/triage/pkg/adapters/redis"
	"github.com/viridien/triage/pkg/domain"
	"github.com/viridien/triage/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newTestClient(t)
	store := redis.NewFromClient(client)
	ports.RunStateStoreContract(t, store)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	state := domain.NewState()
	state.OrderID = "ORD1001"
	require.NoError(t, store.Save(ctx, "t1", state))

	// Fast-forward past the TTL; both the key and the index entry go away.
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)

	threads, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, threads, "t1", "expired threads must be pruned from the index")
}

func TestRedisStore_CustomPrefix(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("other:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "t1", domain.NewState()))
	assert.True(t, mr.Exists("other:t1"))
}
