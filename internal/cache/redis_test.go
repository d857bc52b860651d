package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient(client), mr
}

func TestGetMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	_, found, err := store.Get(context.Background(), "threads:nope")
	require.NoError(t, err)
	require.False(t, found)
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "thread:t1", []byte(`{"id":"t1"}`), time.Minute))

	value, found, err := store.Get(ctx, "thread:t1")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"id":"t1"}`, string(value))
}

func TestExpiredKeyIsAbsent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "thread:t1", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)

	_, found, err := store.Get(ctx, "thread:t1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestDeletePrefixRemovesAllMatches(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// More keys than one SCAN batch to force cursor iteration.
	for i := 0; i < 250; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("users:v1:q:p%d:l10:created_at.desc", i), []byte("page"), time.Minute))
	}
	require.NoError(t, store.Set(ctx, "thread:t1", []byte("keep"), time.Minute))

	removed, err := store.DeletePrefix(ctx, UsersPrefix())
	require.NoError(t, err)
	require.EqualValues(t, 250, removed)

	for i := 0; i < 250; i++ {
		_, found, err := store.Get(ctx, fmt.Sprintf("users:v1:q:p%d:l10:created_at.desc", i))
		require.NoError(t, err)
		require.False(t, found)
	}

	_, found, err := store.Get(ctx, "thread:t1")
	require.NoError(t, err)
	require.True(t, found, "unrelated keys must survive prefix invalidation")
}

func TestDeletePrefixZeroMatches(t *testing.T) {
	store, _ := newTestStore(t)

	removed, err := store.DeletePrefix(context.Background(), "replies:ghost:")
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestIncrementWithTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "rate:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Greater(t, ttl, time.Duration(0))

	count, _, err = store.IncrementWithTTL(ctx, "rate:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// The window is not restarted by subsequent increments.
	mr.FastForward(61 * time.Second)
	count, _, err = store.IncrementWithTTL(ctx, "rate:1.2.3.4", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
