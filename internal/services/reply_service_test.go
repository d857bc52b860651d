package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	apperrors "github.com/jeromedesantos12/app-circle/pkg/errors"
)

func newReplyService(t *testing.T) (*ReplyService, *eventRecorder, *testDeps) {
	t.Helper()

	db, store, recorder := newServiceDeps(t)
	svc, err := NewReplyService(db, store, recorder, nil)
	require.NoError(t, err)
	return svc, recorder, &testDeps{db: db, store: store}
}

func TestReplyCreatePublishesRefreshedCount(t *testing.T) {
	svc, recorder, deps := newReplyService(t)
	ctx := context.Background()

	alice := seedUser(t, deps.db, "alice", "alice@example.com")
	bob := seedUser(t, deps.db, "bob", "bob@example.com")
	thread := seedThread(t, deps.db, alice, "root post")

	first, err := svc.Create(ctx, bob.ID, thread.ID, CreateReplyInput{Content: "first!"})
	require.NoError(t, err)
	require.Equal(t, bob.ID, first.User.ID)
	require.Equal(t, thread.ID, first.ThreadID)

	_, err = svc.Create(ctx, alice.ID, thread.ID, CreateReplyInput{Content: "second"})
	require.NoError(t, err)

	event := recorder.Last(t)
	require.Equal(t, realtime.EventReplyCreated, event.Name)
	payload := event.Data.(map[string]any)
	require.Equal(t, thread.ID, payload["thread_id"])
	require.EqualValues(t, 2, payload["total_replies"], "count is re-read after the write")
}

func TestReplyCreateInvalidatesThreadCaches(t *testing.T) {
	svc, _, deps := newReplyService(t)
	ctx := context.Background()

	alice := seedUser(t, deps.db, "alice", "alice@example.com")
	thread := seedThread(t, deps.db, alice, "root post")

	replyKey := cache.ReplyListKey(thread.ID, cache.ListParams{
		Page: 1, Limit: 10, SortBy: "created_at", Order: "desc",
	})
	detailKey := cache.ThreadKey(thread.ID, alice.ID)
	seedCacheKey(t, deps.store, replyKey)
	seedCacheKey(t, deps.store, detailKey)

	_, err := svc.Create(ctx, alice.ID, thread.ID, CreateReplyInput{Content: "hi"})
	require.NoError(t, err)

	require.False(t, cacheHasKey(t, deps.store, replyKey))
	require.False(t, cacheHasKey(t, deps.store, detailKey),
		"thread detail embeds the reply count and must be evicted")
}

func TestReplyCreateOnMissingThread(t *testing.T) {
	svc, recorder, deps := newReplyService(t)
	alice := seedUser(t, deps.db, "alice", "alice@example.com")

	_, err := svc.Create(context.Background(), alice.ID, "missing", CreateReplyInput{Content: "hi"})
	require.Error(t, err)
	require.Empty(t, recorder.Events())
}

func TestReplyListPaginates(t *testing.T) {
	svc, _, deps := newReplyService(t)
	ctx := context.Background()

	alice := seedUser(t, deps.db, "alice", "alice@example.com")
	thread := seedThread(t, deps.db, alice, "root post")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, alice.ID, thread.ID, CreateReplyInput{Content: "reply"})
		require.NoError(t, err)
	}

	items, total, err := svc.List(ctx, thread.ID, cache.ListParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, items, 2)

	items, _, err = svc.List(ctx, thread.ID, cache.ListParams{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestReplyDeleteRequiresOwnership(t *testing.T) {
	svc, recorder, deps := newReplyService(t)
	ctx := context.Background()

	alice := seedUser(t, deps.db, "alice", "alice@example.com")
	bob := seedUser(t, deps.db, "bob", "bob@example.com")
	thread := seedThread(t, deps.db, alice, "root post")

	reply, err := svc.Create(ctx, bob.ID, thread.ID, CreateReplyInput{Content: "mine"})
	require.NoError(t, err)

	err = svc.Delete(ctx, alice.ID, reply.ID)
	require.ErrorIs(t, err, apperrors.ErrNotOwner)

	require.NoError(t, svc.Delete(ctx, bob.ID, reply.ID))

	var count int64
	require.NoError(t, deps.db.Model(&models.Reply{}).Count(&count).Error)
	require.Zero(t, count)

	event := recorder.Last(t)
	require.Equal(t, realtime.EventReplyDeleted, event.Name)
	payload := event.Data.(map[string]any)
	require.Equal(t, reply.ID, payload["id"])
	require.EqualValues(t, 0, payload["total_replies"])
}
