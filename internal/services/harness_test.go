package services

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/database/testutil"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/pkg/crypto"
)

// eventRecorder captures published events so tests can assert on fan-out without
// a live hub. onPublish, when set, runs inside Publish for ordering checks.
type eventRecorder struct {
	mu        sync.Mutex
	events    []realtime.Event
	onPublish func(realtime.Event)
}

func (r *eventRecorder) Publish(event realtime.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	hook := r.onPublish
	r.mu.Unlock()

	if hook != nil {
		hook(event)
	}
}

func (r *eventRecorder) Events() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

func (r *eventRecorder) Last(t *testing.T) realtime.Event {
	t.Helper()
	events := r.Events()
	require.NotEmpty(t, events, "expected at least one published event")
	return events[len(events)-1]
}

// testDeps bundles the collaborators behind a service under test.
type testDeps struct {
	db    *gorm.DB
	store cache.Store
}

func newCacheStore(t *testing.T) cache.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisStoreWithClient(client)
}

func newServiceDeps(t *testing.T) (*gorm.DB, cache.Store, *eventRecorder) {
	t.Helper()
	return testutil.MustOpenTestDB(t), newCacheStore(t), &eventRecorder{}
}

func seedUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		FullName: "User " + username,
		Email:    email,
		Password: hashed,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedThread(t *testing.T, db *gorm.DB, author *models.User, content string) *models.Thread {
	t.Helper()

	thread := &models.Thread{Content: content}
	thread.CreatedBy = author.ID
	thread.UpdatedBy = author.ID
	require.NoError(t, db.Create(thread).Error)
	return thread
}

func cacheHasKey(t *testing.T, store cache.Store, key string) bool {
	t.Helper()

	_, found, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return found
}

func seedCacheKey(t *testing.T, store cache.Store, key string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), key, []byte(`{"stale":true}`), cache.DefaultTTL))
}
