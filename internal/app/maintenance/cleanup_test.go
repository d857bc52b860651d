package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeromedesantos12/app-circle/internal/database/testutil"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
)

func newTestStorage(t *testing.T) *uploads.Storage {
	t.Helper()

	storage, err := uploads.NewStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func writeStoredFile(t *testing.T, storage *uploads.Storage, kind uploads.Kind, name string) string {
	t.Helper()

	path := filepath.Join(storage.Root(), string(kind), name)
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	return filepath.ToSlash(filepath.Join(string(kind), name))
}

func TestSweepRemovesOnlyOrphanedUploads(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	storage := newTestStorage(t)

	threadImage := writeStoredFile(t, storage, uploads.KindThread, "kept-thread.png")
	replyImage := writeStoredFile(t, storage, uploads.KindReply, "kept-reply.png")
	photo := writeStoredFile(t, storage, uploads.KindUser, "kept-user.png")
	orphan := writeStoredFile(t, storage, uploads.KindThread, "orphan.png")

	user := models.User{
		Username:     "alice",
		FullName:     "Alice",
		Email:        "alice@example.com",
		Password:     "hash",
		PhotoProfile: photo,
	}
	require.NoError(t, db.Create(&user).Error)

	thread := models.Thread{Content: "hello", Image: &threadImage}
	thread.CreatedBy = user.ID
	require.NoError(t, db.Create(&thread).Error)

	reply := models.Reply{UserID: user.ID, ThreadID: thread.ID, Content: "hi", Image: &replyImage}
	reply.CreatedBy = user.ID
	require.NoError(t, db.Create(&reply).Error)

	cleaner := NewCleaner(db, storage)
	removed, err := cleaner.SweepOrphanedUploads(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	require.NoFileExists(t, filepath.Join(storage.Root(), orphan))
	require.FileExists(t, filepath.Join(storage.Root(), threadImage))
	require.FileExists(t, filepath.Join(storage.Root(), replyImage))
	require.FileExists(t, filepath.Join(storage.Root(), photo))
}

func TestSweepEmptyStorageIsNoop(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	storage := newTestStorage(t)

	cleaner := NewCleaner(db, storage)
	removed, err := cleaner.SweepOrphanedUploads(context.Background())
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestRunOnceAggregatesSweep(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	storage := newTestStorage(t)

	orphan := writeStoredFile(t, storage, uploads.KindReply, "stale.png")

	cleaner := NewCleaner(db, storage)
	require.NoError(t, cleaner.RunOnce(context.Background()))
	require.NoFileExists(t, filepath.Join(storage.Root(), orphan))
}

func TestNewCleanerAppliesOptions(t *testing.T) {
	cleaner := NewCleaner(nil, nil, WithSchedule("*/5 * * * *"))
	require.Equal(t, "*/5 * * * *", cleaner.schedule)
	require.NotNil(t, cleaner.cron)

	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
