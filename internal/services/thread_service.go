package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
	apperrors "github.com/jeromedesantos12/app-circle/pkg/errors"
)

var threadSortColumns = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
}

// threadSelect renders a thread with its author joined and counts computed at
// read time. The first bind argument is the viewer id for is_liked.
const threadSelect = `
SELECT t.id, t.content, t.image, t.created_at,
       u.id AS user_id, u.username, u.full_name, u.photo_profile,
       (SELECT COUNT(*) FROM replies r WHERE r.thread_id = t.id) AS total_replies,
       (SELECT COUNT(*) FROM likes l WHERE l.thread_id = t.id) AS total_likes,
       EXISTS(SELECT 1 FROM likes l WHERE l.thread_id = t.id AND l.user_id = ?) AS is_liked
FROM threads t
JOIN users u ON u.id = t.created_by`

// CreateThreadInput describes the fields accepted when posting a thread.
type CreateThreadInput struct {
	Content string
	Image   *string
}

type threadListPayload struct {
	Items []RenderedThread `json:"items"`
	Total int64            `json:"total"`
}

// ThreadService owns the thread feed. Every mutation writes to the store first,
// then invalidates the affected cache prefixes, then publishes its event.
type ThreadService struct {
	db      *gorm.DB
	store   cache.Store
	pub     realtime.Publisher
	storage *uploads.Storage
}

// NewThreadService constructs a ThreadService instance.
func NewThreadService(db *gorm.DB, store cache.Store, pub realtime.Publisher, storage *uploads.Storage) (*ThreadService, error) {
	if db == nil {
		return nil, errors.New("thread service: db is required")
	}
	return &ThreadService{db: db, store: store, pub: pub, storage: storage}, nil
}

// List returns one page of the viewer's feed: their own threads plus threads by
// authors they follow. Read-through cached per viewer and query shape.
func (s *ThreadService) List(ctx context.Context, viewerID string, params cache.ListParams) ([]RenderedThread, int64, error) {
	ctx = ensureContext(ctx)
	params = normaliseListParams(params, threadSortColumns, "created_at")

	key := cache.ThreadListKey(viewerID, params)
	var payload threadListPayload
	if readCache(ctx, s.store, key, "threads", &payload) {
		return payload.Items, payload.Total, nil
	}

	feedScope := `t.created_by = ? OR t.created_by IN (SELECT following_id FROM followings WHERE follower_id = ?)`

	var total int64
	err := s.db.WithContext(ctx).
		Table("threads t").
		Where(feedScope, viewerID, viewerID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("thread service: count feed: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		threadSelect, feedScope, orderClause("t", params))

	var rows []threadRow
	err = s.db.WithContext(ctx).
		Raw(query, viewerID, viewerID, viewerID, params.Limit, (params.Page-1)*params.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("thread service: list feed: %w", err)
	}

	items := make([]RenderedThread, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.render())
	}

	writeCache(ctx, s.store, key, threadListPayload{Items: items, Total: total})
	return items, total, nil
}

// GetByID returns a single rendered thread.
func (s *ThreadService) GetByID(ctx context.Context, viewerID, threadID string) (*RenderedThread, error) {
	ctx = ensureContext(ctx)

	key := cache.ThreadKey(threadID, viewerID)
	var cached RenderedThread
	if readCache(ctx, s.store, key, "thread", &cached) {
		return &cached, nil
	}

	rendered, err := s.renderOne(ctx, viewerID, threadID)
	if err != nil {
		return nil, err
	}

	writeCache(ctx, s.store, key, rendered)
	return rendered, nil
}

// Create posts a new thread and announces it to connected clients.
func (s *ThreadService) Create(ctx context.Context, userID string, input CreateThreadInput) (*RenderedThread, error) {
	ctx = ensureContext(ctx)

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewBadRequest("Content is required!")
	}

	thread := &models.Thread{Content: content, Image: input.Image}
	thread.CreatedBy = userID
	thread.UpdatedBy = userID

	if err := s.db.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, fmt.Errorf("thread service: create thread: %w", err)
	}

	rendered, err := s.renderOne(ctx, userID, thread.ID)
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.store, cache.ThreadsPrefix())
	publish(s.pub, realtime.Event{Name: realtime.EventThreadCreated, Data: rendered})

	return rendered, nil
}

// Delete removes a thread the caller owns, together with its likes and replies,
// in a single transaction. Upload files go afterwards on a best-effort basis.
func (s *ThreadService) Delete(ctx context.Context, userID, threadID string) error {
	ctx = ensureContext(ctx)

	var thread models.Thread
	err := s.db.WithContext(ctx).First(&thread, "id = ?", threadID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFound("Thread")
	}
	if err != nil {
		return fmt.Errorf("thread service: load thread: %w", err)
	}

	if thread.CreatedBy != userID {
		return apperrors.ErrNotOwner
	}

	// Collect reply images before the rows disappear.
	var replyImages []string
	err = s.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("thread_id = ? AND image IS NOT NULL", threadID).
		Pluck("image", &replyImages).Error
	if err != nil {
		return fmt.Errorf("thread service: collect reply images: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Thread{}, "id = ?", threadID).Error
	})
	if err != nil {
		return fmt.Errorf("thread service: delete thread: %w", err)
	}

	if s.storage != nil {
		if thread.Image != nil {
			s.storage.Remove(*thread.Image)
		}
		for _, image := range replyImages {
			s.storage.Remove(image)
		}
	}

	invalidate(ctx, s.store,
		cache.ThreadsPrefix(),
		cache.ThreadPrefix(threadID),
		cache.RepliesPrefix(threadID),
	)
	publish(s.pub, realtime.Event{
		Name: realtime.EventThreadDeleted,
		Data: map[string]any{"id": threadID},
	})

	return nil
}

func (s *ThreadService) renderOne(ctx context.Context, viewerID, threadID string) (*RenderedThread, error) {
	var rows []threadRow
	err := s.db.WithContext(ctx).
		Raw(threadSelect+" WHERE t.id = ?", viewerID, threadID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("thread service: render thread: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound("Thread")
	}

	rendered := rows[0].render()
	return &rendered, nil
}
