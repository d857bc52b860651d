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

var replySortColumns = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
}

const replySelect = `
SELECT r.id, r.thread_id, r.content, r.image, r.created_at,
       u.id AS user_id, u.username, u.full_name, u.photo_profile
FROM replies r
JOIN users u ON u.id = r.user_id`

// CreateReplyInput describes the fields accepted when replying to a thread.
type CreateReplyInput struct {
	Content string
	Image   *string
}

type replyListPayload struct {
	Items []RenderedReply `json:"items"`
	Total int64           `json:"total"`
}

// ReplyService owns replies beneath threads.
type ReplyService struct {
	db      *gorm.DB
	store   cache.Store
	pub     realtime.Publisher
	storage *uploads.Storage
}

// NewReplyService constructs a ReplyService instance.
func NewReplyService(db *gorm.DB, store cache.Store, pub realtime.Publisher, storage *uploads.Storage) (*ReplyService, error) {
	if db == nil {
		return nil, errors.New("reply service: db is required")
	}
	return &ReplyService{db: db, store: store, pub: pub, storage: storage}, nil
}

// List returns one page of a thread's replies, read-through cached per thread and
// query shape. Replies carry no viewer-specific annotations, so the key is shared.
func (s *ReplyService) List(ctx context.Context, threadID string, params cache.ListParams) ([]RenderedReply, int64, error) {
	ctx = ensureContext(ctx)
	params = normaliseListParams(params, replySortColumns, "created_at")

	key := cache.ReplyListKey(threadID, params)
	var payload replyListPayload
	if readCache(ctx, s.store, key, "replies", &payload) {
		return payload.Items, payload.Total, nil
	}

	if err := s.requireThread(ctx, threadID); err != nil {
		return nil, 0, err
	}

	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("thread_id = ?", threadID).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("reply service: count replies: %w", err)
	}

	query := fmt.Sprintf("%s WHERE r.thread_id = ? ORDER BY %s LIMIT ? OFFSET ?",
		replySelect, orderClause("r", params))

	var rows []replyRow
	err = s.db.WithContext(ctx).
		Raw(query, threadID, params.Limit, (params.Page-1)*params.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("reply service: list replies: %w", err)
	}

	items := make([]RenderedReply, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.render())
	}

	writeCache(ctx, s.store, key, replyListPayload{Items: items, Total: total})
	return items, total, nil
}

// Create posts a reply under a thread and announces it with the refreshed count.
func (s *ReplyService) Create(ctx context.Context, userID, threadID string, input CreateReplyInput) (*RenderedReply, error) {
	ctx = ensureContext(ctx)

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewBadRequest("Content is required!")
	}

	if err := s.requireThread(ctx, threadID); err != nil {
		return nil, err
	}

	reply := &models.Reply{UserID: userID, ThreadID: threadID, Content: content, Image: input.Image}
	reply.CreatedBy = userID
	reply.UpdatedBy = userID

	if err := s.db.WithContext(ctx).Create(reply).Error; err != nil {
		return nil, fmt.Errorf("reply service: create reply: %w", err)
	}

	rendered, err := s.renderOne(ctx, reply.ID)
	if err != nil {
		return nil, err
	}

	total, err := s.countReplies(ctx, threadID)
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.store,
		cache.RepliesPrefix(threadID),
		cache.ThreadsPrefix(),
		cache.ThreadPrefix(threadID),
	)
	publish(s.pub, realtime.Event{
		Name: realtime.EventReplyCreated,
		Data: map[string]any{
			"reply":         rendered,
			"thread_id":     threadID,
			"total_replies": total,
		},
	})

	return rendered, nil
}

// Delete removes a reply the caller owns.
func (s *ReplyService) Delete(ctx context.Context, userID, replyID string) error {
	ctx = ensureContext(ctx)

	var reply models.Reply
	err := s.db.WithContext(ctx).First(&reply, "id = ?", replyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFound("Reply")
	}
	if err != nil {
		return fmt.Errorf("reply service: load reply: %w", err)
	}

	if reply.UserID != userID {
		return apperrors.ErrNotOwner
	}

	if err := s.db.WithContext(ctx).Delete(&models.Reply{}, "id = ?", replyID).Error; err != nil {
		return fmt.Errorf("reply service: delete reply: %w", err)
	}

	if s.storage != nil && reply.Image != nil {
		s.storage.Remove(*reply.Image)
	}

	total, err := s.countReplies(ctx, reply.ThreadID)
	if err != nil {
		return err
	}

	invalidate(ctx, s.store,
		cache.RepliesPrefix(reply.ThreadID),
		cache.ThreadsPrefix(),
		cache.ThreadPrefix(reply.ThreadID),
	)
	publish(s.pub, realtime.Event{
		Name: realtime.EventReplyDeleted,
		Data: map[string]any{
			"id":            replyID,
			"thread_id":     reply.ThreadID,
			"total_replies": total,
		},
	})

	return nil
}

func (s *ReplyService) requireThread(ctx context.Context, threadID string) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id = ?", threadID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("reply service: check thread: %w", err)
	}
	if count == 0 {
		return apperrors.NewNotFound("Thread")
	}
	return nil
}

func (s *ReplyService) countReplies(ctx context.Context, threadID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("thread_id = ?", threadID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("reply service: count replies: %w", err)
	}
	return total, nil
}

func (s *ReplyService) renderOne(ctx context.Context, replyID string) (*RenderedReply, error) {
	var rows []replyRow
	err := s.db.WithContext(ctx).
		Raw(replySelect+" WHERE r.id = ?", replyID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reply service: render reply: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound("Reply")
	}

	rendered := rows[0].render()
	return &rendered, nil
}
