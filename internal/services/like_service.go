package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	apperrors "github.com/jeromedesantos12/app-circle/pkg/errors"
)

// LikeToggleResult reports the outcome of a like toggle.
type LikeToggleResult struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
	Liked    bool   `json:"liked"`
	Count    int64  `json:"count"`
}

// LikeService toggles likes on threads. The toggle is check-then-act without a
// storage uniqueness constraint, so two concurrent toggles by the same user can
// both insert. The published count is always re-read after the write, which keeps
// clients converged even when that race fires.
type LikeService struct {
	db    *gorm.DB
	store cache.Store
	pub   realtime.Publisher
}

// NewLikeService constructs a LikeService instance.
func NewLikeService(db *gorm.DB, store cache.Store, pub realtime.Publisher) (*LikeService, error) {
	if db == nil {
		return nil, errors.New("like service: db is required")
	}
	return &LikeService{db: db, store: store, pub: pub}, nil
}

// Toggle likes the thread if the caller has not liked it, and unlikes it
// otherwise.
func (s *LikeService) Toggle(ctx context.Context, userID, threadID string) (*LikeToggleResult, error) {
	ctx = ensureContext(ctx)

	var threadCount int64
	err := s.db.WithContext(ctx).
		Model(&models.Thread{}).
		Where("id = ?", threadID).
		Count(&threadCount).Error
	if err != nil {
		return nil, fmt.Errorf("like service: check thread: %w", err)
	}
	if threadCount == 0 {
		return nil, apperrors.NewNotFound("Thread")
	}

	var existing models.Like
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		First(&existing).Error

	liked := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := &models.Like{UserID: userID, ThreadID: threadID}
		like.CreatedBy = userID
		like.UpdatedBy = userID
		if err := s.db.WithContext(ctx).Create(like).Error; err != nil {
			return nil, fmt.Errorf("like service: create like: %w", err)
		}
		liked = true
	case err != nil:
		return nil, fmt.Errorf("like service: load like: %w", err)
	default:
		// Remove every row for the pair so a duplicate left by the toggle race
		// is repaired on the next unlike.
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND thread_id = ?", userID, threadID).
			Delete(&models.Like{}).Error
		if err != nil {
			return nil, fmt.Errorf("like service: delete like: %w", err)
		}
	}

	var count int64
	err = s.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("thread_id = ?", threadID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("like service: count likes: %w", err)
	}

	result := &LikeToggleResult{ThreadID: threadID, UserID: userID, Liked: liked, Count: count}

	// Rendered threads embed like counts and is_liked, so both feed pages and the
	// thread detail go stale on a toggle.
	invalidate(ctx, s.store, cache.ThreadsPrefix(), cache.ThreadPrefix(threadID))
	publish(s.pub, realtime.Event{Name: realtime.EventLikeToggled, Data: result})

	return result, nil
}
