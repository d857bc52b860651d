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

// FollowCounts aggregates a user's follow totals.
type FollowCounts struct {
	UserID    string `json:"user_id"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}

// FollowToggleResult reports the outcome of a follow toggle.
type FollowToggleResult struct {
	FollowerID  string        `json:"follower_id"`
	FollowingID string        `json:"following_id"`
	Following   bool          `json:"following"`
	User        *RenderedUser `json:"user"`
}

// followedUserSelect renders a user with follow totals and the viewer's
// is_followed annotation. The first bind argument is the viewer id.
const followedUserSelect = `
SELECT u.id, u.username, u.full_name, u.email, u.photo_profile, u.bio, u.created_at,
       (SELECT COUNT(*) FROM followings f WHERE f.following_id = u.id) AS total_followers,
       (SELECT COUNT(*) FROM followings f WHERE f.follower_id = u.id) AS total_following,
       EXISTS(SELECT 1 FROM followings f WHERE f.following_id = u.id AND f.follower_id = ?) AS is_followed
FROM users u`

// FollowService owns the follow graph.
type FollowService struct {
	db    *gorm.DB
	store cache.Store
	pub   realtime.Publisher
}

// NewFollowService constructs a FollowService instance.
func NewFollowService(db *gorm.DB, store cache.Store, pub realtime.Publisher) (*FollowService, error) {
	if db == nil {
		return nil, errors.New("follow service: db is required")
	}
	return &FollowService{db: db, store: store, pub: pub}, nil
}

// Counts returns a user's follower and following totals.
func (s *FollowService) Counts(ctx context.Context, userID string) (*FollowCounts, error) {
	ctx = ensureContext(ctx)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	counts := &FollowCounts{UserID: userID}

	err := s.db.WithContext(ctx).
		Model(&models.Following{}).
		Where("following_id = ?", userID).
		Count(&counts.Followers).Error
	if err != nil {
		return nil, fmt.Errorf("follow service: count followers: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.Following{}).
		Where("follower_id = ?", userID).
		Count(&counts.Following).Error
	if err != nil {
		return nil, fmt.Errorf("follow service: count following: %w", err)
	}

	return counts, nil
}

// Suggested lists users the subject does not follow yet, most recent first. The
// is_followed annotation is always evaluated against the requesting viewer, even
// when the subject is someone else.
func (s *FollowService) Suggested(ctx context.Context, viewerID, userID string, limit int) ([]RenderedUser, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	query := followedUserSelect + `
WHERE u.id <> ?
  AND u.id NOT IN (SELECT following_id FROM followings WHERE follower_id = ?)
ORDER BY u.created_at DESC LIMIT ?`

	return s.scanUsers(ctx, query, viewerID, userID, userID, limit)
}

// Following lists the users a subject follows, annotated for the viewer.
func (s *FollowService) Following(ctx context.Context, viewerID, userID string) ([]RenderedUser, error) {
	ctx = ensureContext(ctx)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	query := followedUserSelect + `
WHERE u.id IN (SELECT following_id FROM followings WHERE follower_id = ?)
ORDER BY u.created_at DESC`

	return s.scanUsers(ctx, query, viewerID, userID)
}

// Followers lists the users following a subject, annotated for the viewer.
func (s *FollowService) Followers(ctx context.Context, viewerID, userID string) ([]RenderedUser, error) {
	ctx = ensureContext(ctx)

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	query := followedUserSelect + `
WHERE u.id IN (SELECT follower_id FROM followings WHERE following_id = ?)
ORDER BY u.created_at DESC`

	return s.scanUsers(ctx, query, viewerID, userID)
}

// Toggle follows the target if not yet followed, and unfollows otherwise.
// Following yourself is rejected before any write.
func (s *FollowService) Toggle(ctx context.Context, viewerID, targetID string) (*FollowToggleResult, error) {
	ctx = ensureContext(ctx)

	if viewerID == targetID {
		return nil, apperrors.ErrSelfFollow
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	var existing models.Following
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", viewerID, targetID).
		First(&existing).Error

	following := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		edge := &models.Following{FollowerID: viewerID, FollowingID: targetID}
		edge.CreatedBy = viewerID
		edge.UpdatedBy = viewerID
		if err := s.db.WithContext(ctx).Create(edge).Error; err != nil {
			return nil, fmt.Errorf("follow service: create edge: %w", err)
		}
		following = true
	case err != nil:
		return nil, fmt.Errorf("follow service: load edge: %w", err)
	default:
		err := s.db.WithContext(ctx).
			Where("follower_id = ? AND following_id = ?", viewerID, targetID).
			Delete(&models.Following{}).Error
		if err != nil {
			return nil, fmt.Errorf("follow service: delete edge: %w", err)
		}
	}

	users, err := s.scanUsers(ctx, followedUserSelect+" WHERE u.id = ?", viewerID, targetID)
	if err != nil {
		return nil, err
	}
	var target *RenderedUser
	if len(users) > 0 {
		target = &users[0]
	}

	result := &FollowToggleResult{
		FollowerID:  viewerID,
		FollowingID: targetID,
		Following:   following,
		User:        target,
	}

	// A follow edge changes the viewer's feed scope and every user listing.
	invalidate(ctx, s.store,
		cache.UsersPrefix(),
		cache.UserPrefix(targetID),
		cache.ThreadsPrefix(),
	)
	publish(s.pub, realtime.Event{Name: realtime.EventFollowToggled, Data: result})

	return result, nil
}

func (s *FollowService) requireUser(ctx context.Context, userID string) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("follow service: check user: %w", err)
	}
	if count == 0 {
		return apperrors.NewNotFound("User")
	}
	return nil
}

func (s *FollowService) scanUsers(ctx context.Context, query string, args ...any) ([]RenderedUser, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("follow service: render users: %w", err)
	}

	users := make([]RenderedUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.render())
	}
	return users, nil
}
