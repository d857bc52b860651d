package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jeromedesantos12/app-circle/internal/cache"
	"github.com/jeromedesantos12/app-circle/internal/models"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
	"github.com/jeromedesantos12/app-circle/pkg/crypto"
	apperrors "github.com/jeromedesantos12/app-circle/pkg/errors"
)

var userSortColumns = map[string]struct{}{
	"created_at": {},
	"username":   {},
	"full_name":  {},
}

// resetTokenTTL bounds how long a password reset token stays redeemable.
const resetTokenTTL = 15 * time.Minute

// RegisterInput describes the fields accepted at registration. Username is
// derived from the email local part.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

// LoginInput accepts an email or username plus password.
type LoginInput struct {
	Identifier string
	Password   string
}

// UpdateUserInput enumerates mutable profile attributes. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Username     *string
	FullName     *string
	Bio          *string
	Password     *string
	PhotoProfile *string
}

type userListPayload struct {
	Items []RenderedUser `json:"items"`
	Total int64          `json:"total"`
}

// UserService owns accounts and profiles.
type UserService struct {
	db      *gorm.DB
	store   cache.Store
	pub     realtime.Publisher
	storage *uploads.Storage
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB, store cache.Store, pub realtime.Publisher, storage *uploads.Storage) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, store: store, pub: pub, storage: storage}, nil
}

// Register provisions a new account with a hashed password and a derived,
// collision-free username.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	fullName := strings.TrimSpace(input.FullName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if fullName == "" {
		return nil, apperrors.NewBadRequest("Full name is required!")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewBadRequest("A valid email is required!")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("Password must be at least 8 characters!")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	username, err := s.deriveUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		FullName: fullName,
		Email:    email,
		Password: hashed,
	}

	// The account does not exist until this create returns, so created_by is
	// backfilled with the fresh id in the same transaction.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Model(user).
			Updates(map[string]any{"created_by": user.ID, "updated_by": user.ID}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	invalidate(ctx, s.store, cache.UsersPrefix())

	return user, nil
}

// Login verifies the identifier and password, returning the account on success.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	identifier := strings.ToLower(strings.TrimSpace(input.Identifier))
	if identifier == "" || input.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &user, nil
}

// ForgotPassword issues a single-use reset token for the account. The token is
// the caller's to deliver; it expires on its own.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (string, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.NewNotFound("User")
	}
	if err != nil {
		return "", fmt.Errorf("user service: load user: %w", err)
	}

	token, err := crypto.GenerateToken(32)
	if err != nil {
		return "", fmt.Errorf("user service: reset token: %w", err)
	}

	if s.store == nil {
		return "", apperrors.ErrInternalServer
	}
	if err := s.store.Set(ctx, "reset:"+token, []byte(user.ID), resetTokenTTL); err != nil {
		return "", fmt.Errorf("user service: store reset token: %w", err)
	}

	return token, nil
}

// ResetPassword redeems a reset token and replaces the account password. The
// token is consumed whether or not anyone retries.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	ctx = ensureContext(ctx)

	if len(password) < 8 {
		return apperrors.NewBadRequest("Password must be at least 8 characters!")
	}
	if s.store == nil {
		return apperrors.ErrInternalServer
	}

	raw, found, err := s.store.Get(ctx, "reset:"+token)
	if err != nil {
		return fmt.Errorf("user service: load reset token: %w", err)
	}
	if !found {
		return apperrors.NewBadRequest("Reset link is invalid or has expired!")
	}
	userID := string(raw)

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"password": hashed, "updated_by": userID}).Error
	if err != nil {
		return fmt.Errorf("user service: reset password: %w", err)
	}

	// Consume the token. It also expires by TTL, so a failed delete is harmless.
	_, _ = s.store.DeletePrefix(ctx, "reset:"+token)

	return nil
}

// List returns one page of the user directory, searched and annotated for the
// viewer. Read-through cached per viewer and query shape.
func (s *UserService) List(ctx context.Context, viewerID string, params cache.ListParams) ([]RenderedUser, int64, error) {
	ctx = ensureContext(ctx)
	params = normaliseListParams(params, userSortColumns, "created_at")
	params.Search = strings.ToLower(strings.TrimSpace(params.Search))

	key := cache.UserListKey(viewerID, params)
	var payload userListPayload
	if readCache(ctx, s.store, key, "users", &payload) {
		return payload.Items, payload.Total, nil
	}

	countQuery := s.db.WithContext(ctx).Model(&models.User{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		countQuery = countQuery.Where("LOWER(username) LIKE ? OR LOWER(full_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	query := followedUserSelect
	args := []any{viewerID}
	if params.Search != "" {
		query += " WHERE LOWER(u.username) LIKE ? OR LOWER(u.full_name) LIKE ?"
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT ? OFFSET ?", orderClause("u", params))
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	var rows []userRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	items := make([]RenderedUser, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.render())
	}

	writeCache(ctx, s.store, key, userListPayload{Items: items, Total: total})
	return items, total, nil
}

// GetByID returns a single rendered profile.
func (s *UserService) GetByID(ctx context.Context, viewerID, userID string) (*RenderedUser, error) {
	ctx = ensureContext(ctx)

	key := cache.UserKey(userID, viewerID)
	var cached RenderedUser
	if readCache(ctx, s.store, key, "user", &cached) {
		return &cached, nil
	}

	var rows []userRow
	err := s.db.WithContext(ctx).
		Raw(followedUserSelect+" WHERE u.id = ?", viewerID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("user service: render user: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound("User")
	}

	rendered := rows[0].render()
	writeCache(ctx, s.store, key, rendered)
	return &rendered, nil
}

// Update edits the caller's own profile and announces the change.
func (s *UserService) Update(ctx context.Context, userID string, input UpdateUserInput) (*RenderedUser, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFound("User")
	}
	if err != nil {
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	updates := map[string]any{"updated_by": userID}
	if input.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*input.Username))
		if username == "" {
			return nil, apperrors.NewBadRequest("Username cannot be empty!")
		}
		updates["username"] = username
	}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			return nil, apperrors.NewBadRequest("Full name cannot be empty!")
		}
		updates["full_name"] = fullName
	}
	if input.Bio != nil {
		updates["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, apperrors.NewBadRequest("Password must be at least 8 characters!")
		}
		hashed, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("user service: hash password: %w", err)
		}
		updates["password"] = hashed
	}

	oldPhoto := ""
	if input.PhotoProfile != nil {
		oldPhoto = user.PhotoProfile
		updates["photo_profile"] = *input.PhotoProfile
	}

	err = s.db.WithContext(ctx).Model(&user).Updates(updates).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("Username already exists!")
		}
		return nil, fmt.Errorf("user service: update user: %w", err)
	}

	if s.storage != nil && oldPhoto != "" && input.PhotoProfile != nil && oldPhoto != *input.PhotoProfile {
		s.storage.Remove(oldPhoto)
	}

	invalidate(ctx, s.store,
		cache.UsersPrefix(),
		cache.UserPrefix(userID),
		// Rendered threads and replies denormalise the author, so profile edits
		// show up there too.
		cache.ThreadsPrefix(),
		cache.AllThreadDetailsPrefix(),
		cache.AllRepliesPrefix(),
	)

	rendered, err := s.GetByID(ctx, userID, userID)
	if err != nil {
		return nil, err
	}

	publish(s.pub, realtime.Event{
		Name: realtime.EventUserUpdated,
		Data: map[string]any{"user": rendered},
	})

	return rendered, nil
}

// deriveUsername builds a username from the email local part, suffixing a short
// random fragment when the plain form is taken.
func (s *UserService) deriveUsername(ctx context.Context, email string) (string, error) {
	local := email[:strings.Index(email, "@")]

	var builder strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			builder.WriteRune(r)
		}
	}
	base := builder.String()
	if base == "" {
		base = "user"
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("username = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("user service: check username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "_" + uuid.NewString()[:8]
	}

	return "", apperrors.ErrInternalServer
}
