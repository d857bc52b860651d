package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jeromedesantos12/app-circle/internal/services"
	"github.com/jeromedesantos12/app-circle/internal/uploads"
	"github.com/jeromedesantos12/app-circle/pkg/errors"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// UserHandler exposes the user directory and profile editing.
type UserHandler struct {
	users   *services.UserService
	storage *uploads.Storage
}

func NewUserHandler(users *services.UserService, storage *uploads.Storage) *UserHandler {
	return &UserHandler{users: users, storage: storage}
}

// GET /api/v1/user
func (h *UserHandler) List(c *gin.Context) {
	params := listParamsFromQuery(c)
	items, total, err := h.users.List(requestContext(c), currentUserID(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Users fetched!", items, &response.Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	})
}

// GET /api/v1/user/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "User fetched!", user)
}

// PUT /api/v1/user/:id (multipart; self-only)
func (h *UserHandler) Update(c *gin.Context) {
	userID := currentUserID(c)
	if c.Param("id") != userID {
		response.Error(c, errors.ErrForbidden)
		return
	}

	input := services.UpdateUserInput{}
	if value, ok := c.GetPostForm("username"); ok {
		input.Username = &value
	}
	if value, ok := c.GetPostForm("full_name"); ok {
		input.FullName = &value
	}
	if value, ok := c.GetPostForm("bio"); ok {
		input.Bio = &value
	}
	if value, ok := c.GetPostForm("password"); ok && strings.TrimSpace(value) != "" {
		input.Password = &value
	}

	var savedPhoto string
	if file, err := c.FormFile("photo_profile"); err == nil && file != nil {
		if h.storage == nil {
			response.Error(c, errors.ErrInternalServer)
			return
		}
		path, err := h.storage.Save(uploads.KindUser, file)
		if err != nil {
			response.Error(c, err)
			return
		}
		savedPhoto = path
		input.PhotoProfile = &savedPhoto
	}

	user, err := h.users.Update(requestContext(c), userID, input)
	if err != nil {
		if savedPhoto != "" && h.storage != nil {
			h.storage.Remove(savedPhoto)
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile updated!", user)
}
