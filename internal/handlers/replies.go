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

// ReplyHandler exposes replies beneath threads.
type ReplyHandler struct {
	replies *services.ReplyService
	storage *uploads.Storage
}

func NewReplyHandler(replies *services.ReplyService, storage *uploads.Storage) *ReplyHandler {
	return &ReplyHandler{replies: replies, storage: storage}
}

// GET /api/v1/thread/:id/reply
func (h *ReplyHandler) List(c *gin.Context) {
	params := listParamsFromQuery(c)
	items, total, err := h.replies.List(requestContext(c), c.Param("id"), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Replies fetched!", items, &response.Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	})
}

// POST /api/v1/thread/:id/reply (multipart: content + optional image)
func (h *ReplyHandler) Create(c *gin.Context) {
	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		response.Error(c, errors.NewBadRequest("Content is required!"))
		return
	}

	var image *string
	if file, err := c.FormFile("image"); err == nil && file != nil {
		if h.storage == nil {
			response.Error(c, errors.ErrInternalServer)
			return
		}
		path, err := h.storage.Save(uploads.KindReply, file)
		if err != nil {
			response.Error(c, err)
			return
		}
		image = &path
	}

	reply, err := h.replies.Create(requestContext(c), currentUserID(c), c.Param("id"), services.CreateReplyInput{
		Content: content,
		Image:   image,
	})
	if err != nil {
		if image != nil && h.storage != nil {
			h.storage.Remove(*image)
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Reply posted!", reply)
}

// DELETE /api/v1/reply/:id
func (h *ReplyHandler) Delete(c *gin.Context) {
	if err := h.replies.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Reply deleted!", nil)
}
