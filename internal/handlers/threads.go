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

// ThreadHandler exposes the thread feed.
type ThreadHandler struct {
	threads *services.ThreadService
	storage *uploads.Storage
}

func NewThreadHandler(threads *services.ThreadService, storage *uploads.Storage) *ThreadHandler {
	return &ThreadHandler{threads: threads, storage: storage}
}

// GET /api/v1/thread
func (h *ThreadHandler) List(c *gin.Context) {
	params := listParamsFromQuery(c)
	items, total, err := h.threads.List(requestContext(c), currentUserID(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, "Threads fetched!", items, &response.Meta{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	})
}

// GET /api/v1/thread/:id
func (h *ThreadHandler) GetByID(c *gin.Context) {
	thread, err := h.threads.GetByID(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Thread fetched!", thread)
}

// POST /api/v1/thread (multipart: content + optional image)
func (h *ThreadHandler) Create(c *gin.Context) {
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
		path, err := h.storage.Save(uploads.KindThread, file)
		if err != nil {
			response.Error(c, err)
			return
		}
		image = &path
	}

	thread, err := h.threads.Create(requestContext(c), currentUserID(c), services.CreateThreadInput{
		Content: content,
		Image:   image,
	})
	if err != nil {
		// The row was never written, so the stored file is an orphan.
		if image != nil && h.storage != nil {
			h.storage.Remove(*image)
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Thread posted!", thread)
}

// DELETE /api/v1/thread/:id
func (h *ThreadHandler) Delete(c *gin.Context) {
	if err := h.threads.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Thread deleted!", nil)
}
