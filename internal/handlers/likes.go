package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromedesantos12/app-circle/internal/services"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// LikeHandler toggles likes on threads.
type LikeHandler struct {
	likes *services.LikeService
}

func NewLikeHandler(likes *services.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// POST /api/v1/like/:id
func (h *LikeHandler) Toggle(c *gin.Context) {
	result, err := h.likes.Toggle(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "Thread unliked!"
	if result.Liked {
		message = "Thread liked!"
	}
	response.Success(c, http.StatusOK, message, result)
}
