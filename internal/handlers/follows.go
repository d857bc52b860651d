package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeromedesantos12/app-circle/internal/services"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// FollowHandler exposes the follow graph.
type FollowHandler struct {
	follows *services.FollowService
}

func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// GET /api/v1/follow/:id/count
func (h *FollowHandler) Counts(c *gin.Context) {
	counts, err := h.follows.Counts(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Follow counts fetched!", counts)
}

// GET /api/v1/follows/:id (suggestions for the subject; annotated for the session user)
func (h *FollowHandler) Suggested(c *gin.Context) {
	users, err := h.follows.Suggested(requestContext(c), currentUserID(c), c.Param("id"), parseIntQuery(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Suggested users fetched!", users)
}

// GET /api/v1/following/:id
func (h *FollowHandler) Following(c *gin.Context) {
	users, err := h.follows.Following(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Following fetched!", users)
}

// GET /api/v1/followers/:id
func (h *FollowHandler) Followers(c *gin.Context) {
	users, err := h.follows.Followers(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Followers fetched!", users)
}

// POST /api/v1/follow/:id
func (h *FollowHandler) Toggle(c *gin.Context) {
	result, err := h.follows.Toggle(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	message := "User unfollowed!"
	if result.Following {
		message = "User followed!"
	}
	response.Success(c, http.StatusOK, message, result)
}
