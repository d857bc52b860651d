package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/jeromedesantos12/app-circle/internal/auth"
	"github.com/jeromedesantos12/app-circle/internal/middleware"
	"github.com/jeromedesantos12/app-circle/internal/realtime"
	"github.com/jeromedesantos12/app-circle/pkg/errors"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// RealtimeHandler upgrades authenticated clients onto the fan-out hub.
type RealtimeHandler struct {
	hub *realtime.Hub
	jwt *iauth.JWTService
}

func NewRealtimeHandler(hub *realtime.Hub, jwt *iauth.JWTService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, jwt: jwt}
}

// GET /api/v1/ws
// Browsers cannot set headers on a WebSocket dial, so the token may also ride in
// the session cookie or a ?token= query parameter.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
			token = cookie
		}
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	h.hub.Serve(claims.UserID, c.Writer, c.Request)
}
