package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	iauth "github.com/jeromedesantos12/app-circle/internal/auth"
	"github.com/jeromedesantos12/app-circle/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id placed by the auth middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// currentClaims returns the full session claims, or nil outside an authed route.
func currentClaims(c *gin.Context) *iauth.Claims {
	value, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*iauth.Claims)
	if !ok {
		return nil
	}
	return claims
}
