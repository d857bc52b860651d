package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/jeromedesantos12/app-circle/internal/auth"
	"github.com/jeromedesantos12/app-circle/internal/middleware"
	"github.com/jeromedesantos12/app-circle/internal/services"
	"github.com/jeromedesantos12/app-circle/pkg/errors"
	"github.com/jeromedesantos12/app-circle/pkg/response"
)

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Domain string
	Secure bool
}

// AuthHandler manages the session lifecycle (register/login/logout/verify) and
// the password reset flow.
type AuthHandler struct {
	users  *services.UserService
	jwt    *iauth.JWTService
	cookie CookieConfig
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, cookie: cookie}
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /api/v1/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Register success!", user)
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// POST /api/v1/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Login(requestContext(c), services.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID:       user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		Email:        user.Email,
		PhotoProfile: user.PhotoProfile,
		Bio:          user.Bio,
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	h.setSessionCookie(c, token, int(h.jwt.TTL().Seconds()))

	response.Success(c, http.StatusOK, "Login success!", gin.H{"user": user})
}

// POST /api/v1/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, "Logout success!", nil)
}

// GET /api/v1/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, "Token is valid!", gin.H{
		"id":            claims.UserID,
		"username":      claims.Username,
		"full_name":     claims.FullName,
		"email":         claims.Email,
		"photo_profile": claims.PhotoProfile,
		"bio":           claims.Bio,
	})
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/v1/forgot
func (h *AuthHandler) Forgot(c *gin.Context) {
	var req forgotRequest
	if !bindAndValidate(c, &req) {
		return
	}

	token, err := h.users.ForgotPassword(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Delivery is the client's concern; there is no mailer behind this API.
	response.Success(c, http.StatusOK, "Reset token issued!", gin.H{"token": token})
}

type resetRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// PUT /api/v1/reset/:id (the path parameter is the reset token)
func (h *AuthHandler) Reset(c *gin.Context) {
	var req resetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.ResetPassword(requestContext(c), c.Param("id"), req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Password has been reset!", nil)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
