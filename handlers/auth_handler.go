package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supabase-community/supabase-go"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/logger"
)

// AuthHandler proxies token refresh to the hosted identity provider. All
// credential handling stays inside Supabase; this backend never sees
// passwords.
type AuthHandler struct {
	supabase *supabase.Client
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(supabaseClient *supabase.Client) *AuthHandler {
	return &AuthHandler{supabase: supabaseClient}
}

// RefreshTokenHandler handles POST /v1/auth/refresh.
func (h *AuthHandler) RefreshTokenHandler(c *gin.Context) {
	log := logger.GetLogger()

	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_request", "Invalid request format"))
		return
	}

	session, err := h.supabase.Auth.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Warnw("Failed to refresh token", "error", err)
		_ = c.Error(apperrors.Unauthenticated("Failed to refresh token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"expires_in":    session.ExpiresIn,
		"token_type":    "bearer",
	})
}
