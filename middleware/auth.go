package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/quienpaga/quienpaga-backend/config"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/types"
)

// AuthMiddleware validates the Supabase-issued Bearer token and stores the
// caller's identity in the gin context. Requests without a usable identity
// are rejected before reaching any handler.
func AuthMiddleware(cfg *config.SupabaseConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger()

		var token string
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			log.Warnw("No token provided in request", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization required",
			})
			return
		}

		user, err := validateSupabaseToken(token, cfg.JWTSecret)
		if err != nil {
			log.Warnw("Invalid JWT token",
				"error", err,
				"path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		log.Debugw("Authentication successful",
			"userID", user.ID,
			"email", logger.MaskEmail(user.Email),
			"path", c.Request.URL.Path)

		c.Set(UserIDKey, user.ID)
		c.Set(UserEmailKey, user.Email)
		c.Set(UserDisplayNameKey, user.DisplayName)
		c.Next()
	}
}

// validateSupabaseToken verifies an HS256 token against the shared Supabase
// JWT secret and extracts the identity claims.
func validateSupabaseToken(tokenString, secret string) (*types.AuthenticatedUser, error) {
	if secret == "" {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET is not configured")
	}

	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithVerify(true),
		jwt.WithKey(jwa.HS256, []byte(secret)),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	sub := token.Subject()
	if sub == "" {
		return nil, fmt.Errorf("missing subject claim in token")
	}

	user := &types.AuthenticatedUser{ID: sub}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			user.Email = s
		}
	}
	if claim, ok := token.Get("user_metadata"); ok {
		user.DisplayName = decodeUserMetadata(claim).DisplayName()
	}

	return user, nil
}

// decodeUserMetadata converts the raw user_metadata claim into the typed
// form. A malformed claim yields the zero value rather than an error.
func decodeUserMetadata(claim interface{}) types.UserMetadata {
	var meta types.UserMetadata
	raw, err := json.Marshal(claim)
	if err != nil {
		return meta
	}
	_ = json.Unmarshal(raw, &meta)
	return meta
}

// CurrentUser reconstructs the authenticated identity previously stored by
// AuthMiddleware. The second return is false when the request never passed
// authentication.
func CurrentUser(c *gin.Context) (types.AuthenticatedUser, bool) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return types.AuthenticatedUser{}, false
	}
	return types.AuthenticatedUser{
		ID:          id,
		Email:       c.GetString(UserEmailKey),
		DisplayName: c.GetString(UserDisplayNameKey),
	}, true
}
