package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
)

// RateLimiter limits authenticated requests per user using Redis INCR with a
// sliding expiry window. Must run after AuthMiddleware.
func RateLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			_ = c.Error(apperrors.Unauthenticated("Authentication required"))
			c.Abort()
			return
		}

		key := fmt.Sprintf("ratelimit:api:%s", userID)

		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, window)

		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			// Redis being down should not take the API with it.
			c.Next()
			return
		}

		if incr.Val() > int64(maxRequests) {
			retryAfter := int(window.Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			_ = c.Error(apperrors.RateLimitExceeded("Too many requests", retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}
