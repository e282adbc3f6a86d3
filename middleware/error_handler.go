package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/logger"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler translates errors attached to the gin context into HTTP
// responses. AppError values keep their type and status; anything else
// becomes an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log := logger.GetLogger()

		var appError *apperrors.AppError
		if errors.As(err, &appError) {
			status := appError.GetHTTPStatus()
			log.Warnw("Request failed",
				"error_type", string(appError.Type),
				"error_message", appError.Message,
				"status", status,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", c.GetString(RequestIDKey),
			)
			c.AbortWithStatusJSON(status, ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Details: appError.Detail,
			})
			return
		}

		log.Errorw("Unhandled error",
			"error", err,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(RequestIDKey),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Type:    string(apperrors.ServerError),
			Message: "Internal server error",
		})
	}
}
