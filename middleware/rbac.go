package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/types"
)

// RoleChecker resolves the role an identity holds in a group. The group
// service satisfies this.
type RoleChecker interface {
	RoleOf(ctx context.Context, userID, groupID string) (types.MemberRole, error)
}

// RequireGroupRole rejects requests whose caller does not hold the required
// role in the group named by the :id route parameter. Admins pass every
// check. Must run after AuthMiddleware.
func RequireGroupRole(checker RoleChecker, required types.MemberRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		groupID := c.Param("id")

		if userID == "" {
			_ = c.Error(apperrors.Unauthenticated("Authentication required"))
			c.Abort()
			return
		}
		if groupID == "" {
			_ = c.Error(apperrors.ValidationFailed("missing group id", "group id route parameter is required"))
			c.Abort()
			return
		}

		role, err := checker.RoleOf(c.Request.Context(), userID, groupID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		if role == types.MemberRoleNone || !role.IsAuthorizedFor(required) {
			_ = c.Error(apperrors.GroupAccessDenied(userID, groupID))
			c.Abort()
			return
		}

		c.Next()
	}
}
