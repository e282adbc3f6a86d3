// Package handlers contains the gin HTTP handlers. Handlers bind and
// validate request payloads, delegate to the service layer, and attach
// failures to the gin context for the error-handler middleware.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/middleware"
	groupservice "github.com/quienpaga/quienpaga-backend/models/group/service"
	"github.com/quienpaga/quienpaga-backend/types"
)

// GroupHandler handles group and membership endpoints.
type GroupHandler struct {
	groups *groupservice.GroupService
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(groups *groupservice.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// CreateGroupRequest is the payload for creating a group.
type CreateGroupRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// AddMemberRequest is the payload for adding a placeholder member.
type AddMemberRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Email       string `json:"email,omitempty"`
}

// CreateGroupHandler handles POST /v1/groups.
func (h *GroupHandler) CreateGroupHandler(c *gin.Context) {
	log := logger.GetLogger()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperrors.Unauthenticated("Authentication required"))
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("Invalid create group request", "error", err)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), user, req.Name, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// ListGroupsHandler handles GET /v1/groups.
func (h *GroupHandler) ListGroupsHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)

	groups, err := h.groups.ListUserGroups(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroupHandler handles GET /v1/groups/:id.
func (h *GroupHandler) GetGroupHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	group, err := h.groups.GetGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// UpdateGroupHandler handles PATCH /v1/groups/:id. Admin only; absent
// fields keep their stored value.
func (h *GroupHandler) UpdateGroupHandler(c *gin.Context) {
	log := logger.GetLogger()
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	var req types.GroupUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("Invalid update group request", "error", err, "groupId", groupID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	group, err := h.groups.UpdateGroup(c.Request.Context(), userID, groupID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// DeleteGroupHandler handles DELETE /v1/groups/:id. Admin only; the cascade
// removes members, expenses, shares and transfers with the group.
func (h *GroupHandler) DeleteGroupHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	if err := h.groups.DeleteGroup(c.Request.Context(), userID, groupID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetMembersHandler handles GET /v1/groups/:id/members.
func (h *GroupHandler) GetMembersHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	members, err := h.groups.GetMembers(c.Request.Context(), userID, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMemberHandler handles POST /v1/groups/:id/members. Admin only.
func (h *GroupHandler) AddMemberHandler(c *gin.Context) {
	log := logger.GetLogger()
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("Invalid add member request", "error", err, "groupId", groupID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	member, err := h.groups.AddMember(c.Request.Context(), userID, groupID, req.DisplayName, req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, member)
}
