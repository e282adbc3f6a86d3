// Package service implements the group and membership operations: group
// lifecycle, the membership registry, and the role checks that gate every
// mutation.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/internal/store"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/types"
)

// GroupService owns group lifecycle and the membership registry.
type GroupService struct {
	store     store.GroupStore
	publisher types.EventPublisher
}

// NewGroupService creates a GroupService.
func NewGroupService(groupStore store.GroupStore, publisher types.EventPublisher) *GroupService {
	return &GroupService{
		store:     groupStore,
		publisher: publisher,
	}
}

// CreateGroup creates a group with the caller as its admin member. The group
// row and the admin membership are persisted atomically by the store.
func (s *GroupService) CreateGroup(ctx context.Context, user types.AuthenticatedUser, name string, description *string) (*types.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationFailed("invalid group name", "name must not be empty")
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = user.Email
	}

	creatorID := user.ID
	group, err := s.store.CreateGroup(ctx,
		types.CreateGroupParams{
			Name:        name,
			Description: description,
			CreatedBy:   user.ID,
		},
		types.AddMemberParams{
			UserID:      &creatorID,
			DisplayName: displayName,
			Email:       user.Email,
			Role:        types.MemberRoleAdmin,
		},
	)
	if err != nil {
		return nil, s.translateStoreError(err, "group", "")
	}

	s.publishEvent(ctx, types.EventTypeGroupCreated, group.ID, user.ID, map[string]interface{}{
		"name": group.Name,
	})
	return group, nil
}

// GetGroup returns the group, provided the caller is one of its members.
func (s *GroupService) GetGroup(ctx context.Context, requesterID, groupID string) (*types.Group, error) {
	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleMember); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "group", groupID)
	}
	return group, nil
}

// ListUserGroups returns all groups the caller belongs to.
func (s *GroupService) ListUserGroups(ctx context.Context, userID string) ([]*types.Group, error) {
	groups, err := s.store.ListUserGroups(ctx, userID)
	if err != nil {
		return nil, s.translateStoreError(err, "groups", "")
	}
	return groups, nil
}

// GetMembers returns the group's members; the caller must be one of them.
func (s *GroupService) GetMembers(ctx context.Context, requesterID, groupID string) ([]*types.Member, error) {
	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleMember); err != nil {
		return nil, err
	}

	members, err := s.store.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "members", groupID)
	}
	return members, nil
}

// AddMember adds a placeholder member to the group. Only an admin may add
// members. The new row has role member and no identity reference; people who
// share expenses do not need a login.
func (s *GroupService) AddMember(ctx context.Context, requesterID, groupID, displayName, email string) (*types.Member, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperrors.ValidationFailed("invalid member name", "displayName must not be empty")
	}

	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleAdmin); err != nil {
		return nil, err
	}

	member, err := s.store.AddMember(ctx, types.AddMemberParams{
		GroupID:     groupID,
		UserID:      nil,
		DisplayName: displayName,
		Email:       email,
		Role:        types.MemberRoleMember,
	})
	if err != nil {
		return nil, s.translateStoreError(err, "member", groupID)
	}

	s.publishEvent(ctx, types.EventTypeMemberAdded, groupID, requesterID, map[string]interface{}{
		"memberId":    member.ID,
		"displayName": member.DisplayName,
	})
	return member, nil
}

// AddMembers bulk-adds placeholder members; admin only.
func (s *GroupService) AddMembers(ctx context.Context, requesterID, groupID string, names []string) error {
	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleAdmin); err != nil {
		return err
	}

	params := make([]types.AddMemberParams, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return apperrors.ValidationFailed("invalid member name", "displayName must not be empty")
		}
		params = append(params, types.AddMemberParams{
			GroupID:     groupID,
			DisplayName: name,
			Role:        types.MemberRoleMember,
		})
	}

	if err := s.store.AddMembers(ctx, groupID, params); err != nil {
		return s.translateStoreError(err, "members", groupID)
	}
	return nil
}

// UpdateGroup renames or re-describes a group. Only an admin may update;
// nil fields are left untouched.
func (s *GroupService) UpdateGroup(ctx context.Context, requesterID, groupID string, update types.GroupUpdate) (*types.Group, error) {
	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleAdmin); err != nil {
		return nil, err
	}

	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, apperrors.ValidationFailed("invalid group name", "name must not be empty")
		}
		update.Name = &trimmed
	}
	if update.Name == nil && update.Description == nil {
		return nil, apperrors.ValidationFailed("empty update", "nothing to change")
	}

	group, err := s.store.UpdateGroup(ctx, groupID, update)
	if err != nil {
		return nil, s.translateStoreError(err, "group", groupID)
	}

	s.publishEvent(ctx, types.EventTypeGroupUpdated, group.ID, requesterID, map[string]interface{}{
		"name": group.Name,
	})
	return group, nil
}

// DeleteGroup removes a group and everything it owns. Only an admin may
// delete; the store performs the cascade in one transaction, so a failed
// delete leaves everything in place.
func (s *GroupService) DeleteGroup(ctx context.Context, requesterID, groupID string) error {
	if err := s.RequireRole(ctx, requesterID, groupID, types.MemberRoleAdmin); err != nil {
		return err
	}

	if err := s.store.DeleteGroupCascade(ctx, groupID); err != nil {
		return s.translateStoreError(err, "group", groupID)
	}

	s.publishEvent(ctx, types.EventTypeGroupDeleted, groupID, requesterID, nil)
	return nil
}

// IsMember reports whether the identity belongs to the group.
func (s *GroupService) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	role, err := s.store.RoleOf(ctx, userID, groupID)
	if err != nil {
		return false, s.translateStoreError(err, "membership", groupID)
	}
	return role != types.MemberRoleNone, nil
}

// RoleOf returns the identity's role in the group, MemberRoleNone when absent.
func (s *GroupService) RoleOf(ctx context.Context, userID, groupID string) (types.MemberRole, error) {
	role, err := s.store.RoleOf(ctx, userID, groupID)
	if err != nil {
		return types.MemberRoleNone, s.translateStoreError(err, "membership", groupID)
	}
	return role, nil
}

// RequireRole fails with Forbidden unless the identity holds the required
// role (admins satisfy every requirement).
func (s *GroupService) RequireRole(ctx context.Context, userID, groupID string, required types.MemberRole) error {
	role, err := s.store.RoleOf(ctx, userID, groupID)
	if err != nil {
		return s.translateStoreError(err, "membership", groupID)
	}
	if role == types.MemberRoleNone || !role.IsAuthorizedFor(required) {
		return apperrors.GroupAccessDenied(userID, groupID)
	}
	return nil
}

func (s *GroupService) translateStoreError(err error, entity, id string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound(entity, id)
	case errors.Is(err, store.ErrConflict):
		return apperrors.NewConflictError("duplicate "+entity, id)
	case errors.As(err, &appErr):
		return appErr
	default:
		return apperrors.NewDatabaseError(err)
	}
}

func (s *GroupService) publishEvent(ctx context.Context, eventType types.EventType, groupID, userID string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	var payload json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			logger.GetLogger().Errorw("Failed to marshal event payload", "error", err, "type", eventType)
			return
		}
		payload = encoded
	}

	event := types.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		GroupID:   groupID,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	// Events are best effort; the ledger is the source of truth.
	if err := s.publisher.Publish(ctx, groupID, event); err != nil {
		logger.GetLogger().Warnw("Failed to publish group event", "error", err, "type", eventType, "groupId", groupID)
	}
}
