package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/internal/store"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/models/group/service"
	"github.com/quienpaga/quienpaga-backend/types"
)

const testGroupID = "group-1"

func init() {
	logger.IsTest = true
}

func testUser() types.AuthenticatedUser {
	return types.AuthenticatedUser{
		ID:          "user-1",
		Email:       "ana@example.com",
		DisplayName: "Ana",
	}
}

func assertAppErrorType(t *testing.T, err error, want apperrors.ErrorType) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, want, appErr.Type)
}

func TestCreateGroup_Success(t *testing.T) {
	groupStore := new(MockGroupStore)
	publisher := new(MockEventPublisher)
	svc := service.NewGroupService(groupStore, publisher)
	user := testUser()

	groupStore.On("CreateGroup", mock.Anything,
		mock.MatchedBy(func(p types.CreateGroupParams) bool {
			return p.Name == "Viaje a Lisboa" && p.CreatedBy == user.ID
		}),
		mock.MatchedBy(func(creator types.AddMemberParams) bool {
			// The creator joins as an admin member tied to their identity.
			return creator.Role == types.MemberRoleAdmin &&
				creator.UserID != nil && *creator.UserID == user.ID &&
				creator.DisplayName == "Ana"
		}),
	).Return(&types.Group{ID: testGroupID, Name: "Viaje a Lisboa", CreatedBy: user.ID}, nil)
	publisher.On("Publish", mock.Anything, testGroupID, mock.MatchedBy(func(e types.Event) bool {
		return e.Type == types.EventTypeGroupCreated
	})).Return(nil)

	group, err := svc.CreateGroup(context.Background(), user, "  Viaje a Lisboa  ", nil)

	require.NoError(t, err)
	assert.Equal(t, testGroupID, group.ID)
	groupStore.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestCreateGroup_EmptyName(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	_, err := svc.CreateGroup(context.Background(), testUser(), "   ", nil)

	assertAppErrorType(t, err, apperrors.ValidationError)
	groupStore.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateGroup_FallsBackToEmail(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)
	user := testUser()
	user.DisplayName = ""

	groupStore.On("CreateGroup", mock.Anything, mock.Anything,
		mock.MatchedBy(func(creator types.AddMemberParams) bool {
			return creator.DisplayName == user.Email
		}),
	).Return(&types.Group{ID: testGroupID}, nil)

	_, err := svc.CreateGroup(context.Background(), user, "Piso compartido", nil)

	require.NoError(t, err)
	groupStore.AssertExpectations(t)
}

func TestGetGroup_MemberAllowed(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleMember, nil)
	groupStore.On("GetGroup", mock.Anything, testGroupID).
		Return(&types.Group{ID: testGroupID, Name: "Viaje"}, nil)

	group, err := svc.GetGroup(context.Background(), "user-1", testGroupID)

	require.NoError(t, err)
	assert.Equal(t, "Viaje", group.Name)
}

func TestGetGroup_NonMemberForbidden(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "intruder", testGroupID).Return(types.MemberRoleNone, nil)

	_, err := svc.GetGroup(context.Background(), "intruder", testGroupID)

	assertAppErrorType(t, err, apperrors.ForbiddenError)
	groupStore.AssertNotCalled(t, "GetGroup", mock.Anything, mock.Anything)
}

func TestGetGroup_NotFound(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleMember, nil)
	groupStore.On("GetGroup", mock.Anything, testGroupID).Return(nil, store.ErrNotFound)

	_, err := svc.GetGroup(context.Background(), "user-1", testGroupID)

	assertAppErrorType(t, err, apperrors.NotFoundError)
}

func TestAddMember_AdminCreatesPlaceholder(t *testing.T) {
	groupStore := new(MockGroupStore)
	publisher := new(MockEventPublisher)
	svc := service.NewGroupService(groupStore, publisher)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("AddMember", mock.Anything, mock.MatchedBy(func(p types.AddMemberParams) bool {
		// Placeholder members carry no identity reference at all.
		return p.UserID == nil && p.DisplayName == "Ben" && p.Role == types.MemberRoleMember
	})).Return(&types.Member{ID: "m-ben", GroupID: testGroupID, DisplayName: "Ben", Role: types.MemberRoleMember}, nil)
	publisher.On("Publish", mock.Anything, testGroupID, mock.MatchedBy(func(e types.Event) bool {
		return e.Type == types.EventTypeMemberAdded
	})).Return(nil)

	member, err := svc.AddMember(context.Background(), "user-1", testGroupID, " Ben ", "")

	require.NoError(t, err)
	assert.True(t, member.IsPlaceholder())
	groupStore.AssertExpectations(t)
}

func TestAddMember_NonAdminForbidden(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-2", testGroupID).Return(types.MemberRoleMember, nil)

	_, err := svc.AddMember(context.Background(), "user-2", testGroupID, "Ben", "")

	assertAppErrorType(t, err, apperrors.ForbiddenError)
	groupStore.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
}

func TestAddMember_DuplicateMembershipConflict(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("AddMember", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("add member: %w", store.ErrConflict))

	_, err := svc.AddMember(context.Background(), "user-1", testGroupID, "Ben", "")

	assertAppErrorType(t, err, apperrors.ConflictError)
}

func TestAddMember_EmptyName(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	_, err := svc.AddMember(context.Background(), "user-1", testGroupID, "   ", "")

	assertAppErrorType(t, err, apperrors.ValidationError)
}

func TestAddMembers_Bulk(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("AddMembers", mock.Anything, testGroupID, mock.MatchedBy(func(params []types.AddMemberParams) bool {
		return len(params) == 2 && params[0].DisplayName == "Ben" && params[1].DisplayName == "Cal"
	})).Return(nil)

	err := svc.AddMembers(context.Background(), "user-1", testGroupID, []string{" Ben ", "Cal"})

	require.NoError(t, err)
	groupStore.AssertExpectations(t)
}

func TestUpdateGroup_AdminRenames(t *testing.T) {
	groupStore := new(MockGroupStore)
	publisher := new(MockEventPublisher)
	svc := service.NewGroupService(groupStore, publisher)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("UpdateGroup", mock.Anything, testGroupID, mock.MatchedBy(func(u types.GroupUpdate) bool {
		// The stored name is the trimmed one.
		return u.Name != nil && *u.Name == "Viaje 2026" && u.Description == nil
	})).Return(&types.Group{ID: testGroupID, Name: "Viaje 2026", CreatedBy: "user-1"}, nil)
	publisher.On("Publish", mock.Anything, testGroupID, mock.MatchedBy(func(e types.Event) bool {
		return e.Type == types.EventTypeGroupUpdated
	})).Return(nil)

	name := "  Viaje 2026  "
	group, err := svc.UpdateGroup(context.Background(), "user-1", testGroupID, types.GroupUpdate{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "Viaje 2026", group.Name)
	groupStore.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateGroup_MemberForbidden(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-2", testGroupID).Return(types.MemberRoleMember, nil)

	name := "Viaje"
	_, err := svc.UpdateGroup(context.Background(), "user-2", testGroupID, types.GroupUpdate{Name: &name})

	assertAppErrorType(t, err, apperrors.ForbiddenError)
	groupStore.AssertNotCalled(t, "UpdateGroup", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateGroup_EmptyName(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)

	name := "   "
	_, err := svc.UpdateGroup(context.Background(), "user-1", testGroupID, types.GroupUpdate{Name: &name})

	assertAppErrorType(t, err, apperrors.ValidationError)
}

func TestUpdateGroup_NothingToChange(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)

	_, err := svc.UpdateGroup(context.Background(), "user-1", testGroupID, types.GroupUpdate{})

	assertAppErrorType(t, err, apperrors.ValidationError)
	groupStore.AssertNotCalled(t, "UpdateGroup", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteGroup_AdminOnly(t *testing.T) {
	groupStore := new(MockGroupStore)
	publisher := new(MockEventPublisher)
	svc := service.NewGroupService(groupStore, publisher)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("DeleteGroupCascade", mock.Anything, testGroupID).Return(nil)
	publisher.On("Publish", mock.Anything, testGroupID, mock.MatchedBy(func(e types.Event) bool {
		return e.Type == types.EventTypeGroupDeleted
	})).Return(nil)

	err := svc.DeleteGroup(context.Background(), "user-1", testGroupID)

	require.NoError(t, err)
	groupStore.AssertExpectations(t)
}

func TestDeleteGroup_MemberForbidden(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-2", testGroupID).Return(types.MemberRoleMember, nil)

	err := svc.DeleteGroup(context.Background(), "user-2", testGroupID)

	assertAppErrorType(t, err, apperrors.ForbiddenError)
	groupStore.AssertNotCalled(t, "DeleteGroupCascade", mock.Anything, mock.Anything)
}

func TestDeleteGroup_PublishFailureDoesNotFailDelete(t *testing.T) {
	groupStore := new(MockGroupStore)
	publisher := new(MockEventPublisher)
	svc := service.NewGroupService(groupStore, publisher)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)
	groupStore.On("DeleteGroupCascade", mock.Anything, testGroupID).Return(nil)
	publisher.On("Publish", mock.Anything, testGroupID, mock.Anything).
		Return(errors.New("redis unavailable"))

	err := svc.DeleteGroup(context.Background(), "user-1", testGroupID)

	require.NoError(t, err)
}

func TestIsMember(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleMember, nil)
	groupStore.On("RoleOf", mock.Anything, "user-2", testGroupID).Return(types.MemberRoleNone, nil)

	isMember, err := svc.IsMember(context.Background(), "user-1", testGroupID)
	require.NoError(t, err)
	assert.True(t, isMember)

	isMember, err = svc.IsMember(context.Background(), "user-2", testGroupID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestRequireRole_AdminSatisfiesMemberRequirement(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("RoleOf", mock.Anything, "user-1", testGroupID).Return(types.MemberRoleAdmin, nil)

	err := svc.RequireRole(context.Background(), "user-1", testGroupID, types.MemberRoleMember)

	require.NoError(t, err)
}

func TestListUserGroups(t *testing.T) {
	groupStore := new(MockGroupStore)
	svc := service.NewGroupService(groupStore, nil)

	groupStore.On("ListUserGroups", mock.Anything, "user-1").Return([]*types.Group{
		{ID: "g1", Name: "Viaje"},
		{ID: "g2", Name: "Piso"},
	}, nil)

	groups, err := svc.ListUserGroups(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Viaje", groups[0].Name)
}
