// Package store defines the data access interfaces the service layer depends
// on. Implementations live in internal/store/postgres; tests substitute mocks.
package store

import (
	"context"

	"github.com/quienpaga/quienpaga-backend/types"
)

// GroupStore is the membership registry: groups and their member rows.
type GroupStore interface {
	// CreateGroup inserts the group and its creator's admin membership in a
	// single transaction.
	CreateGroup(ctx context.Context, params types.CreateGroupParams, creator types.AddMemberParams) (*types.Group, error)
	GetGroup(ctx context.Context, id string) (*types.Group, error)
	// UpdateGroup applies the non-nil fields of the update and returns the
	// stored row.
	UpdateGroup(ctx context.Context, groupID string, update types.GroupUpdate) (*types.Group, error)
	// ListUserGroups returns the groups the identity belongs to.
	ListUserGroups(ctx context.Context, userID string) ([]*types.Group, error)
	// DeleteGroupCascade removes shares, expenses, transfers, members and the
	// group row in one transaction. Authorization is the service's concern.
	DeleteGroupCascade(ctx context.Context, groupID string) error

	AddMember(ctx context.Context, params types.AddMemberParams) (*types.Member, error)
	AddMembers(ctx context.Context, groupID string, members []types.AddMemberParams) error
	GetGroupMembers(ctx context.Context, groupID string) ([]*types.Member, error)
	// GetMembersByID returns the group's member rows matching the given IDs;
	// IDs outside the group are simply absent from the result.
	GetMembersByID(ctx context.Context, groupID string, memberIDs []string) ([]*types.Member, error)
	// RoleOf returns the role the identity holds in the group, or
	// MemberRoleNone when it has no membership there.
	RoleOf(ctx context.Context, userID, groupID string) (types.MemberRole, error)
}

// LedgerStore records expenses (with shares) and transfers.
type LedgerStore interface {
	// CreateExpense writes the expense row and all share rows in a single
	// transaction; a share failure rolls the expense back.
	CreateExpense(ctx context.Context, params types.CreateExpenseParams) (*types.Expense, error)
	// ListExpenses returns the group's expenses, shares included, most
	// recent first.
	ListExpenses(ctx context.Context, groupID string) ([]*types.Expense, error)
	CreateTransfer(ctx context.Context, params types.CreateTransferParams) (*types.Transfer, error)
	// ListTransfers returns the group's transfers, most recent first.
	ListTransfers(ctx context.Context, groupID string) ([]*types.Transfer, error)
}
