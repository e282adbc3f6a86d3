package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quienpaga/quienpaga-backend/types"
)

// MockGroupStore is a testify mock for store.GroupStore.
type MockGroupStore struct {
	mock.Mock
}

func (m *MockGroupStore) CreateGroup(ctx context.Context, params types.CreateGroupParams, creator types.AddMemberParams) (*types.Group, error) {
	args := m.Called(ctx, params, creator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Group), args.Error(1)
}

func (m *MockGroupStore) GetGroup(ctx context.Context, id string) (*types.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Group), args.Error(1)
}

func (m *MockGroupStore) UpdateGroup(ctx context.Context, groupID string, update types.GroupUpdate) (*types.Group, error) {
	args := m.Called(ctx, groupID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Group), args.Error(1)
}

func (m *MockGroupStore) ListUserGroups(ctx context.Context, userID string) ([]*types.Group, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Group), args.Error(1)
}

func (m *MockGroupStore) DeleteGroupCascade(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *MockGroupStore) AddMember(ctx context.Context, params types.AddMemberParams) (*types.Member, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Member), args.Error(1)
}

func (m *MockGroupStore) AddMembers(ctx context.Context, groupID string, members []types.AddMemberParams) error {
	args := m.Called(ctx, groupID, members)
	return args.Error(0)
}

func (m *MockGroupStore) GetGroupMembers(ctx context.Context, groupID string) ([]*types.Member, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Member), args.Error(1)
}

func (m *MockGroupStore) GetMembersByID(ctx context.Context, groupID string, memberIDs []string) ([]*types.Member, error) {
	args := m.Called(ctx, groupID, memberIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Member), args.Error(1)
}

func (m *MockGroupStore) RoleOf(ctx context.Context, userID, groupID string) (types.MemberRole, error) {
	args := m.Called(ctx, userID, groupID)
	return args.Get(0).(types.MemberRole), args.Error(1)
}

// MockLedgerStore is a testify mock for store.LedgerStore.
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) CreateExpense(ctx context.Context, params types.CreateExpenseParams) (*types.Expense, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Expense), args.Error(1)
}

func (m *MockLedgerStore) ListExpenses(ctx context.Context, groupID string) ([]*types.Expense, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Expense), args.Error(1)
}

func (m *MockLedgerStore) CreateTransfer(ctx context.Context, params types.CreateTransferParams) (*types.Transfer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Transfer), args.Error(1)
}

func (m *MockLedgerStore) ListTransfers(ctx context.Context, groupID string) ([]*types.Transfer, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Transfer), args.Error(1)
}

// MockEventPublisher is a testify mock for types.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, groupID string, event types.Event) error {
	args := m.Called(ctx, groupID, event)
	return args.Error(0)
}
