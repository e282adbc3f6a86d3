// Package service implements the ledger operations: recording expenses and
// transfers, listing history, and serving the derived balance sheet.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quienpaga/quienpaga-backend/config"
	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/internal/store"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/models/balance"
	"github.com/quienpaga/quienpaga-backend/types"
)

// SharePolicy controls validation of share totals against expense amounts.
// The original system silently accepted any split; strict is the default
// here so the group balance sheet always sums to zero.
type SharePolicy struct {
	Strict    bool
	Tolerance decimal.Decimal
}

// PolicyFromConfig builds a SharePolicy from configuration. An unparsable
// tolerance falls back to 0.01.
func PolicyFromConfig(cfg config.LedgerConfig) SharePolicy {
	tolerance, err := decimal.NewFromString(cfg.ShareSumTolerance)
	if err != nil || tolerance.IsNegative() {
		tolerance = decimal.New(1, -2)
	}
	return SharePolicy{
		Strict:    cfg.ShareSumPolicy != "lenient",
		Tolerance: tolerance,
	}
}

// LedgerService records expenses and transfers and serves balance queries.
// Authorization goes through the membership registry before any write.
type LedgerService struct {
	ledger    store.LedgerStore
	groups    store.GroupStore
	policy    SharePolicy
	publisher types.EventPublisher
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(ledger store.LedgerStore, groups store.GroupStore, policy SharePolicy, publisher types.EventPublisher) *LedgerService {
	return &LedgerService{
		ledger:    ledger,
		groups:    groups,
		policy:    policy,
		publisher: publisher,
	}
}

// RecordExpense validates and persists an expense with its share breakdown.
// The store writes expense and shares in one transaction.
func (s *LedgerService) RecordExpense(ctx context.Context, requesterID string, params types.CreateExpenseParams) (*types.Expense, error) {
	if err := s.requireMember(ctx, requesterID, params.GroupID); err != nil {
		return nil, err
	}

	params.Description = strings.TrimSpace(params.Description)
	if params.Description == "" {
		return nil, apperrors.ValidationFailed("invalid expense", "description must not be empty")
	}
	if !params.Amount.IsPositive() {
		return nil, apperrors.ValidationFailed("invalid expense", "amount must be positive")
	}
	if len(params.Shares) == 0 {
		return nil, apperrors.ValidationFailed("invalid expense", "at least one share is required")
	}
	for _, share := range params.Shares {
		if share.Amount.IsNegative() {
			return nil, apperrors.ValidationFailed("invalid expense", "share amounts must not be negative")
		}
	}

	if s.policy.Strict {
		diff := params.ShareTotal().Sub(params.Amount).Abs()
		if diff.GreaterThan(s.policy.Tolerance) {
			return nil, apperrors.ValidationFailed(
				"share mismatch",
				fmt.Sprintf("shares sum to %s but expense amount is %s", params.ShareTotal(), params.Amount),
			)
		}
	}

	// Payer and every share participant must belong to the group.
	memberIDs := make([]string, 0, len(params.Shares)+1)
	memberIDs = append(memberIDs, params.PaidBy)
	for _, share := range params.Shares {
		memberIDs = append(memberIDs, share.MemberID)
	}
	if err := s.requireGroupMembers(ctx, params.GroupID, memberIDs); err != nil {
		return nil, err
	}

	expense, err := s.ledger.CreateExpense(ctx, params)
	if err != nil {
		return nil, s.translateStoreError(err, "expense", params.GroupID)
	}

	s.publishEvent(ctx, types.EventTypeExpenseCreated, params.GroupID, requesterID, map[string]interface{}{
		"expenseId":   expense.ID,
		"description": expense.Description,
		"amount":      expense.Amount.String(),
	})
	return expense, nil
}

// RecordTransfer validates and persists a direct settlement between two
// members of the group.
func (s *LedgerService) RecordTransfer(ctx context.Context, requesterID string, params types.CreateTransferParams) (*types.Transfer, error) {
	if err := s.requireMember(ctx, requesterID, params.GroupID); err != nil {
		return nil, err
	}

	if !params.Amount.IsPositive() {
		return nil, apperrors.ValidationFailed("invalid transfer", "amount must be positive")
	}
	if params.FromMemberID == params.ToMemberID {
		return nil, apperrors.ValidationFailed("invalid transfer", "cannot transfer to the same member")
	}

	// Both ends must resolve to member rows of this group.
	members, err := s.groups.GetMembersByID(ctx, params.GroupID, []string{params.FromMemberID, params.ToMemberID})
	if err != nil {
		return nil, s.translateStoreError(err, "members", params.GroupID)
	}
	if len(members) != 2 {
		return nil, apperrors.NotFound("member", fmt.Sprintf("%s or %s", params.FromMemberID, params.ToMemberID))
	}

	if params.Description == "" {
		params.Description = "Transferencia"
	}
	params.CreatedBy = requesterID

	transfer, err := s.ledger.CreateTransfer(ctx, params)
	if err != nil {
		return nil, s.translateStoreError(err, "transfer", params.GroupID)
	}

	s.publishEvent(ctx, types.EventTypeTransferCreated, params.GroupID, requesterID, map[string]interface{}{
		"transferId": transfer.ID,
		"amount":     transfer.Amount.String(),
	})
	return transfer, nil
}

// ListExpenses returns the group's expense history, most recent first.
func (s *LedgerService) ListExpenses(ctx context.Context, requesterID, groupID string) ([]*types.Expense, error) {
	if err := s.requireMember(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "expenses", groupID)
	}
	return expenses, nil
}

// ListTransfers returns the group's transfer history, most recent first.
func (s *LedgerService) ListTransfers(ctx context.Context, requesterID, groupID string) ([]*types.Transfer, error) {
	if err := s.requireMember(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	transfers, err := s.ledger.ListTransfers(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "transfers", groupID)
	}
	return transfers, nil
}

// GetBalanceSheet recomputes every member's balance from the full ledger
// history. Nothing is persisted.
func (s *LedgerService) GetBalanceSheet(ctx context.Context, requesterID, groupID string) (*types.BalanceSheet, error) {
	if err := s.requireMember(ctx, requesterID, groupID); err != nil {
		return nil, err
	}

	members, err := s.groups.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "members", groupID)
	}
	expenses, err := s.ledger.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "expenses", groupID)
	}
	transfers, err := s.ledger.ListTransfers(ctx, groupID)
	if err != nil {
		return nil, s.translateStoreError(err, "transfers", groupID)
	}

	return &types.BalanceSheet{
		GroupID:  groupID,
		Total:    balance.ComputeGroupTotal(expenses),
		Balances: balance.ComputeGroupBalances(members, expenses, transfers),
	}, nil
}

func (s *LedgerService) requireMember(ctx context.Context, userID, groupID string) error {
	role, err := s.groups.RoleOf(ctx, userID, groupID)
	if err != nil {
		return s.translateStoreError(err, "membership", groupID)
	}
	if role == types.MemberRoleNone {
		return apperrors.GroupAccessDenied(userID, groupID)
	}
	return nil
}

func (s *LedgerService) requireGroupMembers(ctx context.Context, groupID string, memberIDs []string) error {
	unique := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		unique[id] = struct{}{}
	}
	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}

	members, err := s.groups.GetMembersByID(ctx, groupID, ids)
	if err != nil {
		return s.translateStoreError(err, "members", groupID)
	}
	if len(members) != len(ids) {
		found := make(map[string]struct{}, len(members))
		for _, m := range members {
			found[m.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return apperrors.ValidationFailed("invalid member", fmt.Sprintf("member %s does not belong to group %s", id, groupID))
			}
		}
	}
	return nil
}

func (s *LedgerService) translateStoreError(err error, entity, id string) error {
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

func (s *LedgerService) publishEvent(ctx context.Context, eventType types.EventType, groupID, userID string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(data)
	if err != nil {
		logger.GetLogger().Errorw("Failed to marshal event payload", "error", err, "type", eventType)
		return
	}

	event := types.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		GroupID:   groupID,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	if err := s.publisher.Publish(ctx, groupID, event); err != nil {
		logger.GetLogger().Warnw("Failed to publish ledger event", "error", err, "type", eventType, "groupId", groupID)
	}
}
