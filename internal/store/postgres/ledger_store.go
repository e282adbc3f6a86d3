package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quienpaga/quienpaga-backend/internal/store"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/types"
)

// Ensure LedgerStore implements store.LedgerStore.
var _ store.LedgerStore = (*LedgerStore)(nil)

// LedgerStore persists expenses, shares and transfers using PostgreSQL.
type LedgerStore struct {
	db      DB
	timeout time.Duration
}

// NewLedgerStore creates a LedgerStore. queryTimeout bounds every store call.
func NewLedgerStore(db DB, queryTimeout time.Duration) *LedgerStore {
	if queryTimeout <= 0 {
		queryTimeout = 5 * time.Second
	}
	return &LedgerStore{db: db, timeout: queryTimeout}
}

// CreateExpense writes the expense and all of its shares in one transaction.
// A failed share insert rolls the expense back, so an expense without shares
// can never be committed.
func (s *LedgerStore) CreateExpense(ctx context.Context, params types.CreateExpenseParams) (*types.Expense, error) {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var expense types.Expense
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO expenses (group_id, description, amount, paid_by)
			VALUES ($1, $2, $3, $4)
			RETURNING id, group_id, description, amount, paid_by, created_at`,
			params.GroupID,
			params.Description,
			params.Amount,
			params.PaidBy,
		).Scan(
			&expense.ID,
			&expense.GroupID,
			&expense.Description,
			&expense.Amount,
			&expense.PaidBy,
			&expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}

		for _, share := range params.Shares {
			if _, err := tx.Exec(ctx, `
				INSERT INTO expense_shares (expense_id, member_id, amount)
				VALUES ($1, $2, $3)`,
				expense.ID,
				share.MemberID,
				share.Amount,
			); err != nil {
				return fmt.Errorf("insert share for member %s: %w", share.MemberID, err)
			}
			expense.Shares = append(expense.Shares, types.ExpenseShare{
				ExpenseID: expense.ID,
				MemberID:  share.MemberID,
				Amount:    share.Amount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err, "create expense")
	}

	log.Infow("Expense recorded", "expenseId", expense.ID, "groupId", expense.GroupID, "shares", len(expense.Shares))
	return &expense, nil
}

// ListExpenses returns the group's expenses with their shares, most recent
// first. The result is a point-in-time snapshot.
func (s *LedgerStore) ListExpenses(ctx context.Context, groupID string) ([]*types.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, group_id, description, amount, paid_by, created_at
		FROM expenses
		WHERE group_id = $1
		ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, wrapStoreError(err, "list expenses")
	}
	defer rows.Close()

	var expenses []*types.Expense
	byID := make(map[string]*types.Expense)
	for rows.Next() {
		expense := &types.Expense{}
		if err := rows.Scan(
			&expense.ID,
			&expense.GroupID,
			&expense.Description,
			&expense.Amount,
			&expense.PaidBy,
			&expense.CreatedAt,
		); err != nil {
			return nil, wrapStoreError(err, "scan expense")
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "list expenses")
	}

	if len(expenses) == 0 {
		return expenses, nil
	}

	shareRows, err := s.db.Query(ctx, `
		SELECT s.expense_id, s.member_id, s.amount
		FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, wrapStoreError(err, "list expense shares")
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share types.ExpenseShare
		if err := shareRows.Scan(&share.ExpenseID, &share.MemberID, &share.Amount); err != nil {
			return nil, wrapStoreError(err, "scan expense share")
		}
		if expense, ok := byID[share.ExpenseID]; ok {
			expense.Shares = append(expense.Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, wrapStoreError(err, "list expense shares")
	}

	return expenses, nil
}

// CreateTransfer inserts a transfer row and returns the stored record.
func (s *LedgerStore) CreateTransfer(ctx context.Context, params types.CreateTransferParams) (*types.Transfer, error) {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var transfer types.Transfer
	err := s.db.QueryRow(ctx, `
		INSERT INTO transfers (group_id, from_member_id, to_member_id, amount, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, group_id, from_member_id, to_member_id, amount, description, created_by, created_at`,
		params.GroupID,
		params.FromMemberID,
		params.ToMemberID,
		params.Amount,
		params.Description,
		params.CreatedBy,
	).Scan(
		&transfer.ID,
		&transfer.GroupID,
		&transfer.FromMemberID,
		&transfer.ToMemberID,
		&transfer.Amount,
		&transfer.Description,
		&transfer.CreatedBy,
		&transfer.CreatedAt,
	)
	if err != nil {
		return nil, wrapStoreError(err, "create transfer")
	}

	log.Infow("Transfer recorded", "transferId", transfer.ID, "groupId", transfer.GroupID)
	return &transfer, nil
}

// ListTransfers returns the group's transfers, most recent first.
func (s *LedgerStore) ListTransfers(ctx context.Context, groupID string) ([]*types.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, group_id, from_member_id, to_member_id, amount, description, created_by, created_at
		FROM transfers
		WHERE group_id = $1
		ORDER BY created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, wrapStoreError(err, "list transfers")
	}
	defer rows.Close()

	var transfers []*types.Transfer
	for rows.Next() {
		transfer := &types.Transfer{}
		if err := rows.Scan(
			&transfer.ID,
			&transfer.GroupID,
			&transfer.FromMemberID,
			&transfer.ToMemberID,
			&transfer.Amount,
			&transfer.Description,
			&transfer.CreatedBy,
			&transfer.CreatedAt,
		); err != nil {
			return nil, wrapStoreError(err, "scan transfer")
		}
		transfers = append(transfers, transfer)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(err, "list transfers")
	}
	return transfers, nil
}
