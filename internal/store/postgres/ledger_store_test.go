package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/types"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func expenseColumns() []string {
	return []string{"id", "group_id", "description", "amount", "paid_by", "created_at"}
}

func transferColumns() []string {
	return []string{"id", "group_id", "from_member_id", "to_member_id", "amount", "description", "created_by", "created_at"}
}

func TestLedgerStore_CreateExpense(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)
	now := time.Now()
	amount := dec(t, "40.00")
	half := dec(t, "20.00")

	params := types.CreateExpenseParams{
		GroupID:     "g1",
		Description: "Cena",
		Amount:      amount,
		PaidBy:      "m-ana",
		Shares: []types.ShareInput{
			{MemberID: "m-ana", Amount: half},
			{MemberID: "m-ben", Amount: half},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO expenses").
		WithArgs("g1", "Cena", amount, "m-ana").
		WillReturnRows(pgxmock.NewRows(expenseColumns()).
			AddRow("e1", "g1", "Cena", amount, "m-ana", now))
	mock.ExpectExec("INSERT INTO expense_shares").
		WithArgs("e1", "m-ana", half).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO expense_shares").
		WithArgs("e1", "m-ben", half).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	expense, err := s.CreateExpense(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, "e1", expense.ID)
	require.Len(t, expense.Shares, 2)
	assert.Equal(t, "m-ana", expense.Shares[0].MemberID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_CreateExpense_RollbackOnShareFailure(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)
	now := time.Now()
	amount := dec(t, "40.00")
	half := dec(t, "20.00")

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO expenses").
		WithArgs("g1", "Cena", amount, "m-ana").
		WillReturnRows(pgxmock.NewRows(expenseColumns()).
			AddRow("e1", "g1", "Cena", amount, "m-ana", now))
	mock.ExpectExec("INSERT INTO expense_shares").
		WithArgs("e1", "m-ana", half).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO expense_shares").
		WithArgs("e1", "m-ghost", half).
		WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	_, err := s.CreateExpense(context.Background(), types.CreateExpenseParams{
		GroupID:     "g1",
		Description: "Cena",
		Amount:      amount,
		PaidBy:      "m-ana",
		Shares: []types.ShareInput{
			{MemberID: "m-ana", Amount: half},
			{MemberID: "m-ghost", Amount: half},
		},
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_ListExpenses(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)
	now := time.Now()

	mock.ExpectQuery("SELECT id, group_id, description, amount, paid_by, created_at").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows(expenseColumns()).
			AddRow("e2", "g1", "Taxi", dec(t, "12.00"), "m-ben", now).
			AddRow("e1", "g1", "Cena", dec(t, "40.00"), "m-ana", now.Add(-time.Hour)))
	mock.ExpectQuery("SELECT s.expense_id, s.member_id, s.amount").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows([]string{"expense_id", "member_id", "amount"}).
			AddRow("e1", "m-ana", dec(t, "20.00")).
			AddRow("e1", "m-ben", dec(t, "20.00")).
			AddRow("e2", "m-ben", dec(t, "12.00")))

	expenses, err := s.ListExpenses(context.Background(), "g1")

	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "e2", expenses[0].ID)
	assert.Len(t, expenses[0].Shares, 1)
	assert.Equal(t, "e1", expenses[1].ID)
	assert.Len(t, expenses[1].Shares, 2)
}

func TestLedgerStore_ListExpenses_Empty(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)

	// No share query is issued for an empty expense history.
	mock.ExpectQuery("SELECT id, group_id, description, amount, paid_by, created_at").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows(expenseColumns()))

	expenses, err := s.ListExpenses(context.Background(), "g1")

	require.NoError(t, err)
	assert.Empty(t, expenses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_CreateTransfer(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)
	now := time.Now()
	amount := dec(t, "20.00")

	mock.ExpectQuery("INSERT INTO transfers").
		WithArgs("g1", "m-ben", "m-ana", amount, "Transferencia", "user-1").
		WillReturnRows(pgxmock.NewRows(transferColumns()).
			AddRow("t1", "g1", "m-ben", "m-ana", amount, "Transferencia", "user-1", now))

	transfer, err := s.CreateTransfer(context.Background(), types.CreateTransferParams{
		GroupID:      "g1",
		FromMemberID: "m-ben",
		ToMemberID:   "m-ana",
		Amount:       amount,
		Description:  "Transferencia",
		CreatedBy:    "user-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "t1", transfer.ID)
	assert.Equal(t, "Transferencia", transfer.Description)
}

func TestLedgerStore_ListTransfers(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)
	now := time.Now()

	mock.ExpectQuery("SELECT id, group_id, from_member_id, to_member_id").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows(transferColumns()).
			AddRow("t2", "g1", "m-cal", "m-ben", dec(t, "5.00"), "Transferencia", "user-2", now).
			AddRow("t1", "g1", "m-ben", "m-ana", dec(t, "20.00"), "Transferencia", "user-1", now.Add(-time.Hour)))

	transfers, err := s.ListTransfers(context.Background(), "g1")

	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "t2", transfers[0].ID)
	assert.Equal(t, "t1", transfers[1].ID)
}

func TestLedgerStore_ListTransfers_Timeout(t *testing.T) {
	mock := setupMockPool(t)
	s := NewLedgerStore(mock, time.Second)

	mock.ExpectQuery("SELECT id, group_id, from_member_id, to_member_id").
		WithArgs("g1").
		WillReturnError(context.DeadlineExceeded)

	_, err := s.ListTransfers(context.Background(), "g1")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TimeoutError, appErr.Type)
}
