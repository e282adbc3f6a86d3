package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a shared expense within a group, carrying its share breakdown.
type Expense struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"groupId"`
	Description string         `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string         `json:"paidBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	Shares      []ExpenseShare `json:"shares"`
}

// ExpenseShare is one member's portion of a single expense.
type ExpenseShare struct {
	ExpenseID string          `json:"expenseId"`
	MemberID  string          `json:"memberId"`
	Amount    decimal.Decimal `json:"amount"`
}

type CreateExpenseParams struct {
	GroupID     string          `json:"groupId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paidBy"`
	Shares      []ShareInput    `json:"shares"`
}

type ShareInput struct {
	MemberID string          `json:"memberId"`
	Amount   decimal.Decimal `json:"amount"`
}

// ShareTotal returns the sum of the requested share amounts.
func (p CreateExpenseParams) ShareTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Shares {
		total = total.Add(s.Amount)
	}
	return total
}
