// Package balance derives member balances from ledger state. Everything here
// is a pure projection: no store access, no mutation, recomputable at any
// time from the full expense and transfer history.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/quienpaga/quienpaga-backend/types"
)

// ComputeMemberBalance returns the member's net position:
// paid expenses minus owed shares, plus received transfers minus sent ones.
// Positive means the group owes the member.
func ComputeMemberBalance(memberID string, expenses []*types.Expense, transfers []*types.Transfer) decimal.Decimal {
	balance := decimal.Zero

	for _, expense := range expenses {
		if expense.PaidBy == memberID {
			balance = balance.Add(expense.Amount)
		}
		for _, share := range expense.Shares {
			if share.MemberID == memberID {
				balance = balance.Sub(share.Amount)
			}
		}
	}

	for _, transfer := range transfers {
		if transfer.ToMemberID == memberID {
			balance = balance.Add(transfer.Amount)
		}
		if transfer.FromMemberID == memberID {
			balance = balance.Sub(transfer.Amount)
		}
	}

	return balance
}

// ComputeGroupBalances computes every member's balance. When each expense's
// shares sum to its amount, the returned balances sum to zero.
func ComputeGroupBalances(members []*types.Member, expenses []*types.Expense, transfers []*types.Transfer) []types.MemberBalance {
	balances := make([]types.MemberBalance, 0, len(members))
	for _, member := range members {
		balances = append(balances, types.MemberBalance{
			MemberID:    member.ID,
			DisplayName: member.DisplayName,
			Balance:     ComputeMemberBalance(member.ID, expenses, transfers),
		})
	}
	return balances
}

// ComputeGroupTotal returns the sum of all expense amounts. Informational
// only; transfers do not contribute.
func ComputeGroupTotal(expenses []*types.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}
	return total
}
