package types

import "github.com/shopspring/decimal"

// MemberBalance is the derived net position of one member: positive when the
// group owes them, negative when they owe the group. Never persisted.
type MemberBalance struct {
	MemberID    string          `json:"memberId"`
	DisplayName string          `json:"displayName"`
	Balance     decimal.Decimal `json:"balance"`
}

// BalanceSheet is the full read-side projection for a group.
type BalanceSheet struct {
	GroupID  string          `json:"groupId"`
	Total    decimal.Decimal `json:"total"`
	Balances []MemberBalance `json:"balances"`
}
