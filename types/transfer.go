package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is a direct settlement between two members, outside of any expense.
type Transfer struct {
	ID           string          `json:"id"`
	GroupID      string          `json:"groupId"`
	FromMemberID string          `json:"fromMemberId"`
	ToMemberID   string          `json:"toMemberId"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type CreateTransferParams struct {
	GroupID      string          `json:"groupId"`
	FromMemberID string          `json:"fromMemberId"`
	ToMemberID   string          `json:"toMemberId"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	CreatedBy    string          `json:"createdBy"`
}
