package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/quienpaga/quienpaga-backend/errors"
	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/quienpaga/quienpaga-backend/middleware"
	ledgerservice "github.com/quienpaga/quienpaga-backend/models/ledger/service"
	"github.com/quienpaga/quienpaga-backend/types"
)

// LedgerHandler handles expense, transfer and balance endpoints.
type LedgerHandler struct {
	ledger *ledgerservice.LedgerService
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(ledger *ledgerservice.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// CreateExpenseRequest is the payload for recording an expense.
type CreateExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaidBy      string          `json:"paidBy" binding:"required"`
	Shares      []ShareRequest  `json:"shares" binding:"required"`
}

// ShareRequest is one member's portion in an expense payload.
type ShareRequest struct {
	MemberID string          `json:"memberId" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreateTransferRequest is the payload for recording a settlement.
type CreateTransferRequest struct {
	FromMemberID string          `json:"fromMemberId" binding:"required"`
	ToMemberID   string          `json:"toMemberId" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Description  string          `json:"description,omitempty"`
}

// CreateExpenseHandler handles POST /v1/groups/:id/expenses.
func (h *LedgerHandler) CreateExpenseHandler(c *gin.Context) {
	log := logger.GetLogger()
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("Invalid create expense request", "error", err, "groupId", groupID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	shares := make([]types.ShareInput, 0, len(req.Shares))
	for _, s := range req.Shares {
		shares = append(shares, types.ShareInput{MemberID: s.MemberID, Amount: s.Amount})
	}

	expense, err := h.ledger.RecordExpense(c.Request.Context(), userID, types.CreateExpenseParams{
		GroupID:     groupID,
		Description: req.Description,
		Amount:      req.Amount,
		PaidBy:      req.PaidBy,
		Shares:      shares,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// ListExpensesHandler handles GET /v1/groups/:id/expenses.
func (h *LedgerHandler) ListExpensesHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	expenses, err := h.ledger.ListExpenses(c.Request.Context(), userID, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// CreateTransferHandler handles POST /v1/groups/:id/transfers.
func (h *LedgerHandler) CreateTransferHandler(c *gin.Context) {
	log := logger.GetLogger()
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnw("Invalid create transfer request", "error", err, "groupId", groupID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	transfer, err := h.ledger.RecordTransfer(c.Request.Context(), userID, types.CreateTransferParams{
		GroupID:      groupID,
		FromMemberID: req.FromMemberID,
		ToMemberID:   req.ToMemberID,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, transfer)
}

// ListTransfersHandler handles GET /v1/groups/:id/transfers.
func (h *LedgerHandler) ListTransfersHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	transfers, err := h.ledger.ListTransfers(c.Request.Context(), userID, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfers": transfers})
}

// GetBalancesHandler handles GET /v1/groups/:id/balances. Balances are
// recomputed from the full ledger history on every call.
func (h *LedgerHandler) GetBalancesHandler(c *gin.Context) {
	userID := c.GetString(middleware.UserIDKey)
	groupID := c.Param("id")

	sheet, err := h.ledger.GetBalanceSheet(c.Request.Context(), userID, groupID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, sheet)
}
