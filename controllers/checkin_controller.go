package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/bank"
	"github.com/chainledge/tickpoints/leaderboard"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/middleware"
	"github.com/chainledge/tickpoints/utils"
)

// CheckinController handles the check-in endpoints.
type CheckinController struct {
	ledger *ledger.Ledger
	book   bank.Book
	board  *leaderboard.Board
}

// NewCheckinController creates a new controller instance. board may be nil when no
// leaderboard is configured.
func NewCheckinController(led *ledger.Ledger, book bank.Book, board *leaderboard.Board) *CheckinController {
	return &CheckinController{ledger: led, book: book, board: board}
}

type checkinRequest struct {
	Now uint64 `json:"now" binding:"required"`
}

type bulkCheckinRequest struct {
	Principals []string `json:"principals" binding:"required"`
	Now        uint64   `json:"now" binding:"required"`
}

// CheckIn records one check-in for the authenticated principal at the given tick.
func (c *CheckinController) CheckIn(ctx *gin.Context) {
	principal, ok := middleware.Principal(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req checkinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "now is required and must be a positive tick")
		return
	}

	receipt, err := c.ledger.CheckIn(principal, req.Now, c.book.Transfer)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	c.recordOnBoard(principal, receipt.Earned)
	utils.Success(ctx, receipt)
}

// BulkCheckIn checks in a batch of principals at once, the aggregate fee paid by the
// authenticated caller.
func (c *CheckinController) BulkCheckIn(ctx *gin.Context) {
	payer, ok := middleware.Principal(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req bulkCheckinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "principals and now are required")
		return
	}

	receipts, err := c.ledger.BulkCheckIn(req.Principals, req.Now, payer, c.book.Transfer)
	if err != nil {
		respondLedgerError(ctx, err)
		return
	}

	for i, receipt := range receipts {
		c.recordOnBoard(req.Principals[i], receipt.Earned)
	}
	utils.Success(ctx, receipts)
}

// History returns the principal's recent check-in rows, newest first.
func (c *CheckinController) History(ctx *gin.Context) {
	principal := ctx.Param("principal")
	rows, err := c.ledger.RecentCheckins(principal, 50)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load check-in history")
		return
	}
	utils.Success(ctx, rows)
}

// recordOnBoard pushes earned points to the leaderboard. Failures only get logged;
// the check-in has already committed.
func (c *CheckinController) recordOnBoard(principal string, earned uint64) {
	if c.board == nil {
		return
	}
	if err := c.board.Record(principal, earned); err != nil {
		utils.Sugar.Warnf("leaderboard update failed for %s: %v", principal, err)
	}
}

// respondLedgerError maps ledger error kinds onto HTTP statuses and app codes.
func respondLedgerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyCheckedIn):
		utils.Error(ctx, http.StatusConflict, 40910, err.Error())
	case errors.Is(err, ledger.ErrFeeTransferFailed):
		utils.Error(ctx, http.StatusPaymentRequired, 40210, err.Error())
	case errors.Is(err, ledger.ErrInvalidBatch):
		utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		utils.Error(ctx, http.StatusBadRequest, 40013, err.Error())
	case errors.Is(err, ledger.ErrNotAuthorized):
		utils.Error(ctx, http.StatusForbidden, 40310, err.Error())
	default:
		utils.Sugar.Errorf("ledger operation failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "ledger operation failed")
	}
}
