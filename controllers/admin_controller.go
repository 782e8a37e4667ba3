package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/bank"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/middleware"
	"github.com/chainledge/tickpoints/utils"
)

// AdminController hosts the config mutation endpoints and a dev faucet. The ledger
// itself re-checks that the caller is the admin principal; the controller only
// extracts the caller identity.
type AdminController struct {
	ledger *ledger.Ledger
	book   bank.Book
}

// NewAdminController creates a new controller instance.
func NewAdminController(led *ledger.Ledger, book bank.Book) *AdminController {
	return &AdminController{ledger: led, book: book}
}

type valueRequest struct {
	Value uint64 `json:"value"`
}

type faucetRequest struct {
	Principal string `json:"principal" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required"`
}

// SetPointsPerCheckin updates the base reward.
func (a *AdminController) SetPointsPerCheckin(ctx *gin.Context) {
	a.setConfig(ctx, a.ledger.SetPointsPerCheckin)
}

// SetStreakBonus updates the per-day streak bonus.
func (a *AdminController) SetStreakBonus(ctx *gin.Context) {
	a.setConfig(ctx, a.ledger.SetStreakBonus)
}

// SetFeeAmount updates the check-in fee.
func (a *AdminController) SetFeeAmount(ctx *gin.Context) {
	a.setConfig(ctx, a.ledger.SetFeeAmount)
}

func (a *AdminController) setConfig(ctx *gin.Context, set func(caller string, value uint64) error) {
	caller, ok := middleware.Principal(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req valueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "value is required")
		return
	}

	if err := set(caller, req.Value); err != nil {
		respondLedgerError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"value": req.Value})
}

// Faucet credits balance to a principal so it can cover check-in fees. Admin only;
// meant for development and private deployments.
func (a *AdminController) Faucet(ctx *gin.Context) {
	caller, ok := middleware.Principal(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if caller != a.ledger.Admin() {
		utils.Error(ctx, http.StatusForbidden, 40311, "not authorized")
		return
	}

	var req faucetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "principal and amount are required")
		return
	}

	if err := a.book.Deposit(req.Principal, req.Amount); err != nil {
		utils.Sugar.Errorf("faucet deposit failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50030, "deposit failed")
		return
	}

	balance, err := a.book.Balance(req.Principal)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to read balance")
		return
	}
	utils.Success(ctx, gin.H{"principal": req.Principal, "balance": balance})
}

// Balance reads a principal's settlement balance.
func (a *AdminController) Balance(ctx *gin.Context) {
	principal := ctx.Param("principal")
	balance, err := a.book.Balance(principal)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to read balance")
		return
	}
	utils.Success(ctx, gin.H{"principal": principal, "balance": balance})
}
