package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/utils"
)

// AuthController issues bearer tokens for principals. Wallet-signature
// verification is the host's concern; this issuer stands in for it in server
// deployments and development.
type AuthController struct{}

// NewAuthController creates a new controller instance.
func NewAuthController() *AuthController {
	return &AuthController{}
}

type tokenRequest struct {
	Principal string `json:"principal" binding:"required"`
}

// IssueToken returns a signed token for the requested principal.
func (a *AuthController) IssueToken(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "principal is required")
		return
	}

	token, err := utils.GenerateToken(req.Principal)
	if err != nil {
		utils.Sugar.Errorf("token generation failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "principal": req.Principal})
}
