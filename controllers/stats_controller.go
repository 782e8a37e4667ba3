package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/leaderboard"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/utils"
)

// StatsController serves the read-only views.
type StatsController struct {
	ledger *ledger.Ledger
	board  *leaderboard.Board
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(led *ledger.Ledger, board *leaderboard.Board) *StatsController {
	return &StatsController{ledger: led, board: board}
}

// UserStats returns a principal's stats. The current tick comes from the caller via
// the now query parameter; the ledger keeps no clock.
func (s *StatsController) UserStats(ctx *gin.Context) {
	principal := ctx.Param("principal")
	now, err := strconv.ParseUint(ctx.Query("now"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "now query parameter is required")
		return
	}

	view, err := s.ledger.UserStats(principal, now)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load user stats")
		return
	}
	utils.Success(ctx, view)
}

// GlobalStats returns the public config fields and the aggregate counters.
func (s *StatsController) GlobalStats(ctx *gin.Context) {
	view, err := s.ledger.GlobalStats()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load global stats")
		return
	}
	utils.Success(ctx, view)
}

// Leaderboard returns the top principals by accumulated points.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	if s.board == nil {
		utils.Error(ctx, http.StatusServiceUnavailable, 50310, "leaderboard not configured")
		return
	}
	n := int64(10)
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 100 {
			utils.Error(ctx, http.StatusBadRequest, 40021, "limit must be between 1 and 100")
			return
		}
		n = parsed
	}
	entries, err := s.board.Top(n)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load leaderboard")
		return
	}
	utils.Success(ctx, entries)
}
