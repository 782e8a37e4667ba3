package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/chainledge/tickpoints/bank"
	"github.com/chainledge/tickpoints/config"
	"github.com/chainledge/tickpoints/controllers"
	"github.com/chainledge/tickpoints/leaderboard"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/middleware"
	"github.com/chainledge/tickpoints/utils"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Ledger *ledger.Ledger
	Book   bank.Book
	Board  *leaderboard.Board // optional
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file so request noise stays out of the
	// app log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController()
	checkinController := controllers.NewCheckinController(deps.Ledger, deps.Book, deps.Board)
	statsController := controllers.NewStatsController(deps.Ledger, deps.Board)
	adminController := controllers.NewAdminController(deps.Ledger, deps.Book)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/token", authController.IssueToken)

	// Public reads
	api.GET("/stats", statsController.GlobalStats)
	api.GET("/leaderboard", statsController.Leaderboard)
	api.GET("/users/:principal/stats", statsController.UserStats)
	api.GET("/users/:principal/checkins", checkinController.History)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/checkin", checkinController.CheckIn)
	protected.POST("/checkin/bulk", checkinController.BulkCheckIn)

	admin := protected.Group("/admin")
	admin.PUT("/config/points", adminController.SetPointsPerCheckin)
	admin.PUT("/config/streak-bonus", adminController.SetStreakBonus)
	admin.PUT("/config/fee", adminController.SetFeeAmount)
	admin.POST("/faucet", adminController.Faucet)
	admin.GET("/balances/:principal", adminController.Balance)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
