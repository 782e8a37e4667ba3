package main

import (
	"github.com/chainledge/tickpoints/bank"
	"github.com/chainledge/tickpoints/config"
	"github.com/chainledge/tickpoints/leaderboard"
	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/models"
	"github.com/chainledge/tickpoints/routes"
	"github.com/chainledge/tickpoints/storage"
	"github.com/chainledge/tickpoints/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase()
	store, err := storage.NewGorm(db)
	if err != nil {
		utils.Sugar.Fatalf("storage init failed: %v", err)
	}

	led, err := ledger.New(store, cfg.AdminPrincipal, models.GlobalConfig{
		PointsPerCheckin:  cfg.PointsPerCheckin,
		StreakBonusPerDay: cfg.StreakBonusPerDay,
		FeeAmount:         cfg.FeeAmount,
		WindowLength:      cfg.WindowLength,
		FeeRecipient:      cfg.FeeRecipient,
	})
	if err != nil {
		utils.Sugar.Fatalf("ledger init failed: %v", err)
	}

	rdb := utils.GetRedis()
	book := bank.NewRedisBook(rdb, utils.RedisKey("balances"))
	board := leaderboard.New(rdb, utils.RedisKey("leaderboard"))

	r := routes.SetupRouter(routes.Deps{Ledger: led, Book: book, Board: board})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
