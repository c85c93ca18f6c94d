// 單次掃描工具：啟動到期的排程拍賣、結束到期的活躍拍賣、送出排隊中
// 的通知後退出。給不跑常駐排程的環境以 cron 每分鐘呼叫。
package main

import (
	"context"
	"log"
	"time"

	"soulart_auction/internal/config"
	"soulart_auction/internal/database"
	"soulart_auction/internal/logger"
	"soulart_auction/internal/services"
	"soulart_auction/internal/userdir"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logger.New(cfg)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	users := userdir.NewClient(cfg.UserDirectoryBaseURL, logger)
	settingsService := &services.SettingsService{DB: db, Logger: logger}
	earningsService := &services.EarningsService{DB: db, Logger: logger, Settings: settingsService}
	notificationService := &services.NotificationService{DB: db, Logger: logger, Config: cfg}
	auctionService := &services.AuctionService{
		DB:            db,
		Logger:        logger,
		Users:         users,
		Earnings:      earningsService,
		Notifications: notificationService,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()

	activated, err := auctionService.ActivationSweep(ctx)
	if err != nil {
		logger.Error("Activation sweep failed", zap.Error(err))
	}

	ended, err := auctionService.SettlementSweep(ctx)
	if err != nil {
		logger.Error("Settlement sweep failed", zap.Error(err))
	}

	notified, err := notificationService.ProcessQueue(ctx)
	if err != nil {
		logger.Error("Notification queue processing failed", zap.Error(err))
	}

	logger.Info("Sweep job completed",
		zap.Int("activated", activated),
		zap.Int("ended", ended),
		zap.Int("notifications_sent", notified),
		zap.Duration("took", time.Since(started)),
	)
}
