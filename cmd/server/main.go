package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soulart_auction/internal/config"
	"soulart_auction/internal/database"
	"soulart_auction/internal/handlers"
	"soulart_auction/internal/logger"
	"soulart_auction/internal/payment"
	"soulart_auction/internal/scheduler"
	"soulart_auction/internal/services"
	"soulart_auction/internal/userdir"
	"soulart_auction/internal/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 載入配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// 初始化 logger
	logger, err := logger.New(cfg)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting auction service",
		zap.String("service", cfg.AppName),
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
	)

	// 連接資料庫
	logger.Info("Connecting to database",
		zap.String("host", cfg.DBHost),
		zap.String("port", cfg.DBPort),
		zap.String("database", cfg.DBName),
	)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("host", cfg.DBHost),
			zap.String("database", cfg.DBName),
			zap.Error(err),
		)
	}

	logger.Info("Database connection established successfully",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
	)

	// 開發環境自動遷移，正式環境用 cmd/migrate
	if cfg.AppEnv == "development" {
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("Auto migration failed", zap.Error(err))
		}
		logger.Info("Auto migration completed")
	}

	// 連接 Redis（掃描排程的租約鎖）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, sweep lease lock disabled",
			zap.String("addr", cfg.GetRedisAddr()),
			zap.Error(err),
		)
	} else {
		logger.Info("Redis connection established successfully",
			zap.String("addr", cfg.GetRedisAddr()),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 組裝服務
	users := userdir.NewClient(cfg.UserDirectoryBaseURL, logger)
	gateway := payment.NewBOGClient(cfg.PaymentGatewayBaseURL, cfg.PaymentGatewayAPIKey, cfg.PaymentTimeout, logger)

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

	wsHandler := websocket.NewHandler(db, logger, cfg)
	wsHandler.Start(ctx)

	// 生命週期掃描排程
	sched := scheduler.New(auctionService, notificationService, redisClient, logger, cfg.SweepInterval)
	sched.Start(ctx)

	// 初始化路由
	router := handlers.NewRouter(cfg, logger, db, &handlers.Deps{
		Auctions:      auctionService,
		Earnings:      earningsService,
		Settings:      settingsService,
		Notifications: notificationService,
		Users:         users,
		Gateway:       gateway,
		WSHandler:     wsHandler,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: router,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("service", cfg.AppName),
			zap.String("env", cfg.AppEnv),
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server",
				zap.String("address", server.Addr),
				zap.Error(err),
			)
		}
	}()

	// 等待終止信號，優雅關閉
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	sched.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server shutdown completed")
}
