package handlers

import (
	"net/http"
	"time"

	"soulart_auction/internal/config"
	"soulart_auction/internal/middleware"
	"soulart_auction/internal/payment"
	"soulart_auction/internal/services"
	"soulart_auction/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依賴集合，由 cmd/server 組裝
type Deps struct {
	Auctions      *services.AuctionService
	Earnings      *services.EarningsService
	Settings      *services.SettingsService
	Notifications *services.NotificationService
	Users         services.UserDirectory
	Gateway       payment.Gateway
	WSHandler     *websocket.Handler
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *gorm.DB, deps *Deps) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全域中間件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg))
	r.Use(loggerMiddleware(logger))
	r.Use(requestLogger(logger))

	// 健康檢查端點
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"service":    cfg.AppName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"request_id": c.GetString(middleware.RequestIDKey),
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	auctionHandler := &AuctionHandler{DB: db, Logger: logger, Auctions: deps.Auctions, WSHandler: deps.WSHandler}
	queryHandler := &AuctionQueryHandler{DB: db, Logger: logger}
	bidHandler := &BidHandler{DB: db, Logger: logger, Auctions: deps.Auctions, Users: deps.Users, WSHandler: deps.WSHandler}
	adminHandler := &AdminHandler{DB: db, Logger: logger, Settings: deps.Settings, Earnings: deps.Earnings}
	auctionAdminHandler := &AuctionAdminHandler{DB: db, Logger: logger, Earnings: deps.Earnings}
	paymentHandler := &PaymentHandler{DB: db, Logger: logger, Config: cfg, Gateway: deps.Gateway, Auctions: deps.Auctions, WSHandler: deps.WSHandler}
	authHandler := &AuthHandler{Logger: logger, Config: cfg}

	api := r.Group("/api/v1")

	// 公開端點（無需認證）
	api.GET("/auctions", queryHandler.ListAuctions)
	api.GET("/auctions/:id", queryHandler.GetAuction)

	// 支付閘道回呼（以 external_order_id 驗證）
	api.POST("/payments/callback", paymentHandler.HandleCallback)

	// 需要認證的端點
	auth := api.Group("")
	auth.Use(middleware.JWT(cfg))
	{
		auth.GET("/auth/ws-token", authHandler.GetWebSocketToken)

		// 賣家
		auth.POST("/auctions", middleware.RequireRole(middleware.RoleSeller), auctionHandler.CreateAuction)
		auth.PATCH("/auctions/:id/reschedule", auctionHandler.RescheduleAuction)
		auth.DELETE("/auctions/:id", auctionHandler.CancelAuction)

		// 買家
		auth.POST("/auctions/:id/bids", bidHandler.PlaceBid)
		auth.GET("/auctions/:id/my-bids", bidHandler.GetMyBids)
		auth.POST("/auctions/:id/payment", paymentHandler.InitiatePayment)

		// 平台管理員
		admin := auth.Group("/admin")
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.POST("/auctions/:id/approve", auctionHandler.ApproveAuction)
			admin.POST("/auctions/:id/reject", auctionHandler.RejectAuction)
			admin.POST("/auctions/:id/mark-paid", auctionHandler.MarkPaid)
			admin.GET("/auctions/:id/history", queryHandler.GetAuctionHistory)
			admin.GET("/stats", adminHandler.GetStats)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PATCH("/settings", adminHandler.UpdateSettings)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/process", adminHandler.ProcessWithdrawal)
		}

		// 拍賣管理員（收益與提領）
		auctionAdmin := auth.Group("/auction-admin")
		auctionAdmin.Use(middleware.RequireRole(middleware.RoleAuctionAdmin))
		{
			auctionAdmin.GET("/dashboard", auctionAdminHandler.GetDashboard)
			auctionAdmin.GET("/paid-auctions", auctionAdminHandler.ListPaidAuctions)
			auctionAdmin.GET("/earnings", auctionAdminHandler.ListEarnings)
			auctionAdmin.GET("/profile", auctionAdminHandler.GetProfile)
			auctionAdmin.PATCH("/profile", auctionAdminHandler.UpdateProfile)
			auctionAdmin.GET("/withdrawals", auctionAdminHandler.ListMyWithdrawals)
			auctionAdmin.POST("/withdrawals", auctionAdminHandler.RequestWithdrawal)
		}
	}

	// WebSocket 路由（令牌由查詢參數驗證）
	if deps.WSHandler != nil {
		ws := r.Group("/ws")
		ws.GET("/auctions/:id", deps.WSHandler.HandleConnection)
		ws.GET("/stats", deps.WSHandler.GetStats)
	}

	return r
}

// loggerMiddleware adds the logger to the Gin context for use by other middleware
func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("logger", logger)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		requestID := c.GetString(middleware.RequestIDKey)
		if requestID == "" {
			requestID = "unknown"
		}

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
		)
	}
}
