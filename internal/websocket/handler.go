package websocket

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"soulart_auction/internal/config"
	"soulart_auction/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenPurpose = "websocket"

// TokenClaims 短期 WS 令牌。瀏覽器的 WebSocket API 無法帶
// Authorization 標頭，所以改用查詢參數傳遞專用令牌。
type TokenClaims struct {
	UserID  uint64 `json:"uid"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueToken 簽發 60 秒有效的連接令牌
func IssueToken(cfg *config.Config, userID uint64) (string, error) {
	claims := &TokenClaims{
		UserID:  userID,
		Purpose: tokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(60 * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

func parseToken(cfg *config.Config, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || claims.Purpose != tokenPurpose {
		return nil, errors.New("invalid token purpose")
	}
	return claims, nil
}

// Handler WebSocket 處理器
type Handler struct {
	Hub    *Hub
	DB     *gorm.DB
	Logger *zap.Logger
	Config *config.Config
}

func NewHandler(db *gorm.DB, logger *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		Hub:    NewHub(logger),
		DB:     db,
		Logger: logger,
		Config: cfg,
	}
}

// Start 啟動 Hub
func (h *Handler) Start(ctx context.Context) {
	go h.Hub.Run(ctx)
}

// HandleConnection 處理 GET /ws/auctions/:id 的升級請求
func (h *Handler) HandleConnection(c *gin.Context) {
	claims, err := parseToken(h.Config, c.Query("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{
			"code":    "unauthorized",
			"message": "Invalid or missing connection token",
		}})
		return
	}

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var count int64
	h.DB.Model(&models.Auction{}).
		Where("id = ? AND status IN ?", auctionID,
			[]models.AuctionStatus{models.AuctionStatusScheduled, models.AuctionStatusActive}).
		Count(&count)
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"code":    "auction_not_found",
			"message": "Auction not found or not open",
		}})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade WebSocket connection",
			zap.Uint64("user_id", claims.UserID),
			zap.Uint64("auction_id", auctionID),
			zap.Error(err),
		)
		return
	}

	h.Logger.Info("WebSocket connection established",
		zap.Uint64("user_id", claims.UserID),
		zap.Uint64("auction_id", auctionID),
	)

	NewConnection(h.Hub, conn, auctionID, claims.UserID, h.Logger).Start()
}

// GetStats 取得房間統計資訊
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Hub.Stats()})
}

// BroadcastToAuction 供 HTTP 處理器推播出價與狀態變化
func (h *Handler) BroadcastToAuction(auctionID uint64, msgType string, data interface{}) {
	h.Hub.BroadcastToAuction(auctionID, msgType, data)
}
