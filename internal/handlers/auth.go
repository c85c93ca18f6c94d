package handlers

import (
	"net/http"

	"soulart_auction/internal/config"
	"soulart_auction/internal/middleware"
	"soulart_auction/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 簽發 WebSocket 連接令牌
type AuthHandler struct {
	Logger *zap.Logger
	Config *config.Config
}

// GetWebSocketToken 換取短期 WS 令牌（瀏覽器的 WebSocket API
// 無法帶 Authorization 標頭）
func (h *AuthHandler) GetWebSocketToken(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	token, err := websocket.IssueToken(h.Config, userID)
	if err != nil {
		h.Logger.Error("Failed to issue websocket token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to issue token",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"token":      token,
		"expires_in": 60,
	}})
}
