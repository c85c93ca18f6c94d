package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"soulart_auction/internal/middleware"
	"soulart_auction/internal/models"
	"soulart_auction/internal/services"
	"soulart_auction/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BidHandler 出價操作
type BidHandler struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Auctions  *services.AuctionService
	Users     services.UserDirectory
	WSHandler *websocket.Handler
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// PlaceBid 對活躍拍賣出價
func (h *BidHandler) PlaceBid(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	// 顯示名稱優先取 JWT 內的 name，缺漏時向主站查詢
	bidderName := c.GetString(middleware.UserNameKey)
	if bidderName == "" {
		if name, err := h.Users.DisplayName(c.Request.Context(), userID); err == nil {
			bidderName = name
		}
	}

	bid, auction, err := h.Auctions.PlaceBid(c.Request.Context(), auctionID, userID, bidderName, req.Amount)
	if err != nil {
		h.respondBidError(c, auctionID, err)
		return
	}

	audit := models.NewAuditLog(&userID, models.ActionBidPlace, models.EntityTypeBid, bid.ID, gin.H{
		"auction_id": auctionID,
		"amount":     req.Amount.StringFixed(2),
	})
	ip := c.ClientIP()
	audit.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	if h.WSHandler != nil {
		h.WSHandler.BroadcastToAuction(auctionID, websocket.MessageTypeBidAccepted, gin.H{
			"auction_id":    auctionID,
			"amount":        bid.Amount,
			"bidder_name":   bid.BidderName,
			"total_bids":    auction.TotalBids,
			"minimum_next":  auction.MinimumNextBid(),
			"current_price": auction.CurrentPrice,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"bid":           bid,
		"current_price": auction.CurrentPrice,
		"minimum_next":  auction.MinimumNextBid(),
		"total_bids":    auction.TotalBids,
	}})
}

// respondBidError 把出價錯誤對應到 HTTP 狀態碼。出價太低回 409 並帶出
// 最低可接受金額，讓客戶端能直接提示。
func (h *BidHandler) respondBidError(c *gin.Context, auctionID uint64, err error) {
	var tooLow *models.BidTooLowError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"code":    "auction_not_found",
			"message": "Auction not found",
		}})
	case errors.As(err, &tooLow):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":        "bid_too_low",
			"message":     tooLow.Error(),
			"minimum_bid": tooLow.Minimum,
		}})
	case errors.Is(err, models.ErrAuctionNotActive), errors.Is(err, models.ErrAuctionEnded):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "auction_not_active",
			"message": err.Error(),
		}})
	case errors.Is(err, models.ErrSelfBid):
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
			"code":    "self_bid",
			"message": err.Error(),
		}})
	case errors.Is(err, services.ErrConcurrentBid):
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "concurrent_bid",
			"message": "Another bid was placed at the same time, please retry",
		}})
	default:
		h.Logger.Error("Failed to place bid",
			zap.Uint64("auction_id", auctionID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to place bid",
		}})
	}
}

// GetMyBids 查詢自己在某場拍賣的出價紀錄
func (h *BidHandler) GetMyBids(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var bids []models.AuctionBid
	if err := h.DB.WithContext(c.Request.Context()).
		Where("auction_id = ? AND bidder_id = ?", auctionID, userID).
		Order("created_at DESC").
		Find(&bids).Error; err != nil {
		h.Logger.Error("Failed to get bids", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get bids",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bids})
}
