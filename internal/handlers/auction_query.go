package handlers

import (
	"net/http"
	"strconv"

	"soulart_auction/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuctionQueryHandler 拍賣查詢（公開端點）
type AuctionQueryHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListAuctions 列出拍賣，支援狀態、作品類型、材質與價格區間過濾
func (h *AuctionQueryHandler) ListAuctions(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Model(&models.Auction{})

	// 公開列表預設只含已核准的拍賣
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", []models.AuctionStatus{
			models.AuctionStatusScheduled,
			models.AuctionStatusActive,
			models.AuctionStatusEnded,
		})
	}

	if artworkType := c.Query("artwork_type"); artworkType != "" {
		query = query.Where("artwork_type = ?", artworkType)
	}
	if material := c.Query("material"); material != "" {
		query = query.Where("material = ?", material)
	}
	if sellerID := c.Query("seller_id"); sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if p, err := decimal.NewFromString(minPrice); err == nil {
			query = query.Where("current_price >= ?", p)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if p, err := decimal.NewFromString(maxPrice); err == nil {
			query = query.Where("current_price <= ?", p)
		}
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.Logger.Error("Failed to count auctions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list auctions",
		}})
		return
	}

	var auctions []models.Auction
	if err := query.
		Order("start_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&auctions).Error; err != nil {
		h.Logger.Error("Failed to list auctions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list auctions",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      auctions,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetAuction 拍賣詳情，含完整出價列表（新到舊）
func (h *AuctionQueryHandler) GetAuction(c *gin.Context) {
	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var auction models.Auction
	if err := h.DB.WithContext(c.Request.Context()).
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&auction, auctionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "auction_not_found",
				"message": "Auction not found",
			}})
			return
		}
		h.Logger.Error("Failed to get auction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get auction",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"auction":      auction,
		"minimum_next": auction.MinimumNextBid(),
	}})
}

// GetAuctionHistory 拍賣的狀態歷史與事件（管理端）
func (h *AuctionQueryHandler) GetAuctionHistory(c *gin.Context) {
	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var history []models.AuctionStatusHistory
	if err := h.DB.WithContext(c.Request.Context()).
		Where("auction_id = ?", auctionID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		h.Logger.Error("Failed to get status history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get auction history",
		}})
		return
	}

	var events []models.AuctionEvent
	if err := h.DB.WithContext(c.Request.Context()).
		Where("auction_id = ?", auctionID).
		Order("event_id ASC").
		Limit(500).
		Find(&events).Error; err != nil {
		h.Logger.Error("Failed to get auction events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get auction history",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"status_history": history,
		"events":         events,
	}})
}
