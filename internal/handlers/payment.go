package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"soulart_auction/internal/config"
	"soulart_auction/internal/middleware"
	"soulart_auction/internal/models"
	"soulart_auction/internal/payment"
	"soulart_auction/internal/services"
	"soulart_auction/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentHandler 得標付款：發起閘道訂單與接收回呼
type PaymentHandler struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Config    *config.Config
	Gateway   payment.Gateway
	Auctions  *services.AuctionService
	WSHandler *websocket.Handler
}

// InitiatePaymentRequest 得標者發起付款，附配送資訊
type InitiatePaymentRequest struct {
	DeliveryZone    string          `json:"delivery_zone" binding:"required"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	ShippingAddress string          `json:"shipping_address" binding:"required,max=512"`
}

// InitiatePayment 為已結束且未付款的拍賣建立支付訂單。
// external_order_id 在這裡生成並落庫，回呼時據此對應回拍賣。
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}
	if req.DeliveryFee.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_delivery_fee",
			"message": "Delivery fee cannot be negative",
		}})
		return
	}

	tx := h.DB.WithContext(c.Request.Context()).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var auction models.Auction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&auction, auctionID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "auction_not_found",
				"message": "Auction not found",
			}})
			return
		}
		h.Logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to initiate payment",
		}})
		return
	}

	if auction.Status != models.AuctionStatusEnded || !auction.HasWinner() {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "not_payable",
			"message": "Auction is not awaiting payment",
		}})
		return
	}
	if auction.IsPaid {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "already_paid",
			"message": "Auction has already been paid",
		}})
		return
	}
	if *auction.CurrentWinnerID != userID {
		tx.Rollback()
		c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
			"code":    "not_winner",
			"message": "Only the winning bidder can pay for this auction",
		}})
		return
	}

	externalOrderID := uuid.NewString()
	auction.ExternalOrderID = &externalOrderID
	auction.WinnerDeliveryZone = req.DeliveryZone
	auction.DeliveryFee = req.DeliveryFee
	auction.ShippingAddress = req.ShippingAddress
	auction.TotalPayment = auction.CurrentPrice.Add(req.DeliveryFee)

	// 先提交本地付款欄位再呼叫閘道：外部往返不可在持有列鎖時進行，
	// 否則慢閘道會卡住該拍賣的掃描與標記付款
	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		h.Logger.Error("Failed to save payment details", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to initiate payment",
		}})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to initiate payment",
		}})
		return
	}

	order, err := h.Gateway.CreateOrder(c.Request.Context(), &payment.CreateOrderRequest{
		ExternalOrderID: externalOrderID,
		Amount:          auction.TotalPayment,
		Currency:        "GEL",
		Description:     fmt.Sprintf("Auction #%d: %s", auction.ID, auction.Title),
		CallbackURL:     h.Config.PaymentCallbackURL,
		BuyerID:         userID,
	})
	if err != nil {
		// external_order_id 已落庫但不會有回呼；重新發起會換上新的 uuid
		h.Logger.Error("Payment gateway order failed",
			zap.Uint64("auction_id", auction.ID),
			zap.String("external_order_id", externalOrderID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{
			"code":    "gateway_error",
			"message": "Payment gateway is unavailable, please try again later",
		}})
		return
	}

	// 閘道訂單號僅供對帳，回呼是以 external_order_id 對應；
	// 寫入失敗不阻斷付款流程。external_order_id 的條件避免覆寫
	// 併發重新發起後的新訂單。
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.Auction{}).
		Where("id = ? AND external_order_id = ?", auction.ID, externalOrderID).
		Update("bog_order_id", order.OrderID).Error; err != nil {
		h.Logger.Error("Failed to save gateway order id",
			zap.Uint64("auction_id", auction.ID),
			zap.Error(err),
		)
	}

	audit := models.NewAuditLog(&userID, models.ActionPaymentInitiate, models.EntityTypeAuction, auction.ID, gin.H{
		"external_order_id": externalOrderID,
		"total_payment":     auction.TotalPayment.StringFixed(2),
	})
	ip := c.ClientIP()
	audit.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	h.Logger.Info("Payment initiated",
		zap.Uint64("auction_id", auction.ID),
		zap.String("external_order_id", externalOrderID),
		zap.String("order_id", order.OrderID),
	)

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"external_order_id": externalOrderID,
		"order_id":          order.OrderID,
		"redirect_url":      order.RedirectURL,
		"total_payment":     auction.TotalPayment,
	}})
}

// HandleCallback 支付閘道回呼。以 external_order_id 找回拍賣，
// 完成狀態時標記已付款並觸發結算。非完成狀態僅記錄結果。
// 重複回呼是安全的：已付款的拍賣直接回 200。
func (h *PaymentHandler) HandleCallback(c *gin.Context) {
	var cb payment.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_callback",
			"message": err.Error(),
		}})
		return
	}

	var auction models.Auction
	if err := h.DB.WithContext(c.Request.Context()).
		Where("external_order_id = ?", cb.ExternalOrderID).
		First(&auction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.Logger.Warn("Payment callback for unknown order",
				zap.String("external_order_id", cb.ExternalOrderID),
			)
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "order_not_found",
				"message": "Unknown external order ID",
			}})
			return
		}
		h.Logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to process callback",
		}})
		return
	}

	h.Logger.Info("Payment callback received",
		zap.Uint64("auction_id", auction.ID),
		zap.String("external_order_id", cb.ExternalOrderID),
		zap.String("order_status", cb.OrderStatus),
	)

	audit := models.NewAuditLog(nil, models.ActionPaymentCallback, models.EntityTypeAuction, auction.ID, gin.H{
		"external_order_id": cb.ExternalOrderID,
		"order_status":      cb.OrderStatus,
	})
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	if !cb.Completed() {
		// 失敗或退款結果記錄在拍賣上，不改變付款狀態
		if err := h.DB.WithContext(c.Request.Context()).
			Model(&models.Auction{}).
			Where("id = ? AND is_paid = ?", auction.ID, false).
			Update("payment_result", cb.OrderStatus).Error; err != nil {
			h.Logger.Error("Failed to record payment result", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"acknowledged": true}})
		return
	}

	updated, err := h.Auctions.MarkPaid(c.Request.Context(), auction.ID, nil, cb.OrderStatus)
	if err != nil {
		if errors.Is(err, services.ErrAuctionAlreadyPaid) {
			c.JSON(http.StatusOK, gin.H{"data": gin.H{"acknowledged": true}})
			return
		}
		h.Logger.Error("Failed to settle paid auction",
			zap.Uint64("auction_id", auction.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to process callback",
		}})
		return
	}

	if h.WSHandler != nil {
		h.WSHandler.BroadcastToAuction(updated.ID, websocket.MessageTypeState, gin.H{
			"status":  updated.Status,
			"is_paid": true,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"acknowledged": true}})
}
