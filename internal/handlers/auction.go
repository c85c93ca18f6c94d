package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"soulart_auction/internal/middleware"
	"soulart_auction/internal/models"
	"soulart_auction/internal/services"
	"soulart_auction/internal/timeutil"
	"soulart_auction/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuctionHandler 拍賣生命週期操作（創建、審核、取消、重排程）
type AuctionHandler struct {
	DB        *gorm.DB
	Logger    *zap.Logger
	Auctions  *services.AuctionService
	WSHandler *websocket.Handler
}

// CreateAuctionRequest 創建拍賣請求。日期與時刻分開傳遞，
// 在固定時區（UTC+4）下合併。
type CreateAuctionRequest struct {
	Title           string          `json:"title" binding:"required,max=255"`
	Description     string          `json:"description"`
	ArtworkType     string          `json:"artwork_type"`
	Dimensions      string          `json:"dimensions"`
	Material        string          `json:"material"`
	Images          []string        `json:"images"`
	StartingPrice   decimal.Decimal `json:"starting_price" binding:"required"`
	MinBidIncrement decimal.Decimal `json:"min_bid_increment" binding:"required"`
	StartDate       string          `json:"start_date" binding:"required"` // YYYY-MM-DD
	StartTime       string          `json:"start_time" binding:"required"` // HH:MM
	EndDate         string          `json:"end_date" binding:"required"`
	EndTime         string          `json:"end_time" binding:"required"`
	DeliveryTerms   string          `json:"delivery_terms"`
}

// CreateAuction 賣家創建拍賣，初始狀態為 pending（待審核）
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)

	var req CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	startAt, err := parseSchedule(req.StartDate, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": "Invalid start date or time: " + err.Error(),
		}})
		return
	}
	endAt, err := parseSchedule(req.EndDate, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": "Invalid end date or time: " + err.Error(),
		}})
		return
	}

	if !req.StartingPrice.IsPositive() || !req.MinBidIncrement.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_price",
			"message": "Starting price and minimum bid increment must be positive",
		}})
		return
	}

	auction := &models.Auction{
		SellerID:        userID,
		Title:           req.Title,
		Description:     req.Description,
		ArtworkType:     req.ArtworkType,
		Dimensions:      req.Dimensions,
		Material:        req.Material,
		StartingPrice:   req.StartingPrice,
		MinBidIncrement: req.MinBidIncrement,
		CurrentPrice:    req.StartingPrice,
		StartDate:       startAt,
		EndDate:         endAt,
		DeliveryTerms:   req.DeliveryTerms,
		Status:          models.AuctionStatusPending,
	}
	if len(req.Images) > 0 {
		if err := auction.SetImages(req.Images); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code":    "invalid_images",
				"message": "Invalid image list",
			}})
			return
		}
	}

	if err := auction.ValidateSchedule(time.Now()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": err.Error(),
		}})
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(auction).Error; err != nil {
		h.Logger.Error("Failed to create auction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to create auction",
		}})
		return
	}

	h.audit(c, &userID, models.ActionAuctionCreate, auction.ID, auction)

	h.Logger.Info("Auction created",
		zap.Uint64("auction_id", auction.ID),
		zap.Uint64("seller_id", userID),
		zap.String("title", auction.Title),
	)

	c.JSON(http.StatusCreated, gin.H{"data": auction})
}

// ApproveAuction 管理員審核通過。開始時間已到的直接轉 active，
// 否則轉 scheduled 交給掃描器啟動。
func (h *AuctionHandler) ApproveAuction(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
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
		h.notFoundOrError(c, err)
		return
	}

	if auction.Status != models.AuctionStatusPending {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "invalid_status",
			"message": "Only pending auctions can be approved",
		}})
		return
	}

	now := time.Now()
	oldStatus := auction.Status
	auction.IsApproved = true
	auction.ApprovedBy = &adminID
	auction.RejectionReason = ""

	if !auction.StartDate.After(now) {
		auction.Status = models.AuctionStatusActive
		auction.ActivatedAt = &now
	} else {
		auction.Status = models.AuctionStatusScheduled
	}

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		h.Logger.Error("Failed to approve auction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to approve auction",
		}})
		return
	}

	history := &models.AuctionStatusHistory{
		AuctionID:  auction.ID,
		FromStatus: string(oldStatus),
		ToStatus:   string(auction.Status),
		OperatorID: &adminID,
		Reason:     "Approved by admin",
	}
	if err := tx.Create(history).Error; err != nil {
		h.Logger.Error("Failed to create status history", zap.Error(err))
	}

	event := &models.AuctionEvent{
		AuctionID:   auction.ID,
		EventType:   models.EventTypeApproved,
		ActorUserID: &adminID,
	}
	if err := tx.Create(event).Error; err != nil {
		h.Logger.Error("Failed to create approval event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to approve auction",
		}})
		return
	}

	h.audit(c, &adminID, models.ActionAuctionApprove, auction.ID, gin.H{
		"new_status": auction.Status,
	})

	h.Logger.Info("Auction approved",
		zap.Uint64("auction_id", auction.ID),
		zap.Uint64("admin_id", adminID),
		zap.String("status", string(auction.Status)),
	)

	c.JSON(http.StatusOK, gin.H{"data": auction})
}

// RejectAuctionRequest 駁回必須附理由
type RejectAuctionRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// RejectAuction 管理員駁回。任何未結束狀態皆可駁回，
// 已在進行的拍賣駁回等同含出價取消。
func (h *AuctionHandler) RejectAuction(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var req RejectAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "reason_required",
			"message": "Rejection reason is required",
		}})
		return
	}

	if err := h.cancelAuction(c, auctionID, adminID, req.Reason, true); err != nil {
		return
	}

	h.audit(c, &adminID, models.ActionAuctionReject, auctionID, gin.H{
		"reason": req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":     auctionID,
		"status": models.AuctionStatusCancelled,
	}})
}

// CancelAuction 取消拍賣。賣家僅能取消自己且尚無出價的拍賣，管理員可
// 取消任何未付款的拍賣。理由由查詢參數傳遞。
func (h *AuctionHandler) CancelAuction(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)
	role := c.GetString(middleware.UserRoleKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	reason := c.Query("reason")
	if reason == "" {
		reason = "Cancelled by request"
	}

	if role != middleware.RoleAdmin {
		var auction models.Auction
		if err := h.DB.WithContext(c.Request.Context()).First(&auction, auctionID).Error; err != nil {
			h.notFoundOrError(c, err)
			return
		}
		if auction.SellerID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
				"code":    "forbidden",
				"message": "Only the seller or an admin can cancel this auction",
			}})
			return
		}
		if auction.HasBids() {
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "has_bids",
				"message": "Auction with bids can only be cancelled by an admin",
			}})
			return
		}
	}

	if err := h.cancelAuction(c, auctionID, userID, reason, false); err != nil {
		return
	}

	h.audit(c, &userID, models.ActionAuctionCancel, auctionID, gin.H{
		"reason": reason,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":     auctionID,
		"status": models.AuctionStatusCancelled,
	}})
}

// cancelAuction 共用的取消流程。rejection 為 true 時同時記錄駁回理由。
// 失敗時已寫入回應，呼叫端只需返回。
func (h *AuctionHandler) cancelAuction(c *gin.Context, auctionID, actorID uint64, reason string, rejection bool) error {
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
		h.notFoundOrError(c, err)
		return err
	}

	if !auction.CanCancel() {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "cannot_cancel",
			"message": "Auction cannot be cancelled in its current state",
		}})
		return errors.New("cannot cancel")
	}

	now := time.Now()
	oldStatus := auction.Status
	hadBids := auction.TotalBids > 0

	auction.Status = models.AuctionStatusCancelled
	auction.CancelledAt = &now
	auction.CancelledBy = &actorID
	auction.CancellationReason = reason
	auction.ClearSettlement()
	if rejection {
		auction.IsApproved = false
		auction.RejectionReason = reason
	}

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		h.Logger.Error("Failed to cancel auction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to cancel auction",
		}})
		return err
	}

	history := &models.AuctionStatusHistory{
		AuctionID:  auction.ID,
		FromStatus: string(oldStatus),
		ToStatus:   string(models.AuctionStatusCancelled),
		OperatorID: &actorID,
		Reason:     reason,
	}
	if err := tx.Create(history).Error; err != nil {
		h.Logger.Error("Failed to create status history", zap.Error(err))
	}

	eventType := models.EventTypeCancelled
	if rejection {
		eventType = models.EventTypeRejected
	}
	event := &models.AuctionEvent{
		AuctionID:   auction.ID,
		EventType:   eventType,
		ActorUserID: &actorID,
	}
	event.SetPayload(gin.H{"reason": reason, "had_bids": hadBids})
	if err := tx.Create(event).Error; err != nil {
		h.Logger.Error("Failed to create cancellation event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to cancel auction",
		}})
		return err
	}

	h.Logger.Info("Auction cancelled",
		zap.Uint64("auction_id", auction.ID),
		zap.Uint64("actor_id", actorID),
		zap.String("old_status", string(oldStatus)),
		zap.Bool("had_bids", hadBids),
	)

	if h.WSHandler != nil {
		h.WSHandler.BroadcastToAuction(auction.ID, websocket.MessageTypeState, gin.H{
			"status": auction.Status,
			"reason": reason,
		})
	}

	return nil
}

// RescheduleAuctionRequest 重排程（重新上架）請求
type RescheduleAuctionRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// RescheduleAuction 重新排程並重新上架。所有出價清空、價格回到起拍價。
// 賣家只能重排自己且尚無出價的拍賣；管理員不受出價限制，
// 且重排後直接核准上架。
func (h *AuctionHandler) RescheduleAuction(c *gin.Context) {
	userID := c.GetUint64(middleware.UserIDKey)
	role := c.GetString(middleware.UserRoleKey)
	isAdmin := role == middleware.RoleAdmin

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	var req RescheduleAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	startAt, err := parseSchedule(req.StartDate, req.StartTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": "Invalid start date or time: " + err.Error(),
		}})
		return
	}
	endAt, err := parseSchedule(req.EndDate, req.EndTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": "Invalid end date or time: " + err.Error(),
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
		h.notFoundOrError(c, err)
		return
	}

	if !isAdmin {
		if auction.SellerID != userID {
			tx.Rollback()
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{
				"code":    "forbidden",
				"message": "Only the seller or an admin can reschedule this auction",
			}})
			return
		}
		if auction.HasBids() {
			tx.Rollback()
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "has_bids",
				"message": "Auction with bids cannot be rescheduled by the seller",
			}})
			return
		}
	}

	if auction.Status == models.AuctionStatusEnded && auction.IsPaid {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{
			"code":    "already_paid",
			"message": "Paid auction cannot be rescheduled",
		}})
		return
	}

	oldStatus := auction.Status
	auction.StartDate = startAt
	auction.EndDate = endAt
	auction.ResetForRelist()

	if err := auction.ValidateSchedule(time.Now()); err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_schedule",
			"message": err.Error(),
		}})
		return
	}

	// 管理員重排直接核准上架，賣家重排回到待審核
	if isAdmin {
		auction.IsApproved = true
		auction.ApprovedBy = &userID
		now := time.Now()
		if !auction.StartDate.After(now) {
			auction.Status = models.AuctionStatusActive
			auction.ActivatedAt = &now
		} else {
			auction.Status = models.AuctionStatusScheduled
		}
	} else {
		auction.IsApproved = false
		auction.ApprovedBy = nil
		auction.Status = models.AuctionStatusPending
	}

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		h.Logger.Error("Failed to reschedule auction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to reschedule auction",
		}})
		return
	}

	// 舊的出價紀錄保留為歷史，重新上架後的出價從零開始

	history := &models.AuctionStatusHistory{
		AuctionID:  auction.ID,
		FromStatus: string(oldStatus),
		ToStatus:   string(auction.Status),
		OperatorID: &userID,
		Reason:     "Rescheduled and relisted",
	}
	if err := tx.Create(history).Error; err != nil {
		h.Logger.Error("Failed to create status history", zap.Error(err))
	}

	event := &models.AuctionEvent{
		AuctionID:   auction.ID,
		EventType:   models.EventTypeRelisted,
		ActorUserID: &userID,
	}
	event.SetPayload(gin.H{
		"start_date":   startAt,
		"end_date":     endAt,
		"relist_count": auction.RelistCount,
	})
	if err := tx.Create(event).Error; err != nil {
		h.Logger.Error("Failed to create relist event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to reschedule auction",
		}})
		return
	}

	h.audit(c, &userID, models.ActionAuctionReschedule, auction.ID, gin.H{
		"start_date":   startAt,
		"end_date":     endAt,
		"relist_count": auction.RelistCount,
	})

	h.Logger.Info("Auction rescheduled",
		zap.Uint64("auction_id", auction.ID),
		zap.Uint64("actor_id", userID),
		zap.Int("relist_count", auction.RelistCount),
	)

	c.JSON(http.StatusOK, gin.H{"data": auction})
}

// MarkPaid 管理員手動標記已付款（銀行轉帳等閘道外的付款方式）
func (h *AuctionHandler) MarkPaid(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	auctionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_auction_id",
			"message": "Invalid auction ID",
		}})
		return
	}

	auction, err := h.Auctions.MarkPaid(c.Request.Context(), auctionID, &adminID, "manual")
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			h.notFoundOrError(c, err)
		case errors.Is(err, services.ErrAuctionNotEnded),
			errors.Is(err, services.ErrAuctionAlreadyPaid),
			errors.Is(err, services.ErrNoWinner):
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "invalid_status",
				"message": err.Error(),
			}})
		default:
			h.Logger.Error("Failed to mark auction paid", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to mark auction as paid",
			}})
		}
		return
	}

	h.audit(c, &adminID, models.ActionAuctionMarkPaid, auctionID, gin.H{
		"payment_result": auction.PaymentResult,
	})

	c.JSON(http.StatusOK, gin.H{"data": auction})
}

// parseSchedule 解析日期（YYYY-MM-DD）與時刻（HH:MM），在固定時區下合併
func parseSchedule(dateStr, timeStr string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, timeutil.Zone)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.CombineDateTime(date, timeStr)
}

// notFoundOrError 將查詢錯誤轉為 404 或 500 回應
func (h *AuctionHandler) notFoundOrError(c *gin.Context, err error) {
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
		"message": "Internal server error",
	}})
}

// audit 寫入審計紀錄，失敗僅記錄
func (h *AuctionHandler) audit(c *gin.Context, userID *uint64, action string, entityID uint64, details interface{}) {
	log := models.NewAuditLog(userID, action, models.EntityTypeAuction, entityID, details)
	ip := c.ClientIP()
	log.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(log).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}
}
