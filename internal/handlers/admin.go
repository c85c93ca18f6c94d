package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"soulart_auction/internal/middleware"
	"soulart_auction/internal/models"
	"soulart_auction/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler 平台管理員操作：統計、佣金設定、提領審核
type AdminHandler struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	Settings *services.SettingsService
	Earnings *services.EarningsService
}

// GetStats 平台拍賣統計
func (h *AdminHandler) GetStats(c *gin.Context) {
	db := h.DB.WithContext(c.Request.Context())

	var statusCounts []struct {
		Status models.AuctionStatus `json:"status"`
		Count  int64                `json:"count"`
	}
	if err := db.Model(&models.Auction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		h.Logger.Error("Failed to get auction stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get statistics",
		}})
		return
	}

	var totals struct {
		PaidCount       int64  `json:"paid_count"`
		TotalSales      string `json:"total_sales"`
		TotalCommission string `json:"total_commission"`
	}
	if err := db.Model(&models.Auction{}).
		Select("count(*) as paid_count, coalesce(sum(current_price), 0) as total_sales, coalesce(sum(commission_amount), 0) as total_commission").
		Where("status = ? AND is_paid = ?", models.AuctionStatusEnded, true).
		Scan(&totals).Error; err != nil {
		h.Logger.Error("Failed to get sales totals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get statistics",
		}})
		return
	}

	var pendingWithdrawals int64
	db.Model(&models.AuctionAdminWithdrawal{}).
		Where("status = ?", models.WithdrawalStatusPending).
		Count(&pendingWithdrawals)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"by_status":           statusCounts,
		"paid_count":          totals.PaidCount,
		"total_sales":         totals.TotalSales,
		"total_commission":    totals.TotalCommission,
		"pending_withdrawals": pendingWithdrawals,
	}})
}

// GetSettings 取得佣金設定
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		h.Logger.Error("Failed to get settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get settings",
		}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// UpdateSettings 更新佣金設定。未帶的欄位保持不變。
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	var req services.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	settings, err := h.Settings.Update(c.Request.Context(), &req, adminID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_settings",
			"message": err.Error(),
		}})
		return
	}

	audit := models.NewAuditLog(&adminID, models.ActionSettingsUpdate, models.EntityTypeSettings, models.SettingsSingletonID, req)
	ip := c.ClientIP()
	audit.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	h.Logger.Info("Auction settings updated", zap.Uint64("admin_id", adminID))
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// ListWithdrawals 列出提領申請，可按狀態過濾
func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	query := h.DB.WithContext(c.Request.Context()).Model(&models.AuctionAdminWithdrawal{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var withdrawals []models.AuctionAdminWithdrawal
	if err := query.Order("created_at DESC").Limit(200).Find(&withdrawals).Error; err != nil {
		h.Logger.Error("Failed to list withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list withdrawals",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": withdrawals})
}

// ProcessWithdrawalRequest 審核提領：approve 或 reject
type ProcessWithdrawalRequest struct {
	Action          string `json:"action" binding:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason"`
	TransactionID   string `json:"transaction_id"`
}

// ProcessWithdrawal 審核一筆提領申請
func (h *AdminHandler) ProcessWithdrawal(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	withdrawalID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_withdrawal_id",
			"message": "Invalid withdrawal ID",
		}})
		return
	}

	var req ProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	approve := req.Action == "approve"
	if !approve && req.RejectionReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "reason_required",
			"message": "Rejection reason is required",
		}})
		return
	}

	withdrawal, err := h.Earnings.ProcessWithdrawal(c.Request.Context(), withdrawalID, adminID, approve, req.RejectionReason, req.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
				"code":    "withdrawal_not_found",
				"message": "Withdrawal request not found",
			}})
		case errors.Is(err, services.ErrWithdrawalFinalized):
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "already_processed",
				"message": err.Error(),
			}})
		default:
			h.Logger.Error("Failed to process withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to process withdrawal",
			}})
		}
		return
	}

	audit := models.NewAuditLog(&adminID, models.ActionWithdrawalProcess, models.EntityTypeWithdrawal, withdrawalID, gin.H{
		"action": req.Action,
		"amount": withdrawal.Amount.StringFixed(2),
	})
	ip := c.ClientIP()
	audit.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"data": withdrawal})
}
