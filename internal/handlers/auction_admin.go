package handlers

import (
	"errors"
	"net/http"

	"soulart_auction/internal/middleware"
	"soulart_auction/internal/models"
	"soulart_auction/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuctionAdminHandler 拍賣管理員自助端點：收益、提領、帳戶
type AuctionAdminHandler struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	Earnings *services.EarningsService
}

// GetDashboard 收益總覽：四個餘額計數器加上最近的收益與提領
func (h *AuctionAdminHandler) GetDashboard(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	profile, err := h.Earnings.Profile(c.Request.Context(), adminID)
	if err != nil {
		h.Logger.Error("Failed to get admin profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get dashboard",
		}})
		return
	}

	var recentEarnings []models.AuctionAdminEarnings
	h.DB.WithContext(c.Request.Context()).
		Where("auction_admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(10).
		Find(&recentEarnings)

	var recentWithdrawals []models.AuctionAdminWithdrawal
	h.DB.WithContext(c.Request.Context()).
		Where("auction_admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(10).
		Find(&recentWithdrawals)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"profile":            profile,
		"recent_earnings":    recentEarnings,
		"recent_withdrawals": recentWithdrawals,
	}})
}

// ListPaidAuctions 已付款結算的拍賣列表（收益對帳）
func (h *AuctionAdminHandler) ListPaidAuctions(c *gin.Context) {
	var auctions []models.Auction
	if err := h.DB.WithContext(c.Request.Context()).
		Where("status = ? AND is_paid = ?", models.AuctionStatusEnded, true).
		Order("payment_date DESC").
		Limit(200).
		Find(&auctions).Error; err != nil {
		h.Logger.Error("Failed to list paid auctions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list paid auctions",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": auctions})
}

// ListEarnings 收益明細，可按提領狀態過濾
func (h *AuctionAdminHandler) ListEarnings(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	query := h.DB.WithContext(c.Request.Context()).
		Where("auction_admin_id = ?", adminID)
	if withdrawn := c.Query("is_withdrawn"); withdrawn != "" {
		query = query.Where("is_withdrawn = ?", withdrawn == "true")
	}

	var earnings []models.AuctionAdminEarnings
	if err := query.Order("created_at DESC").Limit(200).Find(&earnings).Error; err != nil {
		h.Logger.Error("Failed to list earnings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list earnings",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": earnings})
}

// GetProfile 取得帳戶（含銀行資料與餘額）
func (h *AuctionAdminHandler) GetProfile(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	profile, err := h.Earnings.Profile(c.Request.Context(), adminID)
	if err != nil {
		h.Logger.Error("Failed to get admin profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to get profile",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// UpdateProfileRequest 更新銀行資料
type UpdateProfileRequest struct {
	DisplayName   string `json:"display_name"`
	BankName      string `json:"bank_name"`
	BankAccount   string `json:"bank_account"`
	AccountHolder string `json:"account_holder"`
}

// UpdateProfile 更新帳戶的銀行資料（提領前必填）
func (h *AuctionAdminHandler) UpdateProfile(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	profile, err := h.Earnings.Profile(c.Request.Context(), adminID)
	if err != nil {
		h.Logger.Error("Failed to get admin profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to update profile",
		}})
		return
	}

	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	if req.BankName != "" {
		profile.BankName = req.BankName
	}
	if req.BankAccount != "" {
		profile.BankAccount = req.BankAccount
	}
	if req.AccountHolder != "" {
		profile.AccountHolder = req.AccountHolder
	}

	if err := h.DB.WithContext(c.Request.Context()).Save(profile).Error; err != nil {
		h.Logger.Error("Failed to update admin profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to update profile",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": profile})
}

// RequestWithdrawalRequest 提領申請
type RequestWithdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RequestWithdrawal 申請提領。實際提領金額按最舊優先的收益列配足，
// 可能高於申請金額。
func (h *AuctionAdminHandler) RequestWithdrawal(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	var req RequestWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
			"code":    "invalid_request",
			"message": err.Error(),
		}})
		return
	}

	withdrawal, err := h.Earnings.RequestWithdrawal(c.Request.Context(), adminID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountBelowMinimum):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code":           "below_minimum",
				"message":        err.Error(),
				"minimum_amount": services.MinWithdrawalAmount,
			}})
		case errors.Is(err, services.ErrBankDetailsMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
				"code":    "bank_details_missing",
				"message": err.Error(),
			}})
		case errors.Is(err, services.ErrWithdrawalPending):
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "withdrawal_pending",
				"message": err.Error(),
			}})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{
				"code":    "insufficient_balance",
				"message": err.Error(),
			}})
		default:
			h.Logger.Error("Failed to request withdrawal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to request withdrawal",
			}})
		}
		return
	}

	audit := models.NewAuditLog(&adminID, models.ActionWithdrawalRequest, models.EntityTypeWithdrawal, withdrawal.ID, gin.H{
		"requested_amount": req.Amount.StringFixed(2),
		"withdrawn_amount": withdrawal.Amount.StringFixed(2),
	})
	ip := c.ClientIP()
	audit.IPAddress = &ip
	if err := h.DB.WithContext(c.Request.Context()).Create(audit).Error; err != nil {
		h.Logger.Error("Failed to create audit log", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"data": withdrawal})
}

// ListMyWithdrawals 自己的提領紀錄
func (h *AuctionAdminHandler) ListMyWithdrawals(c *gin.Context) {
	adminID := c.GetUint64(middleware.UserIDKey)

	var withdrawals []models.AuctionAdminWithdrawal
	if err := h.DB.WithContext(c.Request.Context()).
		Where("auction_admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(200).
		Find(&withdrawals).Error; err != nil {
		h.Logger.Error("Failed to list withdrawals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"code":    "internal_error",
			"message": "Failed to list withdrawals",
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": withdrawals})
}
