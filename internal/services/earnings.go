package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soulart_auction/internal/commission"
	"soulart_auction/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinWithdrawalAmount 單次提領下限（GEL）
var MinWithdrawalAmount = decimal.NewFromInt(50)

var (
	ErrBankDetailsMissing  = errors.New("bank details are required before requesting a withdrawal")
	ErrWithdrawalPending   = errors.New("a pending withdrawal request already exists")
	ErrAmountBelowMinimum  = errors.New("withdrawal amount is below the minimum")
	ErrInsufficientBalance = errors.New("withdrawal amount exceeds available balance")
	ErrWithdrawalFinalized = errors.New("withdrawal request has already been processed")
)

type EarningsService struct {
	DB       *gorm.DB
	Logger   *zap.Logger
	Settings *SettingsService
}

// RecordEarnings 為一筆已付款結算的拍賣入帳管理員收益。
// auction_id 唯一：重複呼叫回傳既有紀錄，不會重複入帳。
// 未設定拍賣管理員時記一條警告後跳過（回傳 nil, nil）。
func (s *EarningsService) RecordEarnings(ctx context.Context, auctionID uint64, saleAmount decimal.Decimal, sellerName, buyerName, auctionTitle string) (*models.AuctionAdminEarnings, error) {
	var existing models.AuctionAdminEarnings
	err := s.DB.WithContext(ctx).Where("auction_id = ?", auctionID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing earnings: %w", err)
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.AuctionAdminUserID == nil {
		s.Logger.Warn("No auction admin configured, skipping earnings record",
			zap.Uint64("auction_id", auctionID),
			zap.String("sale_amount", saleAmount.StringFixed(2)),
		)
		return nil, nil
	}
	adminID := *settings.AuctionAdminUserID

	split := commission.AdminSplit(saleAmount,
		settings.PlatformCommissionPercent, settings.AuctionAdminCommissionPercent)

	earnings := &models.AuctionAdminEarnings{
		AuctionID:                auctionID,
		AuctionAdminID:           adminID,
		SaleAmount:               saleAmount,
		PlatformCommissionAmount: split.Platform,
		CommissionPercent:        settings.AuctionAdminCommissionPercent,
		Amount:                   split.AuctionAdmin,
		SellerName:               sellerName,
		BuyerName:                buyerName,
		AuctionTitle:             auctionTitle,
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(earnings).Error; err != nil {
		tx.Rollback()
		// 併發下唯一索引擋住重複入帳，回傳先寫入的那筆
		var raced models.AuctionAdminEarnings
		if lookupErr := s.DB.WithContext(ctx).Where("auction_id = ?", auctionID).First(&raced).Error; lookupErr == nil {
			return &raced, nil
		}
		return nil, fmt.Errorf("failed to create earnings record: %w", err)
	}

	// 取得（或建立）管理員帳戶並入帳
	var profile models.AuctionAdminProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(models.AuctionAdminProfile{UserID: adminID}).
		FirstOrCreate(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load auction admin profile: %w", err)
	}

	profile.Credit(split.AuctionAdmin)
	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to credit auction admin profile: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit earnings transaction: %w", err)
	}

	s.Logger.Info("Recorded auction admin earnings",
		zap.Uint64("auction_id", auctionID),
		zap.Uint64("auction_admin_id", adminID),
		zap.String("sale_amount", saleAmount.StringFixed(2)),
		zap.String("admin_earnings", split.AuctionAdmin.StringFixed(2)),
		zap.String("platform_commission", split.Platform.StringFixed(2)),
	)

	return earnings, nil
}

// allocateEarnings 最舊優先的貪婪分配：依序選入未提領的收益列，直到累計
// 覆蓋申請金額。最後一列不拆分，因此實際提領總額可能高於申請金額。
func allocateEarnings(rows []models.AuctionAdminEarnings, requested decimal.Decimal) ([]models.AuctionAdminEarnings, decimal.Decimal) {
	var selected []models.AuctionAdminEarnings
	total := decimal.Zero
	for _, row := range rows {
		if total.GreaterThanOrEqual(requested) {
			break
		}
		selected = append(selected, row)
		total = total.Add(row.Amount)
	}
	return selected, total
}

// RequestWithdrawal 建立提領申請。規則：銀行資料齊全、無進行中的申請、
// 金額介於下限與可用餘額之間。選中的收益列立即標記為已提領。
func (s *EarningsService) RequestWithdrawal(ctx context.Context, adminID uint64, amount decimal.Decimal) (*models.AuctionAdminWithdrawal, error) {
	if amount.LessThan(MinWithdrawalAmount) {
		return nil, ErrAmountBelowMinimum
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var profile models.AuctionAdminProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, adminID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load auction admin profile: %w", err)
	}

	if !profile.HasBankDetails() {
		tx.Rollback()
		return nil, ErrBankDetailsMissing
	}

	// 一次只允許一筆進行中的申請
	var pendingCount int64
	if err := tx.Model(&models.AuctionAdminWithdrawal{}).
		Where("auction_admin_id = ? AND status = ?", adminID, models.WithdrawalStatusPending).
		Count(&pendingCount).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to check pending withdrawals: %w", err)
	}
	if pendingCount > 0 {
		tx.Rollback()
		return nil, ErrWithdrawalPending
	}

	var rows []models.AuctionAdminEarnings
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("auction_admin_id = ? AND is_withdrawn = ?", adminID, false).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load unwithdrawn earnings: %w", err)
	}

	available := decimal.Zero
	for _, row := range rows {
		available = available.Add(row.Amount)
	}
	if amount.GreaterThan(available) {
		tx.Rollback()
		return nil, ErrInsufficientBalance
	}

	selected, total := allocateEarnings(rows, amount)

	withdrawal := &models.AuctionAdminWithdrawal{
		AuctionAdminID: adminID,
		Amount:         total,
		Status:         models.WithdrawalStatusPending,
		BankName:       profile.BankName,
		BankAccount:    profile.BankAccount,
		AccountHolder:  profile.AccountHolder,
	}

	ids := make([]uint64, 0, len(selected))
	for _, row := range selected {
		ids = append(ids, row.ID)
	}
	if err := withdrawal.SetEarningIDs(ids); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to encode earning ids: %w", err)
	}

	if err := tx.Create(withdrawal).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	if err := tx.Model(&models.AuctionAdminEarnings{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"is_withdrawn":  true,
			"withdrawal_id": withdrawal.ID,
		}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark earnings as withdrawn: %w", err)
	}

	if err := profile.HoldForWithdrawal(total); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update profile counters: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal request: %w", err)
	}

	s.Logger.Info("Withdrawal requested",
		zap.Uint64("auction_admin_id", adminID),
		zap.Uint64("withdrawal_id", withdrawal.ID),
		zap.String("requested_amount", amount.StringFixed(2)),
		zap.String("allocated_amount", total.StringFixed(2)),
		zap.Int("earnings_count", len(ids)),
	)

	return withdrawal, nil
}

// ProcessWithdrawal 平台管理員核可或駁回提領。核可：待提領轉入已提領並在
// 收益列蓋上提領時間。駁回：counters 退回，收益列重新開放提領。
func (s *EarningsService) ProcessWithdrawal(ctx context.Context, withdrawalID, processorID uint64, approve bool, rejectionReason, transactionID string) (*models.AuctionAdminWithdrawal, error) {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var withdrawal models.AuctionAdminWithdrawal
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&withdrawal, withdrawalID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load withdrawal %d: %w", withdrawalID, err)
	}

	if withdrawal.Status != models.WithdrawalStatusPending {
		tx.Rollback()
		return nil, ErrWithdrawalFinalized
	}

	var profile models.AuctionAdminProfile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, withdrawal.AuctionAdminID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load auction admin profile: %w", err)
	}

	now := time.Now()
	withdrawal.ProcessedBy = &processorID
	withdrawal.ProcessedAt = &now

	if approve {
		withdrawal.Status = models.WithdrawalStatusProcessed
		withdrawal.TransactionID = transactionID
		profile.SettleWithdrawal(withdrawal.Amount)

		if err := tx.Model(&models.AuctionAdminEarnings{}).
			Where("withdrawal_id = ?", withdrawal.ID).
			Update("withdrawn_at", now).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to stamp earnings rows: %w", err)
		}
	} else {
		withdrawal.Status = models.WithdrawalStatusRejected
		withdrawal.RejectionReason = rejectionReason
		profile.ReleaseWithdrawal(withdrawal.Amount)

		if err := tx.Model(&models.AuctionAdminEarnings{}).
			Where("withdrawal_id = ?", withdrawal.ID).
			Updates(map[string]interface{}{
				"is_withdrawn":  false,
				"withdrawal_id": nil,
				"withdrawn_at":  nil,
			}).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to release earnings rows: %w", err)
		}
	}

	if err := tx.Save(&withdrawal).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update withdrawal: %w", err)
	}
	if err := tx.Save(&profile).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update profile counters: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal processing: %w", err)
	}

	s.Logger.Info("Withdrawal processed",
		zap.Uint64("withdrawal_id", withdrawal.ID),
		zap.Uint64("processed_by", processorID),
		zap.Bool("approved", approve),
		zap.String("amount", withdrawal.Amount.StringFixed(2)),
	)

	return &withdrawal, nil
}

// Profile 取得（必要時建立）拍賣管理員帳戶
func (s *EarningsService) Profile(ctx context.Context, adminID uint64) (*models.AuctionAdminProfile, error) {
	var profile models.AuctionAdminProfile
	err := s.DB.WithContext(ctx).
		Where(models.AuctionAdminProfile{UserID: adminID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load auction admin profile: %w", err)
	}
	return &profile, nil
}
