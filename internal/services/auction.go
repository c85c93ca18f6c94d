package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soulart_auction/internal/commission"
	"soulart_auction/internal/models"
	"soulart_auction/internal/timeutil"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAuctionFinalized   = errors.New("auction has already been finalized")
	ErrConcurrentBid      = errors.New("auction was modified concurrently, please retry")
	ErrAuctionNotEnded    = errors.New("auction has not ended")
	ErrAuctionAlreadyPaid = errors.New("auction has already been paid")
	ErrNoWinner           = errors.New("auction ended without a winner")
)

type AuctionService struct {
	DB            *gorm.DB
	Logger        *zap.Logger
	Users         UserDirectory
	Earnings      *EarningsService
	Notifications *NotificationService
}

// PlaceBid 提交出價。拍賣列以 FOR UPDATE 鎖定，更新時再以版本號與
// current_price 條件防護，兩個併發出價者不可能同時通過最低加價檢查。
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID uint64, bidderName string, amount decimal.Decimal) (*models.AuctionBid, *models.Auction, error) {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var auction models.Auction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&auction, auctionID).Error; err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	if err := auction.ValidateBid(bidderID, amount, time.Now()); err != nil {
		tx.Rollback()
		return nil, nil, err
	}

	// 條件更新：版本或價格在讀取後被其他出價改動時影響列數為 0
	res := tx.Model(&models.Auction{}).
		Where("id = ? AND version = ? AND status = ?",
			auction.ID, auction.Version, models.AuctionStatusActive).
		Where("? >= current_price + min_bid_increment", amount).
		Updates(map[string]interface{}{
			"current_price":     amount,
			"current_winner_id": bidderID,
			"total_bids":        gorm.Expr("total_bids + 1"),
			"version":           gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("failed to update auction price: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, nil, ErrConcurrentBid
	}

	bid := &models.AuctionBid{
		AuctionID:  auctionID,
		BidderID:   bidderID,
		BidderName: bidderName,
		Amount:     amount,
	}
	if err := tx.Create(bid).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("failed to create bid: %w", err)
	}

	event := &models.AuctionEvent{
		AuctionID:   auctionID,
		EventType:   models.EventTypeBidAccepted,
		ActorUserID: &bidderID,
	}
	event.SetPayload(map[string]interface{}{
		"amount":     amount.StringFixed(2),
		"total_bids": auction.TotalBids + 1,
	})
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("failed to create bid event: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, fmt.Errorf("failed to commit bid transaction: %w", err)
	}

	auction.CurrentPrice = amount
	auction.CurrentWinnerID = &bidderID
	auction.TotalBids++

	s.Logger.Info("Bid accepted",
		zap.Uint64("auction_id", auctionID),
		zap.Uint64("bidder_id", bidderID),
		zap.String("amount", amount.StringFixed(2)),
		zap.Int("total_bids", auction.TotalBids),
	)

	// 競價失利者的即時通知尚未實作，目前僅透過 WS 廣播與事件列呈現

	return bid, &auction, nil
}

// EndAuction 結束一場拍賣：寫入結束時間，有得標者時計算付款期限與賣家
// 結算（固定 10% 手續費），之後盡力發送通知。
func (s *AuctionService) EndAuction(ctx context.Context, auctionID uint64, reason string) error {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var auction models.Auction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&auction, auctionID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to find auction %d: %w", auctionID, err)
	}

	if auction.Status == models.AuctionStatusEnded || auction.Status == models.AuctionStatusCancelled {
		tx.Rollback()
		return ErrAuctionFinalized
	}

	now := time.Now()
	oldStatus := auction.Status
	auction.Status = models.AuctionStatusEnded
	auction.EndedAt = &now

	if auction.HasWinner() {
		deadline := timeutil.PaymentDeadline(now)
		auction.PaymentDeadline = &deadline

		fee, net := commission.SellerSettlement(auction.CurrentPrice)
		auction.CommissionAmount = fee
		auction.SellerEarnings = net
	} else {
		auction.CommissionAmount = decimal.Zero
		auction.SellerEarnings = decimal.Zero
	}

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to end auction %d: %w", auctionID, err)
	}

	history := &models.AuctionStatusHistory{
		AuctionID:  auctionID,
		FromStatus: string(oldStatus),
		ToStatus:   string(auction.Status),
		Reason:     reason,
	}
	if err := tx.Create(history).Error; err != nil {
		s.Logger.Error("Failed to create status history", zap.Error(err))
	}

	event := &models.AuctionEvent{
		AuctionID: auctionID,
		EventType: models.EventTypeEnded,
	}
	event.SetPayload(map[string]interface{}{
		"ended_at":         now,
		"has_winner":       auction.HasWinner(),
		"final_price":      auction.CurrentPrice.StringFixed(2),
		"total_bids":       auction.TotalBids,
		"payment_deadline": auction.PaymentDeadline,
	})
	if err := tx.Create(event).Error; err != nil {
		s.Logger.Error("Failed to create end event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit end transaction: %w", err)
	}

	s.Logger.Info("Auction ended",
		zap.Uint64("auction_id", auctionID),
		zap.String("old_status", string(oldStatus)),
		zap.Bool("has_winner", auction.HasWinner()),
		zap.String("final_price", auction.CurrentPrice.StringFixed(2)),
	)

	// 通知失敗不影響已提交的狀態轉移
	s.Notifications.QueueAuctionEndNotifications(ctx, &auction)

	return nil
}

// ActivationSweep 排程掃描：把開始時間已到的 scheduled 拍賣轉為 active。
// 結束時間也已過的直接結束（從未活躍過的邊界情況）。
// 單一拍賣失敗不中斷整輪掃描。
func (s *AuctionService) ActivationSweep(ctx context.Context) (int, error) {
	now := time.Now()

	var auctions []models.Auction
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND start_date <= ?", models.AuctionStatusScheduled, now).
		Find(&auctions).Error; err != nil {
		return 0, fmt.Errorf("failed to find scheduled auctions: %w", err)
	}

	processed := 0
	for _, auction := range auctions {
		var err error
		if !auction.EndDate.After(now) {
			err = s.EndAuction(ctx, auction.ID, "Ended by activation sweep (end date already passed)")
		} else {
			err = s.activate(ctx, auction.ID)
		}
		if err != nil {
			s.Logger.Error("Activation sweep failed for auction",
				zap.Uint64("auction_id", auction.ID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	return processed, nil
}

// SettlementSweep 結束掃描：把結束時間已到的 active 拍賣結束
func (s *AuctionService) SettlementSweep(ctx context.Context) (int, error) {
	now := time.Now()

	var auctions []models.Auction
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND end_date <= ?", models.AuctionStatusActive, now).
		Find(&auctions).Error; err != nil {
		return 0, fmt.Errorf("failed to find ended auctions: %w", err)
	}

	processed := 0
	for _, auction := range auctions {
		if err := s.EndAuction(ctx, auction.ID, "Ended by settlement sweep"); err != nil {
			s.Logger.Error("Settlement sweep failed for auction",
				zap.Uint64("auction_id", auction.ID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	return processed, nil
}

// activate 單場拍賣 scheduled → active
func (s *AuctionService) activate(ctx context.Context, auctionID uint64) error {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var auction models.Auction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&auction, auctionID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to find auction %d: %w", auctionID, err)
	}

	if auction.Status != models.AuctionStatusScheduled {
		tx.Rollback()
		return nil // 已被其他流程處理
	}

	now := time.Now()
	auction.Status = models.AuctionStatusActive
	auction.ActivatedAt = &now

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to activate auction %d: %w", auctionID, err)
	}

	history := &models.AuctionStatusHistory{
		AuctionID:  auctionID,
		FromStatus: string(models.AuctionStatusScheduled),
		ToStatus:   string(models.AuctionStatusActive),
		Reason:     "Activated by scheduled sweep (start time reached)",
	}
	if err := tx.Create(history).Error; err != nil {
		s.Logger.Error("Failed to create status history", zap.Error(err))
	}

	event := &models.AuctionEvent{
		AuctionID: auctionID,
		EventType: models.EventTypeActivated,
	}
	if err := tx.Create(event).Error; err != nil {
		s.Logger.Error("Failed to create activation event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}

	s.Logger.Info("Auction activated", zap.Uint64("auction_id", auctionID))
	return nil
}

// MarkPaid 把已結束的拍賣標記為已付款，入帳賣家餘額並寫入管理員收益帳。
// actor 為 nil 時表示由支付閘道回呼觸發。
func (s *AuctionService) MarkPaid(ctx context.Context, auctionID uint64, actor *uint64, paymentResult string) (*models.Auction, error) {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var auction models.Auction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&auction, auctionID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if auction.Status != models.AuctionStatusEnded {
		tx.Rollback()
		return nil, ErrAuctionNotEnded
	}
	if auction.IsPaid {
		tx.Rollback()
		return nil, ErrAuctionAlreadyPaid
	}
	if !auction.HasWinner() {
		tx.Rollback()
		return nil, ErrNoWinner
	}

	now := time.Now()
	auction.IsPaid = true
	auction.PaymentDate = &now
	if paymentResult != "" {
		auction.PaymentResult = paymentResult
	}

	if err := tx.Save(&auction).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to mark auction paid: %w", err)
	}

	event := &models.AuctionEvent{
		AuctionID:   auctionID,
		EventType:   models.EventTypePaid,
		ActorUserID: actor,
	}
	event.SetPayload(map[string]interface{}{
		"payment_date":    now,
		"payment_result":  auction.PaymentResult,
		"seller_earnings": auction.SellerEarnings.StringFixed(2),
	})
	if err := tx.Create(event).Error; err != nil {
		s.Logger.Error("Failed to create paid event", zap.Error(err))
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit mark-paid transaction: %w", err)
	}

	s.Logger.Info("Auction marked as paid",
		zap.Uint64("auction_id", auctionID),
		zap.String("seller_earnings", auction.SellerEarnings.StringFixed(2)),
	)

	s.settleSideEffects(ctx, &auction)

	return &auction, nil
}

// settleSideEffects 付款後的外部副作用：賣家入帳、管理員收益、通知。
// 狀態轉移已提交，這裡的失敗只記錄，不回滾。
func (s *AuctionService) settleSideEffects(ctx context.Context, auction *models.Auction) {
	if err := s.Users.CreditBalance(ctx, auction.SellerID, auction.SellerEarnings); err != nil {
		s.Logger.Error("Failed to credit seller balance",
			zap.Uint64("auction_id", auction.ID),
			zap.Uint64("seller_id", auction.SellerID),
			zap.String("amount", auction.SellerEarnings.StringFixed(2)),
			zap.Error(err),
		)
		s.recordErrorEvent(ctx, auction.ID, "seller_credit_failed", err)
	}

	sellerName, err := s.Users.DisplayName(ctx, auction.SellerID)
	if err != nil {
		s.Logger.Warn("Failed to resolve seller name", zap.Error(err))
		sellerName = fmt.Sprintf("Seller #%d", auction.SellerID)
	}
	buyerName := ""
	if auction.CurrentWinnerID != nil {
		buyerName, err = s.Users.DisplayName(ctx, *auction.CurrentWinnerID)
		if err != nil {
			s.Logger.Warn("Failed to resolve buyer name", zap.Error(err))
			buyerName = fmt.Sprintf("Bidder #%d", *auction.CurrentWinnerID)
		}
	}

	if _, err := s.Earnings.RecordEarnings(ctx, auction.ID, auction.CurrentPrice, sellerName, buyerName, auction.Title); err != nil {
		s.Logger.Error("Failed to record auction admin earnings",
			zap.Uint64("auction_id", auction.ID),
			zap.Error(err),
		)
		s.recordErrorEvent(ctx, auction.ID, "earnings_record_failed", err)
	}

	s.Notifications.QueuePaymentNotification(ctx, auction)
}

func (s *AuctionService) recordErrorEvent(ctx context.Context, auctionID uint64, kind string, cause error) {
	event := &models.AuctionEvent{
		AuctionID: auctionID,
		EventType: models.EventTypeError,
	}
	event.SetPayload(map[string]interface{}{
		"kind":  kind,
		"error": cause.Error(),
	})
	if err := s.DB.WithContext(ctx).Create(event).Error; err != nil {
		s.Logger.Error("Failed to create error event", zap.Error(err))
	}
}
