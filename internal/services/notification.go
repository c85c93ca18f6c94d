package services

import (
	"context"
	"errors"
	"fmt"

	"soulart_auction/internal/config"
	"soulart_auction/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Config *config.Config
}

// QueueAuctionEndNotifications 拍賣結束通知：得標者與賣家各一封。
// 通知是盡力而為的副作用，任何失敗只記錄日誌，不回滾拍賣狀態。
func (s *NotificationService) QueueAuctionEndNotifications(ctx context.Context, auction *models.Auction) {
	if auction.HasWinner() {
		winnerMeta := map[string]interface{}{
			"title":            "You won the auction",
			"auction_title":    auction.Title,
			"final_price":      auction.CurrentPrice.StringFixed(2),
			"payment_deadline": auction.PaymentDeadline,
		}
		if err := s.queue(ctx, auction.ID, *auction.CurrentWinnerID, models.NotificationKindWinner, winnerMeta); err != nil {
			s.Logger.Error("Failed to queue winner notification",
				zap.Uint64("auction_id", auction.ID),
				zap.Uint64("winner_id", *auction.CurrentWinnerID),
				zap.Error(err),
			)
		}

		sellerMeta := map[string]interface{}{
			"title":           "Your auction has ended",
			"auction_title":   auction.Title,
			"final_price":     auction.CurrentPrice.StringFixed(2),
			"seller_earnings": auction.SellerEarnings.StringFixed(2),
		}
		if err := s.queue(ctx, auction.ID, auction.SellerID, models.NotificationKindSellerResult, sellerMeta); err != nil {
			s.Logger.Error("Failed to queue seller notification",
				zap.Uint64("auction_id", auction.ID),
				zap.Uint64("seller_id", auction.SellerID),
				zap.Error(err),
			)
		}
		return
	}

	meta := map[string]interface{}{
		"title":         "Your auction ended without bids",
		"auction_title": auction.Title,
	}
	if err := s.queue(ctx, auction.ID, auction.SellerID, models.NotificationKindNoWinner, meta); err != nil {
		s.Logger.Error("Failed to queue no-winner notification",
			zap.Uint64("auction_id", auction.ID),
			zap.Error(err),
		)
	}
}

// QueuePaymentNotification 買家完成付款後通知賣家
func (s *NotificationService) QueuePaymentNotification(ctx context.Context, auction *models.Auction) {
	meta := map[string]interface{}{
		"title":           "Payment received for your auction",
		"auction_title":   auction.Title,
		"seller_earnings": auction.SellerEarnings.StringFixed(2),
	}
	if err := s.queue(ctx, auction.ID, auction.SellerID, models.NotificationKindPaymentReceived, meta); err != nil {
		s.Logger.Error("Failed to queue payment notification",
			zap.Uint64("auction_id", auction.ID),
			zap.Error(err),
		)
	}
}

// queue 將通知加入佇列；(auction, user, kind) 已存在時直接跳過
func (s *NotificationService) queue(ctx context.Context, auctionID, userID uint64, kind models.NotificationKind, meta map[string]interface{}) error {
	var existing models.AuctionNotificationLog
	err := s.DB.WithContext(ctx).
		Where("auction_id = ? AND user_id = ? AND kind = ?", auctionID, userID, kind).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing notification: %w", err)
	}

	notification := &models.AuctionNotificationLog{
		AuctionID: auctionID,
		UserID:    userID,
		Kind:      kind,
		Channel:   models.NotificationChannelEmail,
		Status:    models.NotificationStatusQueued,
	}
	if err := notification.SetMeta(meta); err != nil {
		return fmt.Errorf("failed to set notification meta: %w", err)
	}

	if err := s.DB.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	event := &models.AuctionEvent{
		AuctionID:   auctionID,
		EventType:   models.EventTypeNotified,
		ActorUserID: &userID,
	}
	event.SetPayload(map[string]interface{}{
		"notification_kind": string(kind),
		"user_id":           userID,
	})
	if err := s.DB.WithContext(ctx).Create(event).Error; err != nil {
		s.Logger.Error("Failed to create notification event", zap.Error(err))
	}

	return nil
}

// ProcessQueue 處理通知佇列，回傳成功發送的筆數
func (s *NotificationService) ProcessQueue(ctx context.Context) (int, error) {
	var notifications []models.AuctionNotificationLog
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.NotificationStatusQueued).
		Limit(100).Find(&notifications).Error; err != nil {
		return 0, fmt.Errorf("failed to get queued notifications: %w", err)
	}

	if len(notifications) == 0 {
		return 0, nil
	}

	s.Logger.Info("Processing notification queue", zap.Int("count", len(notifications)))

	sent := 0
	for _, notification := range notifications {
		if err := s.send(&notification); err != nil {
			s.Logger.Error("Failed to send notification",
				zap.Uint64("notification_id", notification.ID),
				zap.Uint64("user_id", notification.UserID),
				zap.String("kind", string(notification.Kind)),
				zap.Error(err),
			)
			notification.MarkAsFailed()
		} else {
			notification.MarkAsSent()
			sent++
		}
		if err := s.DB.WithContext(ctx).Save(&notification).Error; err != nil {
			s.Logger.Error("Failed to update notification status",
				zap.Uint64("notification_id", notification.ID),
				zap.String("status", string(notification.Status)),
				zap.Error(err),
			)
		}
	}

	return sent, nil
}

// send 實際發送（SMTP 整合前的模擬實作，僅記錄日誌）
func (s *NotificationService) send(notification *models.AuctionNotificationLog) error {
	var meta map[string]interface{}
	if err := notification.GetMeta(&meta); err != nil {
		return fmt.Errorf("failed to get notification meta: %w", err)
	}

	s.Logger.Info("Sending notification (mock)",
		zap.Uint64("user_id", notification.UserID),
		zap.String("kind", string(notification.Kind)),
		zap.String("channel", string(notification.Channel)),
		zap.Any("meta", meta),
	)

	return nil
}
