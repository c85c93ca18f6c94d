package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"soulart_auction/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 設定為讀多寫少，短暫快取即可，更新時立即失效
const settingsCacheTTL = 30 * time.Second

type SettingsService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	mu       sync.Mutex
	cached   *models.AuctionSettings
	cachedAt time.Time
}

// Get 取得佣金設定單例；不存在時以預設值（平台 10%、管理員 30%）建立
func (s *SettingsService) Get(ctx context.Context) (*models.AuctionSettings, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.cachedAt) < settingsCacheTTL {
		cached := *s.cached
		s.mu.Unlock()
		return &cached, nil
	}
	s.mu.Unlock()

	var settings models.AuctionSettings
	err := s.DB.WithContext(ctx).
		Where(models.AuctionSettings{ID: models.SettingsSingletonID}).
		Attrs(*models.NewDefaultSettings()).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load auction settings: %w", err)
	}

	s.mu.Lock()
	copied := settings
	s.cached = &copied
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return &settings, nil
}

// UpdateSettingsRequest 設定更新請求（欄位皆可選，nil 表示不變）
type UpdateSettingsRequest struct {
	PlatformCommissionPercent     *decimal.Decimal `json:"platform_commission_percent"`
	AuctionAdminCommissionPercent *decimal.Decimal `json:"auction_admin_commission_percent"`
	AuctionAdminUserID            *uint64          `json:"auction_admin_user_id"`
}

// Validate 百分比必須落在 [0,100]，且兩者合計不得超過 100
func (r *UpdateSettingsRequest) Validate() error {
	hundred := decimal.NewFromInt(100)
	for name, pct := range map[string]*decimal.Decimal{
		"platform_commission_percent":      r.PlatformCommissionPercent,
		"auction_admin_commission_percent": r.AuctionAdminCommissionPercent,
	} {
		if pct == nil {
			continue
		}
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return fmt.Errorf("%s must be between 0 and 100", name)
		}
	}
	if r.PlatformCommissionPercent != nil && r.AuctionAdminCommissionPercent != nil {
		if r.PlatformCommissionPercent.Add(*r.AuctionAdminCommissionPercent).GreaterThan(hundred) {
			return fmt.Errorf("combined commission percentages cannot exceed 100")
		}
	}
	return nil
}

// Update 更新佣金設定並讓快取失效
func (s *SettingsService) Update(ctx context.Context, req *UpdateSettingsRequest, updatedBy uint64) (*models.AuctionSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.PlatformCommissionPercent != nil {
		settings.PlatformCommissionPercent = *req.PlatformCommissionPercent
	}
	if req.AuctionAdminCommissionPercent != nil {
		settings.AuctionAdminCommissionPercent = *req.AuctionAdminCommissionPercent
	}
	if req.AuctionAdminUserID != nil {
		settings.AuctionAdminUserID = req.AuctionAdminUserID
	}
	settings.UpdatedBy = &updatedBy

	if err := s.DB.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, fmt.Errorf("failed to update auction settings: %w", err)
	}

	s.Invalidate()

	s.Logger.Info("Auction settings updated",
		zap.Uint64("updated_by", updatedBy),
		zap.String("platform_percent", settings.PlatformCommissionPercent.String()),
		zap.String("admin_percent", settings.AuctionAdminCommissionPercent.String()),
	)

	return settings, nil
}

// Invalidate 清除快取
func (s *SettingsService) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
