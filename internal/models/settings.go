package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 預設佣金比例（首次存取時以此建立單例紀錄）
var (
	DefaultPlatformCommissionPercent     = decimal.NewFromInt(10)
	DefaultAuctionAdminCommissionPercent = decimal.NewFromInt(30)
)

// AuctionSettings 拍賣佣金設定（單例，id 固定為 1）
type AuctionSettings struct {
	ID                            uint64          `gorm:"primaryKey" json:"id"`
	PlatformCommissionPercent     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"platform_commission_percent"`
	AuctionAdminCommissionPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"auction_admin_commission_percent"`
	AuctionAdminUserID            *uint64         `json:"auction_admin_user_id,omitempty"`
	UpdatedBy                     *uint64         `json:"updated_by,omitempty"`
	CreatedAt                     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AuctionSettings) TableName() string {
	return "auction_settings"
}

// SettingsSingletonID 單例紀錄固定主鍵
const SettingsSingletonID uint64 = 1

// NewDefaultSettings 以預設值建立單例設定
func NewDefaultSettings() *AuctionSettings {
	return &AuctionSettings{
		ID:                            SettingsSingletonID,
		PlatformCommissionPercent:     DefaultPlatformCommissionPercent,
		AuctionAdminCommissionPercent: DefaultAuctionAdminCommissionPercent,
	}
}
