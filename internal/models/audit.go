package models

import (
	"encoding/json"
	"time"
)

// AuditLog 審計日誌
type AuditLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint64   `json:"user_id,omitempty"`
	Event     string    `gorm:"size:100;not null" json:"event"`
	Details   *string   `gorm:"type:text" json:"details,omitempty"`
	IPAddress *string   `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent *string   `gorm:"size:500" json:"user_agent,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Action constants
const (
	ActionAuctionCreate     = "AUCTION_CREATE"
	ActionAuctionApprove    = "AUCTION_APPROVE"
	ActionAuctionReject     = "AUCTION_REJECT"
	ActionAuctionCancel     = "AUCTION_CANCEL"
	ActionAuctionReschedule = "AUCTION_RESCHEDULE"
	ActionAuctionEnd        = "AUCTION_END"
	ActionAuctionMarkPaid   = "AUCTION_MARK_PAID"
	ActionBidPlace          = "BID_PLACE"
	ActionSettingsUpdate    = "SETTINGS_UPDATE"
	ActionWithdrawalRequest = "WITHDRAWAL_REQUEST"
	ActionWithdrawalProcess = "WITHDRAWAL_PROCESS"
	ActionPaymentInitiate   = "PAYMENT_INITIATE"
	ActionPaymentCallback   = "PAYMENT_CALLBACK"
)

// Entity types
const (
	EntityTypeAuction    = "auction"
	EntityTypeBid        = "bid"
	EntityTypeSettings   = "settings"
	EntityTypeEarnings   = "earnings"
	EntityTypeWithdrawal = "withdrawal"
)

// SetDetails 設定詳細資訊為 JSON
func (a *AuditLog) SetDetails(data interface{}) error {
	detailsJSON, err := json.Marshal(data)
	if err != nil {
		return err
	}
	detailsStr := string(detailsJSON)
	a.Details = &detailsStr
	return nil
}

// NewAuditLog 創建新的審計日誌
func NewAuditLog(userID *uint64, action, entityType string, entityID uint64, entityData interface{}) *AuditLog {
	auditLog := &AuditLog{
		UserID: userID,
		Event:  action,
	}

	auditLog.SetDetails(map[string]interface{}{
		"action":      action,
		"entity_type": entityType,
		"entity_id":   entityID,
		"entity_data": entityData,
	})

	return auditLog
}
