package models

import (
	"encoding/json"
	"time"
)

// AuctionStatusHistory 拍賣狀態歷史
type AuctionStatusHistory struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AuctionID  uint64    `gorm:"not null;index" json:"auction_id"`
	FromStatus string    `gorm:"size:16;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:16;not null" json:"to_status"`
	Reason     string    `gorm:"size:255" json:"reason,omitempty"`
	OperatorID *uint64   `json:"operator_id,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Auction *Auction `gorm:"foreignKey:AuctionID" json:"auction,omitempty"`
}

func (AuctionStatusHistory) TableName() string {
	return "auction_status_history"
}

// EventType 事件類型
type EventType string

const (
	EventTypeApproved    EventType = "approved"
	EventTypeRejected    EventType = "rejected"
	EventTypeActivated   EventType = "activated"
	EventTypeBidAccepted EventType = "bid_accepted"
	EventTypeEnded       EventType = "ended"
	EventTypeCancelled   EventType = "cancelled"
	EventTypeRelisted    EventType = "relisted"
	EventTypePaid        EventType = "paid"
	EventTypeNotified    EventType = "notified"
	EventTypeError       EventType = "error"
)

// AuctionEvent 拍賣事件（WS 廣播對帳與審計）
type AuctionEvent struct {
	EventID     uint64          `gorm:"primaryKey;autoIncrement" json:"event_id"`
	AuctionID   uint64          `gorm:"not null;index" json:"auction_id"`
	EventType   EventType       `gorm:"type:enum('approved','rejected','activated','bid_accepted','ended','cancelled','relisted','paid','notified','error')" json:"event_type"`
	ActorUserID *uint64         `json:"actor_user_id,omitempty"`
	Payload     json.RawMessage `gorm:"type:json" json:"payload,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`

	Auction *Auction `gorm:"foreignKey:AuctionID" json:"auction,omitempty"`
}

func (AuctionEvent) TableName() string {
	return "auction_events"
}

// SetPayload 設定 payload
func (e *AuctionEvent) SetPayload(data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	e.Payload = payload
	return nil
}

// GetPayload 取得 payload
func (e *AuctionEvent) GetPayload(target interface{}) error {
	return json.Unmarshal(e.Payload, target)
}
