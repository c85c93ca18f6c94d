package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionBid 出價表。僅追加，不更新不刪除；出價者名稱為下單瞬間的快照，
// 之後不再重新解析。
type AuctionBid struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AuctionID  uint64          `gorm:"not null;index:idx_auction_created,priority:1" json:"auction_id"`
	BidderID   uint64          `gorm:"not null;index" json:"bidder_id"`
	BidderName string          `gorm:"size:128;not null" json:"bidder_name"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index:idx_auction_created,priority:2" json:"created_at"`

	Auction *Auction `gorm:"foreignKey:AuctionID" json:"auction,omitempty"`
}

func (AuctionBid) TableName() string {
	return "auction_bids"
}
