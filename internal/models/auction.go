package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus 拍賣狀態
type AuctionStatus string

const (
	AuctionStatusPending   AuctionStatus = "pending"
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
	AuctionStatusCancelled AuctionStatus = "cancelled"
)

// Auction 拍賣主表（聚合根）
type Auction struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID uint64 `gorm:"not null;index:idx_seller_created,priority:1" json:"seller_id"`

	// 作品資訊（創建後不可變）
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	ArtworkType string          `gorm:"size:64;index" json:"artwork_type,omitempty"`
	Dimensions  string          `gorm:"size:128" json:"dimensions,omitempty"`
	Material    string          `gorm:"size:128;index" json:"material,omitempty"`
	Images      json.RawMessage `gorm:"type:json" json:"images,omitempty"`

	StartingPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"starting_price"`
	MinBidIncrement decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_bid_increment"`
	StartDate       time.Time       `gorm:"not null;index:idx_status_start,priority:2" json:"start_date"`
	EndDate         time.Time       `gorm:"not null;index:idx_status_end,priority:2" json:"end_date"`
	DeliveryTerms   string          `gorm:"size:255" json:"delivery_terms,omitempty"`

	// 生命週期欄位
	Status          AuctionStatus   `gorm:"type:enum('pending','scheduled','active','ended','cancelled');default:'pending';index:idx_status_end,priority:1;index:idx_status_start,priority:1" json:"status"`
	CurrentPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"current_price"`
	CurrentWinnerID *uint64         `gorm:"index" json:"current_winner_id,omitempty"`
	TotalBids       int             `gorm:"not null;default:0" json:"total_bids"`
	IsApproved      bool            `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy      *uint64         `json:"approved_by,omitempty"`
	RejectionReason string          `gorm:"size:255" json:"rejection_reason,omitempty"`
	RelistCount     int             `gorm:"not null;default:0" json:"relist_count"`
	ActivatedAt     *time.Time      `json:"activated_at,omitempty"`

	// 結算欄位
	EndedAt            *time.Time      `json:"ended_at,omitempty"`
	PaymentDeadline    *time.Time      `json:"payment_deadline,omitempty"`
	IsPaid             bool            `gorm:"not null;default:false" json:"is_paid"`
	PaymentDate        *time.Time      `json:"payment_date,omitempty"`
	CommissionAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"commission_amount"`
	SellerEarnings     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"seller_earnings"`
	WinnerDeliveryZone string          `gorm:"size:64" json:"winner_delivery_zone,omitempty"`
	DeliveryFee        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"delivery_fee"`
	TotalPayment       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_payment"`
	ShippingAddress    string          `gorm:"size:512" json:"shipping_address,omitempty"`
	BogOrderID         string          `gorm:"size:64" json:"bog_order_id,omitempty"`
	ExternalOrderID    *string         `gorm:"size:64;uniqueIndex" json:"external_order_id,omitempty"`
	PaymentResult      string          `gorm:"size:32" json:"payment_result,omitempty"`

	// 取消資訊
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *uint64    `json:"cancelled_by,omitempty"`
	CancellationReason string     `gorm:"size:255" json:"cancellation_reason,omitempty"`

	// 樂觀鎖版本號
	Version   uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_seller_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Bids []AuctionBid `gorm:"foreignKey:AuctionID" json:"bids,omitempty"`
}

func (Auction) TableName() string {
	return "auctions"
}

// SetImages 設定作品圖片列表
func (a *Auction) SetImages(urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	a.Images = data
	return nil
}

// IsActive 檢查拍賣是否為活躍（可出價）狀態
func (a *Auction) IsActive() bool {
	return a.Status == AuctionStatusActive
}

// HasWinner 檢查拍賣是否有得標者
func (a *Auction) HasWinner() bool {
	return a.CurrentWinnerID != nil && a.TotalBids > 0
}

// CanCancel 已付款的拍賣不可取消
func (a *Auction) CanCancel() bool {
	if a.Status == AuctionStatusCancelled {
		return false
	}
	if a.Status == AuctionStatusEnded && a.IsPaid {
		return false
	}
	return true
}

// HasBids 已有出價的拍賣，賣家不得自行重排或取消（任何狀態皆然），
// 僅管理員可介入
func (a *Auction) HasBids() bool {
	return a.TotalBids > 0
}

// MinimumNextBid 下一個可接受的出價金額
func (a *Auction) MinimumNextBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.MinBidIncrement)
}

// BidTooLowError 出價低於最低可接受金額
type BidTooLowError struct {
	Minimum decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid amount is below the minimum acceptable bid of %s", e.Minimum.StringFixed(2))
}

// 出價驗證錯誤
var (
	ErrAuctionNotActive = fmt.Errorf("auction is not active")
	ErrAuctionEnded     = fmt.Errorf("auction has already ended")
	ErrSelfBid          = fmt.Errorf("seller cannot bid on own auction")
)

// ValidateBid 驗證一筆出價（不落庫，僅檢查規則）
func (a *Auction) ValidateBid(bidderID uint64, amount decimal.Decimal, now time.Time) error {
	if !a.IsActive() {
		return ErrAuctionNotActive
	}
	if now.After(a.EndDate) {
		return ErrAuctionEnded
	}
	if bidderID == a.SellerID {
		return ErrSelfBid
	}
	if amount.LessThan(a.MinimumNextBid()) {
		return &BidTooLowError{Minimum: a.MinimumNextBid()}
	}
	return nil
}

// ValidateSchedule 驗證排程時間窗
func (a *Auction) ValidateSchedule(now time.Time) error {
	if !a.StartDate.Before(a.EndDate) {
		return fmt.Errorf("start date must be before end date")
	}
	if !a.EndDate.After(now) {
		return fmt.Errorf("end date must be in the future")
	}
	return nil
}

// ResetForRelist 重新上架：清除所有出價相關欄位並回到初始價格。
// 重排程（無論賣家或管理員發起）一律經過這裡，relist_count 遞增。
func (a *Auction) ResetForRelist() {
	a.CurrentPrice = a.StartingPrice
	a.CurrentWinnerID = nil
	a.TotalBids = 0
	a.ClearSettlement()
	a.CancelledAt = nil
	a.CancelledBy = nil
	a.CancellationReason = ""
	a.ActivatedAt = nil
	a.RelistCount++
}

// ClearSettlement 清除結算欄位（取消或重新上架時）
func (a *Auction) ClearSettlement() {
	a.EndedAt = nil
	a.PaymentDeadline = nil
	a.IsPaid = false
	a.PaymentDate = nil
	a.CommissionAmount = decimal.Zero
	a.SellerEarnings = decimal.Zero
	a.WinnerDeliveryZone = ""
	a.DeliveryFee = decimal.Zero
	a.TotalPayment = decimal.Zero
	a.ShippingAddress = ""
	a.BogOrderID = ""
	a.ExternalOrderID = nil
	a.PaymentResult = ""
}
