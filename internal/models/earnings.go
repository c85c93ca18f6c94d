package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionAdminEarnings 拍賣管理員收益帳（每筆已結算付款的拍賣恰好一列，
// auction_id 唯一保證不重複入帳）
type AuctionAdminEarnings struct {
	ID                       uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AuctionID                uint64          `gorm:"not null;uniqueIndex" json:"auction_id"`
	AuctionAdminID           uint64          `gorm:"not null;index:idx_admin_withdrawn,priority:1" json:"auction_admin_id"`
	SaleAmount               decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sale_amount"`
	PlatformCommissionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"platform_commission_amount"`
	CommissionPercent        decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"commission_percent"`
	Amount                   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`

	// 顯示用快照
	SellerName   string `gorm:"size:128" json:"seller_name,omitempty"`
	BuyerName    string `gorm:"size:128" json:"buyer_name,omitempty"`
	AuctionTitle string `gorm:"size:255" json:"auction_title,omitempty"`

	IsWithdrawn  bool       `gorm:"not null;default:false;index:idx_admin_withdrawn,priority:2" json:"is_withdrawn"`
	WithdrawalID *uint64    `gorm:"index" json:"withdrawal_id,omitempty"`
	WithdrawnAt  *time.Time `json:"withdrawn_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (AuctionAdminEarnings) TableName() string {
	return "auction_admin_earnings"
}

// WithdrawalStatus 提領狀態
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusProcessed WithdrawalStatus = "processed"
)

// AuctionAdminWithdrawal 提領申請
type AuctionAdminWithdrawal struct {
	ID             uint64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AuctionAdminID uint64           `gorm:"not null;index:idx_admin_status,priority:1" json:"auction_admin_id"`
	Amount         decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	Status         WithdrawalStatus `gorm:"type:enum('pending','approved','rejected','processed');default:'pending';index;index:idx_admin_status,priority:2" json:"status"`

	// 申請當下的銀行資料快照
	BankName      string `gorm:"size:128" json:"bank_name"`
	BankAccount   string `gorm:"size:64" json:"bank_account"`
	AccountHolder string `gorm:"size:128" json:"account_holder"`

	EarningIDs      json.RawMessage `gorm:"type:json" json:"earning_ids"`
	ProcessedBy     *uint64         `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	RejectionReason string          `gorm:"size:255" json:"rejection_reason,omitempty"`
	TransactionID   string          `gorm:"size:64" json:"transaction_id,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (AuctionAdminWithdrawal) TableName() string {
	return "auction_admin_withdrawals"
}

// SetEarningIDs 設定本次提領涵蓋的收益紀錄
func (w *AuctionAdminWithdrawal) SetEarningIDs(ids []uint64) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	w.EarningIDs = raw
	return nil
}

// GetEarningIDs 取得本次提領涵蓋的收益紀錄
func (w *AuctionAdminWithdrawal) GetEarningIDs() ([]uint64, error) {
	var ids []uint64
	if len(w.EarningIDs) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(w.EarningIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AuctionAdminProfile 拍賣管理員帳戶。四個計數器在任何時點都必須滿足
// pending_withdrawal + total_withdrawn + available_balance = total_earnings。
type AuctionAdminProfile struct {
	UserID      uint64 `gorm:"primaryKey" json:"user_id"`
	DisplayName string `gorm:"size:128" json:"display_name,omitempty"`

	BankName      string `gorm:"size:128" json:"bank_name,omitempty"`
	BankAccount   string `gorm:"size:64" json:"bank_account,omitempty"`
	AccountHolder string `gorm:"size:128" json:"account_holder,omitempty"`

	TotalEarnings     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_earnings"`
	AvailableBalance  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"available_balance"`
	PendingWithdrawal decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"pending_withdrawal"`
	TotalWithdrawn    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_withdrawn"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AuctionAdminProfile) TableName() string {
	return "auction_admin_profiles"
}

// HasBankDetails 提領前必須填妥銀行資料
func (p *AuctionAdminProfile) HasBankDetails() bool {
	return p.BankName != "" && p.BankAccount != "" && p.AccountHolder != ""
}

// Credit 入帳一筆收益
func (p *AuctionAdminProfile) Credit(amount decimal.Decimal) {
	p.TotalEarnings = p.TotalEarnings.Add(amount)
	p.AvailableBalance = p.AvailableBalance.Add(amount)
}

// HoldForWithdrawal 提領申請：可用餘額轉入待提領
func (p *AuctionAdminProfile) HoldForWithdrawal(amount decimal.Decimal) error {
	if amount.GreaterThan(p.AvailableBalance) {
		return fmt.Errorf("withdrawal amount %s exceeds available balance %s",
			amount.StringFixed(2), p.AvailableBalance.StringFixed(2))
	}
	p.AvailableBalance = p.AvailableBalance.Sub(amount)
	p.PendingWithdrawal = p.PendingWithdrawal.Add(amount)
	return nil
}

// SettleWithdrawal 提領核准：待提領轉入累計已提領
func (p *AuctionAdminProfile) SettleWithdrawal(amount decimal.Decimal) {
	p.PendingWithdrawal = p.PendingWithdrawal.Sub(amount)
	p.TotalWithdrawn = p.TotalWithdrawn.Add(amount)
}

// ReleaseWithdrawal 提領駁回：待提領退回可用餘額
func (p *AuctionAdminProfile) ReleaseWithdrawal(amount decimal.Decimal) {
	p.PendingWithdrawal = p.PendingWithdrawal.Sub(amount)
	p.AvailableBalance = p.AvailableBalance.Add(amount)
}
