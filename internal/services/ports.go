package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// UserDirectory 主站用戶子系統的對接口：查顯示名稱、入帳賣家餘額。
// 實作見 internal/userdir。
type UserDirectory interface {
	DisplayName(ctx context.Context, userID uint64) (string, error)
	CreditBalance(ctx context.Context, userID uint64, amount decimal.Decimal) error
}
