package commission

import (
	"github.com/shopspring/decimal"
)

// 結標時對賣家結算金額收取的固定平台手續費（與 AuctionSettings 的可調佣金
// 分屬兩個獨立池，不可合併計算）。
var sellerFeePercent = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// percentOf 金額的百分比，四捨五入到分
func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

// SellerSettlement 結標時的賣家結算：固定 10% 手續費。
// 恆有 fee + net == sale（到分精確）。
func SellerSettlement(sale decimal.Decimal) (fee, net decimal.Decimal) {
	fee = percentOf(sale, sellerFeePercent)
	net = sale.Sub(fee)
	return fee, net
}

// Split 管理員收益入帳時的佣金拆分
type Split struct {
	Platform     decimal.Decimal
	AuctionAdmin decimal.Decimal
}

// AdminSplit 依目前設定的百分比計算平台與拍賣管理員各自的佣金。
// 賣家的概念份額為 sale - Platform - AuctionAdmin，本服務不直接入帳。
func AdminSplit(sale, platformPercent, adminPercent decimal.Decimal) Split {
	return Split{
		Platform:     percentOf(sale, platformPercent),
		AuctionAdmin: percentOf(sale, adminPercent),
	}
}
