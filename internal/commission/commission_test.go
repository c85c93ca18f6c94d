package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSellerSettlement(t *testing.T) {
	tests := []struct {
		name    string
		sale    string
		wantFee string
		wantNet string
	}{
		{"round amount", "1000.00", "100.00", "900.00"},
		{"small amount", "100.00", "10.00", "90.00"},
		{"cent precision", "123.45", "12.35", "111.10"},
		{"odd cents", "99.99", "10.00", "89.99"},
		{"zero", "0.00", "0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, net := SellerSettlement(d(tt.sale))
			assert.True(t, fee.Equal(d(tt.wantFee)), "fee = %s, want %s", fee, tt.wantFee)
			assert.True(t, net.Equal(d(tt.wantNet)), "net = %s, want %s", net, tt.wantNet)
		})
	}
}

// 結算守恆：手續費加賣家淨額必須剛好等於成交價。
func TestSellerSettlementConservation(t *testing.T) {
	for _, sale := range []string{"1000.00", "0.01", "33.33", "123456.78", "99999.99"} {
		fee, net := SellerSettlement(d(sale))
		require.True(t, fee.Add(net).Equal(d(sale)),
			"fee %s + net %s != sale %s", fee, net, sale)
	}
}

func TestAdminSplit(t *testing.T) {
	tests := []struct {
		name         string
		sale         string
		platformPct  string
		adminPct     string
		wantPlatform string
		wantAdmin    string
	}{
		{"default percentages", "1000.00", "10", "30", "100.00", "300.00"},
		{"custom percentages", "500.00", "15", "25", "75.00", "125.00"},
		{"rounding to cents", "333.33", "10", "30", "33.33", "100.00"},
		{"zero admin percent", "1000.00", "10", "0", "100.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := AdminSplit(d(tt.sale), d(tt.platformPct), d(tt.adminPct))
			assert.True(t, split.Platform.Equal(d(tt.wantPlatform)),
				"platform = %s, want %s", split.Platform, tt.wantPlatform)
			assert.True(t, split.AuctionAdmin.Equal(d(tt.wantAdmin)),
				"admin = %s, want %s", split.AuctionAdmin, tt.wantAdmin)
		})
	}
}

// 兩個佣金池彼此獨立：結標的固定 10% 手續費不受設定百分比影響。
func TestCommissionPoolsAreIndependent(t *testing.T) {
	sale := d("1000.00")

	fee, _ := SellerSettlement(sale)
	split := AdminSplit(sale, d("20"), d("40"))

	assert.True(t, fee.Equal(d("100.00")))
	assert.True(t, split.Platform.Equal(d("200.00")))
	assert.True(t, split.AuctionAdmin.Equal(d("400.00")))
}
