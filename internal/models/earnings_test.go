package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 四個計數器的守恆：pending + withdrawn + available = total
func assertConservation(t *testing.T, p *AuctionAdminProfile) {
	t.Helper()
	sum := p.PendingWithdrawal.Add(p.TotalWithdrawn).Add(p.AvailableBalance)
	assert.True(t, sum.Equal(p.TotalEarnings),
		"conservation violated: pending=%s withdrawn=%s available=%s total=%s",
		p.PendingWithdrawal, p.TotalWithdrawn, p.AvailableBalance, p.TotalEarnings)
}

func TestProfileConservation(t *testing.T) {
	p := &AuctionAdminProfile{UserID: 1}
	assertConservation(t, p)

	p.Credit(decimal.NewFromInt(300))
	p.Credit(decimal.NewFromInt(150))
	assertConservation(t, p)
	assert.Equal(t, "450.00", p.AvailableBalance.StringFixed(2))

	require.NoError(t, p.HoldForWithdrawal(decimal.NewFromInt(200)))
	assertConservation(t, p)
	assert.Equal(t, "250.00", p.AvailableBalance.StringFixed(2))
	assert.Equal(t, "200.00", p.PendingWithdrawal.StringFixed(2))

	// 核准：待提領轉入累計已提領
	p.SettleWithdrawal(decimal.NewFromInt(200))
	assertConservation(t, p)
	assert.Equal(t, "200.00", p.TotalWithdrawn.StringFixed(2))
	assert.True(t, p.PendingWithdrawal.IsZero())

	// 再申請後駁回：待提領退回可用餘額
	require.NoError(t, p.HoldForWithdrawal(decimal.NewFromInt(100)))
	p.ReleaseWithdrawal(decimal.NewFromInt(100))
	assertConservation(t, p)
	assert.Equal(t, "250.00", p.AvailableBalance.StringFixed(2))
}

func TestHoldForWithdrawalRejectsOverdraft(t *testing.T) {
	p := &AuctionAdminProfile{UserID: 1}
	p.Credit(decimal.NewFromInt(100))

	err := p.HoldForWithdrawal(decimal.NewFromInt(150))
	assert.Error(t, err)
	assertConservation(t, p)
	assert.Equal(t, "100.00", p.AvailableBalance.StringFixed(2))
}

func TestHasBankDetails(t *testing.T) {
	p := &AuctionAdminProfile{UserID: 1}
	assert.False(t, p.HasBankDetails())

	p.BankName = "Bank of Georgia"
	p.BankAccount = "GE29NB0000000101904917"
	assert.False(t, p.HasBankDetails(), "account holder still missing")

	p.AccountHolder = "Nino Beridze"
	assert.True(t, p.HasBankDetails())
}

func TestWithdrawalEarningIDsRoundTrip(t *testing.T) {
	w := &AuctionAdminWithdrawal{}
	require.NoError(t, w.SetEarningIDs([]uint64{3, 7, 11}))

	ids, err := w.GetEarningIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 7, 11}, ids)
}
