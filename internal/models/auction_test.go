package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeAuction() *Auction {
	return &Auction{
		ID:              1,
		SellerID:        10,
		StartingPrice:   decimal.NewFromInt(100),
		MinBidIncrement: decimal.NewFromInt(10),
		CurrentPrice:    decimal.NewFromInt(100),
		Status:          AuctionStatusActive,
		StartDate:       time.Now().Add(-time.Hour),
		EndDate:         time.Now().Add(time.Hour),
	}
}

func TestValidateBid(t *testing.T) {
	now := time.Now()

	t.Run("first bid must clear starting price plus increment", func(t *testing.T) {
		a := activeAuction()

		// 起拍 100、加價 10：110 可接受
		err := a.ValidateBid(20, decimal.NewFromInt(110), now)
		assert.NoError(t, err)

		// 105 太低
		err = a.ValidateBid(20, decimal.NewFromInt(105), now)
		var tooLow *BidTooLowError
		require.ErrorAs(t, err, &tooLow)
		assert.True(t, tooLow.Minimum.Equal(decimal.NewFromInt(110)))
	})

	t.Run("increment applies to current price after bids", func(t *testing.T) {
		a := activeAuction()
		winner := uint64(20)
		a.CurrentPrice = decimal.NewFromInt(125)
		a.CurrentWinnerID = &winner
		a.TotalBids = 2

		// 130 < 125+10，拒絕且錯誤帶出最低 135
		err := a.ValidateBid(21, decimal.NewFromInt(130), now)
		var tooLow *BidTooLowError
		require.ErrorAs(t, err, &tooLow)
		assert.Equal(t, "135.00", tooLow.Minimum.StringFixed(2))

		assert.NoError(t, a.ValidateBid(21, decimal.NewFromInt(135), now))
	})

	t.Run("seller cannot bid on own auction", func(t *testing.T) {
		a := activeAuction()
		err := a.ValidateBid(a.SellerID, decimal.NewFromInt(200), now)
		assert.ErrorIs(t, err, ErrSelfBid)
	})

	t.Run("only active auctions accept bids", func(t *testing.T) {
		for _, status := range []AuctionStatus{
			AuctionStatusPending,
			AuctionStatusScheduled,
			AuctionStatusEnded,
			AuctionStatusCancelled,
		} {
			a := activeAuction()
			a.Status = status
			err := a.ValidateBid(20, decimal.NewFromInt(110), now)
			assert.ErrorIs(t, err, ErrAuctionNotActive, "status %s", status)
		}
	})

	t.Run("bids after end date are rejected", func(t *testing.T) {
		a := activeAuction()
		a.EndDate = now.Add(-time.Minute)
		err := a.ValidateBid(20, decimal.NewFromInt(110), now)
		assert.ErrorIs(t, err, ErrAuctionEnded)
	})
}

func TestHasWinner(t *testing.T) {
	a := activeAuction()
	assert.False(t, a.HasWinner())

	winner := uint64(20)
	a.CurrentWinnerID = &winner
	a.TotalBids = 1
	assert.True(t, a.HasWinner())
}

func TestCanCancel(t *testing.T) {
	a := activeAuction()
	assert.True(t, a.CanCancel())

	a.Status = AuctionStatusEnded
	assert.True(t, a.CanCancel(), "unpaid ended auction can still be cancelled")

	a.IsPaid = true
	assert.False(t, a.CanCancel(), "paid auction is final")

	a = activeAuction()
	a.Status = AuctionStatusCancelled
	assert.False(t, a.CanCancel())
}

// 賣家重排/取消的出價守門：只看有無出價，與狀態無關。結束待付款的
// 拍賣同樣受保護，否則賣家可繞過付款流程抹掉得標者。
func TestHasBids(t *testing.T) {
	winner := uint64(20)

	for _, status := range []AuctionStatus{
		AuctionStatusScheduled,
		AuctionStatusActive,
		AuctionStatusEnded,
	} {
		t.Run(string(status), func(t *testing.T) {
			a := activeAuction()
			a.Status = status
			assert.False(t, a.HasBids())

			a.TotalBids = 1
			a.CurrentWinnerID = &winner
			assert.True(t, a.HasBids())
		})
	}

	// 結束且有得標者但尚未付款：仍算有出價，賣家不得重排
	a := activeAuction()
	a.Status = AuctionStatusEnded
	a.TotalBids = 3
	a.CurrentWinnerID = &winner
	a.IsPaid = false
	assert.True(t, a.HasBids())
	assert.True(t, a.CanCancel(), "admin may still cancel before payment")
}

func TestValidateSchedule(t *testing.T) {
	now := time.Now()

	a := activeAuction()
	a.StartDate = now.Add(time.Hour)
	a.EndDate = now.Add(2 * time.Hour)
	assert.NoError(t, a.ValidateSchedule(now))

	a.EndDate = a.StartDate
	assert.Error(t, a.ValidateSchedule(now), "start must be strictly before end")

	a.StartDate = now.Add(-3 * time.Hour)
	a.EndDate = now.Add(-time.Hour)
	assert.Error(t, a.ValidateSchedule(now), "end must be in the future")
}

func TestResetForRelist(t *testing.T) {
	winner := uint64(20)
	endedAt := time.Now()
	orderID := "ext-123"

	a := activeAuction()
	a.Status = AuctionStatusEnded
	a.CurrentPrice = decimal.NewFromInt(250)
	a.CurrentWinnerID = &winner
	a.TotalBids = 7
	a.EndedAt = &endedAt
	a.PaymentDeadline = &endedAt
	a.CommissionAmount = decimal.NewFromInt(25)
	a.SellerEarnings = decimal.NewFromInt(225)
	a.ExternalOrderID = &orderID
	a.RelistCount = 1

	a.ResetForRelist()

	assert.True(t, a.CurrentPrice.Equal(a.StartingPrice))
	assert.Nil(t, a.CurrentWinnerID)
	assert.Zero(t, a.TotalBids)
	assert.Nil(t, a.EndedAt)
	assert.Nil(t, a.PaymentDeadline)
	assert.Nil(t, a.ExternalOrderID)
	assert.True(t, a.CommissionAmount.IsZero())
	assert.True(t, a.SellerEarnings.IsZero())
	assert.False(t, a.IsPaid)
	assert.Equal(t, 2, a.RelistCount)
}
