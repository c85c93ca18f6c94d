package services

import (
	"testing"

	"soulart_auction/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func earningRows(amounts ...int64) []models.AuctionAdminEarnings {
	rows := make([]models.AuctionAdminEarnings, len(amounts))
	for i, amt := range amounts {
		rows[i] = models.AuctionAdminEarnings{
			ID:     uint64(i + 1),
			Amount: decimal.NewFromInt(amt),
		}
	}
	return rows
}

func TestAllocateEarnings(t *testing.T) {
	t.Run("takes oldest rows until requested amount is covered", func(t *testing.T) {
		rows := earningRows(30, 40, 50, 60)

		selected, total := allocateEarnings(rows, decimal.NewFromInt(60))
		assert.Len(t, selected, 2)
		assert.Equal(t, uint64(1), selected[0].ID)
		assert.Equal(t, uint64(2), selected[1].ID)
		assert.Equal(t, "70.00", total.StringFixed(2))
	})

	t.Run("last row is not split, total may exceed request", func(t *testing.T) {
		rows := earningRows(100, 100)

		selected, total := allocateEarnings(rows, decimal.NewFromInt(150))
		assert.Len(t, selected, 2)
		assert.Equal(t, "200.00", total.StringFixed(2))
	})

	t.Run("exact cover stops without extra rows", func(t *testing.T) {
		rows := earningRows(50, 50, 50)

		selected, total := allocateEarnings(rows, decimal.NewFromInt(100))
		assert.Len(t, selected, 2)
		assert.Equal(t, "100.00", total.StringFixed(2))
	})

	t.Run("insufficient rows return everything available", func(t *testing.T) {
		rows := earningRows(20, 20)

		selected, total := allocateEarnings(rows, decimal.NewFromInt(100))
		assert.Len(t, selected, 2)
		assert.Equal(t, "40.00", total.StringFixed(2))
	})

	t.Run("no rows", func(t *testing.T) {
		selected, total := allocateEarnings(nil, decimal.NewFromInt(50))
		assert.Empty(t, selected)
		assert.True(t, total.IsZero())
	})
}

func TestUpdateSettingsRequestValidate(t *testing.T) {
	pct := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}

	t.Run("valid", func(t *testing.T) {
		req := &UpdateSettingsRequest{
			PlatformCommissionPercent:     pct(10),
			AuctionAdminCommissionPercent: pct(30),
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("empty request is valid", func(t *testing.T) {
		assert.NoError(t, (&UpdateSettingsRequest{}).Validate())
	})

	t.Run("rejects out of range percent", func(t *testing.T) {
		req := &UpdateSettingsRequest{PlatformCommissionPercent: pct(101)}
		assert.Error(t, req.Validate())

		req = &UpdateSettingsRequest{AuctionAdminCommissionPercent: pct(-1)}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects combined percent over 100", func(t *testing.T) {
		req := &UpdateSettingsRequest{
			PlatformCommissionPercent:     pct(60),
			AuctionAdminCommissionPercent: pct(50),
		}
		assert.Error(t, req.Validate())
	})
}
