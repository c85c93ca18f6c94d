package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentDeadline(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			// 2026-01-09 是週五；週六日跳過，第 2 個工作日是週二
			name: "friday morning skips weekend",
			from: time.Date(2026, 1, 9, 10, 0, 0, 0, Zone),
			want: time.Date(2026, 1, 13, 18, 0, 0, 0, Zone),
		},
		{
			name: "monday ends wednesday",
			from: time.Date(2026, 1, 5, 9, 30, 0, 0, Zone),
			want: time.Date(2026, 1, 7, 18, 0, 0, 0, Zone),
		},
		{
			name: "thursday skips weekend",
			from: time.Date(2026, 1, 8, 23, 59, 0, 0, Zone),
			want: time.Date(2026, 1, 12, 18, 0, 0, 0, Zone),
		},
		{
			// 週六結標：週一是第 1 個工作日，週二第 2 個
			name: "saturday end",
			from: time.Date(2026, 1, 10, 12, 0, 0, 0, Zone),
			want: time.Date(2026, 1, 13, 18, 0, 0, 0, Zone),
		},
		{
			name: "sunday end",
			from: time.Date(2026, 1, 11, 0, 0, 0, 0, Zone),
			want: time.Date(2026, 1, 13, 18, 0, 0, 0, Zone),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaymentDeadline(tt.from)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

// 期限計算不受呼叫端時區影響
func TestPaymentDeadlineUTCInput(t *testing.T) {
	// 06:00 UTC = 10:00 當地（UTC+4），同一個週五
	fromUTC := time.Date(2026, 1, 9, 6, 0, 0, 0, time.UTC)
	want := time.Date(2026, 1, 13, 18, 0, 0, 0, Zone)
	assert.True(t, PaymentDeadline(fromUTC).Equal(want))
}

func TestCombineDateTime(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, Zone)

	got, err := CombineDateTime(date, "14:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 15, 14, 30, 0, 0, Zone)))

	_, err = CombineDateTime(date, "25:99")
	assert.Error(t, err)

	_, err = CombineDateTime(date, "afternoon")
	assert.Error(t, err)
}

func TestIsWorkingDay(t *testing.T) {
	assert.True(t, IsWorkingDay(time.Date(2026, 1, 5, 12, 0, 0, 0, Zone)))   // Monday
	assert.True(t, IsWorkingDay(time.Date(2026, 1, 9, 12, 0, 0, 0, Zone)))   // Friday
	assert.False(t, IsWorkingDay(time.Date(2026, 1, 10, 12, 0, 0, 0, Zone))) // Saturday
	assert.False(t, IsWorkingDay(time.Date(2026, 1, 11, 12, 0, 0, 0, Zone))) // Sunday
}
