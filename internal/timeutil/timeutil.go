package timeutil

import (
	"fmt"
	"time"
)

// Zone 平台固定時區（喬治亞，UTC+4）。排程與付款期限一律以此時區解讀。
var Zone = time.FixedZone("GET", 4*3600)

// 付款期限規則：結標後第 2 個工作日（週一至週五）下午 6 點
const (
	paymentDeadlineWorkingDays = 2
	paymentDeadlineHour        = 18
)

// CombineDateTime 把日期與 "HH:MM" 的當地時刻合成為絕對時間
func CombineDateTime(date time.Time, timeOfDay string) (time.Time, error) {
	parsed, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", timeOfDay, err)
	}

	d := date.In(Zone)
	return time.Date(d.Year(), d.Month(), d.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, Zone), nil
}

// IsWorkingDay 週一至週五
func IsWorkingDay(t time.Time) bool {
	wd := t.In(Zone).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PaymentDeadline 從結標時間起算，往後數滿兩個工作日，期限為該日 18:00 當地時間。
// 週五 10:00 結標 → 跳過週六日 → 期限為下週二 18:00。
func PaymentDeadline(from time.Time) time.Time {
	day := from.In(Zone)
	counted := 0
	for counted < paymentDeadlineWorkingDays {
		day = day.AddDate(0, 0, 1)
		if IsWorkingDay(day) {
			counted++
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		paymentDeadlineHour, 0, 0, 0, Zone)
}
