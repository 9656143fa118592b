package buckets

import (
	"fmt"
	"time"
)

// Dimension names the calendar or clock field a bucket is keyed on
type Dimension string

const (
	DimensionHour      Dimension = "hour"
	DimensionMinute    Dimension = "minute"
	DimensionWeekday   Dimension = "weekday"
	DimensionMonth     Dimension = "month"
	DimensionYearMonth Dimension = "year_month"
	DimensionTimeOfDay Dimension = "time_of_day"
)

// Key identifies one bucket. Ordinal sorts buckets; Label is for display.
type Key struct {
	Dimension Dimension `json:"dimension"`
	Ordinal   int       `json:"ordinal"`
	Label     string    `json:"label"`
}

// KeyFunc derives the bucket of a timestamp. Bars for which it returns
// ok=false are left out of every bucket, so bucket counts sum to the input
// length only for total key functions (ByHour, ByMinute, ByWeekday, ByMonth,
// ByYearMonth, ByTimeOfDay). MinuteOfHour is partial.
// Implementations must be pure: equal ordinals always carry equal labels.
type KeyFunc func(t time.Time) (key Key, ok bool)

// ByHour buckets by hour of day (0-23)
func ByHour(t time.Time) (Key, bool) {
	h := t.Hour()
	return Key{Dimension: DimensionHour, Ordinal: h, Label: fmt.Sprintf("%02d:00", h)}, true
}

// ByMinute buckets by minute of hour (0-59)
func ByMinute(t time.Time) (Key, bool) {
	m := t.Minute()
	return Key{Dimension: DimensionMinute, Ordinal: m, Label: fmt.Sprintf(":%02d", m)}, true
}

// MinuteOfHour buckets by minute but only for bars inside the given hour
func MinuteOfHour(hour int) KeyFunc {
	return func(t time.Time) (Key, bool) {
		if t.Hour() != hour {
			return Key{}, false
		}
		m := t.Minute()
		return Key{Dimension: DimensionMinute, Ordinal: m, Label: fmt.Sprintf("%02d:%02d", hour, m)}, true
	}
}

// ByWeekday buckets by day of week with Monday as ordinal 0
func ByWeekday(t time.Time) (Key, bool) {
	wd := t.Weekday()
	return Key{Dimension: DimensionWeekday, Ordinal: WeekdayOrdinal(wd), Label: wd.String()}, true
}

// ByMonth buckets by calendar month (1-12)
func ByMonth(t time.Time) (Key, bool) {
	m := t.Month()
	return Key{Dimension: DimensionMonth, Ordinal: int(m), Label: m.String()}, true
}

// ByYearMonth buckets by (year, month)
func ByYearMonth(t time.Time) (Key, bool) {
	y, m := t.Year(), t.Month()
	return Key{
		Dimension: DimensionYearMonth,
		Ordinal:   y*12 + int(m) - 1,
		Label:     fmt.Sprintf("%04d-%02d", y, int(m)),
	}, true
}

// ByTimeOfDay buckets by hh:mm
func ByTimeOfDay(t time.Time) (Key, bool) {
	minutes := t.Hour()*60 + t.Minute()
	return Key{
		Dimension: DimensionTimeOfDay,
		Ordinal:   minutes,
		Label:     fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute()),
	}, true
}

// WeekdayOrdinal maps Monday..Sunday to 0..6
func WeekdayOrdinal(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
