package hodlod

import (
	"fmt"
	"math"
	"sort"
	"time"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

// Variant selects the high-of-day or low-of-day event
type Variant string

const (
	High Variant = "high"
	Low  Variant = "low"
)

// Validate rejects unknown variants
func (v Variant) Validate() error {
	if v != High && v != Low {
		return apperrors.NewFieldError("variant", "must be high or low", string(v))
	}
	return nil
}

// ExtremeEvent is the bar at which a day's extreme printed
type ExtremeEvent struct {
	Date                 bars.Date `json:"date"`
	Time                 time.Time `json:"time"`
	Price                float64   `json:"price"`
	MinutesSinceMidnight int       `json:"minutes_since_midnight"`
}

// Hour returns the event's hour of day
func (e ExtremeEvent) Hour() int {
	return e.MinutesSinceMidnight / 60
}

// DayExtremes pairs the high and low events of one calendar day
type DayExtremes struct {
	Date bars.Date    `json:"date"`
	High ExtremeEvent `json:"high"`
	Low  ExtremeEvent `json:"low"`
}

// Event returns the event for v
func (d DayExtremes) Event(v Variant) ExtremeEvent {
	if v == Low {
		return d.Low
	}
	return d.High
}

// DetectExtremes finds, for each calendar day, the bar with the maximum high
// and the bar with the minimum low. Ties keep the first bar in input order.
// The result is ordered by date.
func DetectExtremes(series []bars.Bar) ([]DayExtremes, error) {
	if len(series) == 0 {
		return nil, apperrors.NewFieldError("bars", "must not be empty", 0)
	}

	index := make(map[bars.Date]int)
	days := make([]DayExtremes, 0)
	for i, b := range series {
		if math.IsNaN(b.High) || math.IsNaN(b.Low) {
			return nil, apperrors.NewFieldError("bars", fmt.Sprintf("bar %d has NaN high or low", i), i)
		}
		d := b.Date()
		j, seen := index[d]
		if !seen {
			index[d] = len(days)
			days = append(days, DayExtremes{
				Date: d,
				High: newEvent(d, b, b.High),
				Low:  newEvent(d, b, b.Low),
			})
			continue
		}
		if b.High > days[j].High.Price {
			days[j].High = newEvent(d, b, b.High)
		}
		if b.Low < days[j].Low.Price {
			days[j].Low = newEvent(d, b, b.Low)
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func newEvent(d bars.Date, b bars.Bar, price float64) ExtremeEvent {
	return ExtremeEvent{
		Date:                 d,
		Time:                 b.Time,
		Price:                price,
		MinutesSinceMidnight: b.MinutesSinceMidnight(),
	}
}

// Minutes returns the minutes-since-midnight of each day's v event, in date order
func Minutes(days []DayExtremes, v Variant) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.Event(v).MinutesSinceMidnight
	}
	return out
}

// MinuteSeries is Minutes as float64, the input shape of TrendTest
func MinuteSeries(days []DayExtremes, v Variant) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = float64(d.Event(v).MinutesSinceMidnight)
	}
	return out
}
