package filters

import (
	"math"
	"time"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

// SessionFilter names a calendar or previous-day condition
type SessionFilter string

const (
	PrevPositive    SessionFilter = "prev_pos"
	PrevNegative    SessionFilter = "prev_neg"
	PrevPctPositive SessionFilter = "prev_pct_pos"
	PrevPctNegative SessionFilter = "prev_pct_neg"
	RelVolAbove     SessionFilter = "relvol_gt"
	RelVolBelow     SessionFilter = "relvol_lt"
	TimeAAboveTimeB SessionFilter = "time_a_gt_time_b"
	TimeABelowTimeB SessionFilter = "time_a_lt_time_b"
)

// volumeSMAPeriods is the relative-volume averaging window in days
const volumeSMAPeriods = 10

// SessionCriteria restricts days by weekday, the previous day's behaviour,
// or the close at one time of day against another. Previous day means the
// previous row of the daily series.
type SessionCriteria struct {
	// Weekdays keeps only these days; empty or all five weekdays keeps every day.
	Weekdays []time.Weekday  `json:"weekdays" yaml:"weekdays" validate:"dive,min=0,max=6"`
	Filters  []SessionFilter `json:"filters" yaml:"filters" validate:"dive,oneof=prev_pos prev_neg prev_pct_pos prev_pct_neg relvol_gt relvol_lt time_a_gt_time_b time_a_lt_time_b"`
	// PctThreshold is in percent: 1.0 means a 1% previous-day move.
	PctThreshold *float64 `json:"pct_threshold,omitempty" yaml:"pct_threshold" validate:"omitempty,finite"`
	// VolThreshold is previous-day volume over its 10-day average.
	VolThreshold *float64 `json:"vol_threshold,omitempty" yaml:"vol_threshold" validate:"omitempty,finite"`
	TimeA        *Clock   `json:"time_a,omitempty" yaml:"time_a"`
	TimeB        *Clock   `json:"time_b,omitempty" yaml:"time_b"`
}

// Empty reports whether the criteria keep every day
func (c SessionCriteria) Empty() bool {
	return !c.restrictsWeekdays() && len(c.Filters) == 0
}

func (c SessionCriteria) has(f SessionFilter) bool {
	for _, x := range c.Filters {
		if x == f {
			return true
		}
	}
	return false
}

func (c SessionCriteria) restrictsWeekdays() bool {
	if len(c.Weekdays) == 0 {
		return false
	}
	set := make(map[time.Weekday]bool, len(c.Weekdays))
	for _, wd := range c.Weekdays {
		set[wd] = true
	}
	for wd := time.Monday; wd <= time.Friday; wd++ {
		if !set[wd] {
			return true
		}
	}
	return len(set) != 5
}

func (c SessionCriteria) needsPrevious() bool {
	for _, f := range c.Filters {
		switch f {
		case PrevPositive, PrevNegative, PrevPctPositive, PrevPctNegative, RelVolAbove, RelVolBelow:
			return true
		}
	}
	return false
}

// ValidateSession checks structure and that every selected filter has the
// parameters it needs
func (e *Engine) ValidateSession(c SessionCriteria) error {
	if err := validateStruct(e.validate, c); err != nil {
		return err
	}
	if (c.has(PrevPctPositive) || c.has(PrevPctNegative)) && c.PctThreshold == nil {
		return apperrors.NewFieldError("pct_threshold", "is required by prev_pct filters", nil)
	}
	if (c.has(RelVolAbove) || c.has(RelVolBelow)) && c.VolThreshold == nil {
		return apperrors.NewFieldError("vol_threshold", "is required by relvol filters", nil)
	}
	if c.has(TimeAAboveTimeB) || c.has(TimeABelowTimeB) {
		if c.TimeA == nil {
			return apperrors.NewFieldError("time_a", "is required by time comparison filters", nil)
		}
		if c.TimeB == nil {
			return apperrors.NewFieldError("time_b", "is required by time comparison filters", nil)
		}
	}
	return nil
}

// SessionMask evaluates c against days. Previous-day conditions are false on
// the first day. Time comparisons read closes from minuteBars and are false
// on days missing either bar.
func (e *Engine) SessionMask(days []bars.DailyBar, minuteBars []bars.Bar, c SessionCriteria) (Mask, error) {
	if err := e.ValidateSession(c); err != nil {
		return nil, err
	}
	mask := Fill(len(days), true)
	if c.Empty() {
		return mask, nil
	}

	if c.restrictsWeekdays() {
		keep := make(map[time.Weekday]bool, len(c.Weekdays))
		for _, wd := range c.Weekdays {
			keep[wd] = true
		}
		for i, d := range days {
			mask[i] = mask[i] && keep[d.Date.Weekday()]
		}
	}

	if c.needsPrevious() {
		sma := volumeSMA(days, volumeSMAPeriods)
		for i := range days {
			if i == 0 {
				mask[0] = false
				continue
			}
			mask[i] = mask[i] && c.previousDayHolds(days[i-1], sma[i-1])
		}
	}

	if c.has(TimeAAboveTimeB) || c.has(TimeABelowTimeB) {
		closeA := closesAt(minuteBars, *c.TimeA)
		closeB := closesAt(minuteBars, *c.TimeB)
		for i, d := range days {
			a, okA := closeA[d.Date]
			b, okB := closeB[d.Date]
			if !okA || !okB {
				mask[i] = false
				continue
			}
			if c.has(TimeAAboveTimeB) {
				mask[i] = mask[i] && a > b
			}
			if c.has(TimeABelowTimeB) {
				mask[i] = mask[i] && a < b
			}
		}
	}
	return mask, nil
}

func (c SessionCriteria) previousDayHolds(prev bars.DailyBar, prevSMA float64) bool {
	if c.has(PrevPositive) && !(prev.Close > prev.Open) {
		return false
	}
	if c.has(PrevNegative) && !(prev.Close < prev.Open) {
		return false
	}

	pct := math.NaN()
	if prev.Open > 0 {
		pct = (prev.Close - prev.Open) / prev.Open * 100
	}
	if c.has(PrevPctPositive) && !(pct >= *c.PctThreshold) {
		return false
	}
	if c.has(PrevPctNegative) && !(pct <= -*c.PctThreshold) {
		return false
	}

	relVol := math.NaN()
	if prevSMA > 0 {
		relVol = prev.Volume / prevSMA
	}
	if c.has(RelVolAbove) && !(relVol > *c.VolThreshold) {
		return false
	}
	if c.has(RelVolBelow) && !(relVol < *c.VolThreshold) {
		return false
	}
	return true
}

// volumeSMA is the trailing mean volume over up to periods days, the current day included
func volumeSMA(days []bars.DailyBar, periods int) []float64 {
	out := make([]float64, len(days))
	sum := 0.0
	for i, d := range days {
		sum += d.Volume
		if i >= periods {
			sum -= days[i-periods].Volume
		}
		n := i + 1
		if n > periods {
			n = periods
		}
		out[i] = sum / float64(n)
	}
	return out
}

// closesAt maps each date to the close of its bar at clock. Later bars win.
func closesAt(minuteBars []bars.Bar, clock Clock) map[bars.Date]float64 {
	out := make(map[bars.Date]float64)
	for _, b := range minuteBars {
		if clock.matches(b.Time) {
			out[b.Date()] = b.Close
		}
	}
	return out
}
