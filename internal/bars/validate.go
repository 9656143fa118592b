package bars

import (
	"fmt"
	"math"
	"sort"

	apperrors "almanac/internal/errors"
)

// Validate reports the first bar invariant that does not hold.
// The returned error is a validation AppError naming the offending field.
func (b Bar) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.NewFieldError(f.name, "must be finite", f.value)
		}
	}

	switch {
	case b.Time.IsZero():
		return apperrors.NewFieldError("time", "must be set", b.Time)
	case b.Open <= 0:
		return apperrors.NewFieldError("open", "must be positive", b.Open)
	case b.Volume < 0:
		return apperrors.NewFieldError("volume", "must not be negative", b.Volume)
	case b.High < math.Max(b.Open, math.Max(b.Close, b.Low)):
		return apperrors.NewFieldError("high", "must be >= open, close and low", b.High)
	case b.Low > math.Min(b.Open, math.Min(b.Close, b.High)):
		return apperrors.NewFieldError("low", "must be <= open, close and high", b.Low)
	}
	return nil
}

// IsValid checks if the bar satisfies every OHLCV invariant
func (b Bar) IsValid() bool {
	return b.Validate() == nil
}

// ValidateSeries checks every bar and that timestamps never decrease.
func ValidateSeries(series []Bar) error {
	for i, b := range series {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d (%s): %w", i, b.Time.Format("2006-01-02 15:04"), err)
		}
		if i > 0 && b.Time.Before(series[i-1].Time) {
			return apperrors.NewFieldError("time", fmt.Sprintf("bar %d is earlier than bar %d", i, i-1), b.Time)
		}
	}
	return nil
}

// SortChronological returns a copy of series ordered by timestamp. Equal
// timestamps keep their input order.
func SortChronological(series []Bar) []Bar {
	out := make([]Bar, len(series))
	copy(out, series)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// InRange returns the bars whose date lies in [from, to]. Zero bounds are open.
func InRange(series []Bar, from, to Date) []Bar {
	out := make([]Bar, 0, len(series))
	for _, b := range series {
		d := b.Date()
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func nan() float64 { return math.NaN() }
