package hodlod

import (
	"encoding/json"
	"math"
	"sort"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

// ciZ is the two-sided 95% normal quantile
const ciZ = 1.96

// RollingOptions configure the trailing window, counted in days
type RollingOptions struct {
	Window     int `json:"window"`
	MinPeriods int `json:"min_periods"`
}

// DefaultRollingOptions returns a 63-day window needing 10 observations
func DefaultRollingOptions() RollingOptions {
	return RollingOptions{Window: DefaultRollingWindow, MinPeriods: DefaultMinPeriods}
}

// Validate checks 1 <= MinPeriods <= Window
func (o RollingOptions) Validate() error {
	if o.Window < 1 {
		return apperrors.NewFieldError("window", "must be at least 1", o.Window)
	}
	if o.MinPeriods < 1 || o.MinPeriods > o.Window {
		return apperrors.NewFieldError("min_periods", "must be within [1, window]", o.MinPeriods)
	}
	return nil
}

// RollingPoint summarises the trailing window ending at Date. Fields are
// NaN while the window holds fewer than MinPeriods days.
type RollingPoint struct {
	Date         bars.Date `json:"date"`
	Observations int       `json:"observations"`
	Median       float64   `json:"median"`
	Mean         float64   `json:"mean"`
	Std          float64   `json:"std"`
	CILow        float64   `json:"ci_low"`
	CIHigh       float64   `json:"ci_high"`
}

// MarshalJSON writes undefined window statistics as null
func (p RollingPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"date":         p.Date,
		"observations": p.Observations,
		"median":       stats.JSONFloat(p.Median),
		"mean":         stats.JSONFloat(p.Mean),
		"std":          stats.JSONFloat(p.Std),
		"ci_low":       stats.JSONFloat(p.CILow),
		"ci_high":      stats.JSONFloat(p.CIHigh),
	})
}

// RollingStats computes the trailing median, mean and sample standard
// deviation of the v event minute. The confidence band is
// mean ± 1.96*std/sqrt(Window) with the configured window, not the number
// of observations in it.
func RollingStats(days []DayExtremes, v Variant, opts RollingOptions) ([]RollingPoint, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ordered := make([]DayExtremes, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })
	series := MinuteSeries(ordered, v)

	halfWidth := ciZ / math.Sqrt(float64(opts.Window))
	scratch := make([]float64, 0, opts.Window)
	out := make([]RollingPoint, len(series))
	for i := range series {
		start := i - opts.Window + 1
		if start < 0 {
			start = 0
		}
		window := series[start : i+1]
		p := RollingPoint{Date: ordered[i].Date, Observations: len(window)}
		if len(window) < opts.MinPeriods {
			p.Median, p.Mean, p.Std = math.NaN(), math.NaN(), math.NaN()
			p.CILow, p.CIHigh = math.NaN(), math.NaN()
			out[i] = p
			continue
		}

		scratch = append(scratch[:0], window...)
		p.Median = stats.MedianInPlace(scratch)
		p.Mean = stats.Mean(window)
		p.Std = stats.StdDev(window)
		p.CILow = p.Mean - halfWidth*p.Std
		p.CIHigh = p.Mean + halfWidth*p.Std
		out[i] = p
	}
	return out, nil
}
