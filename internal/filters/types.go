package filters

import (
	"encoding/json"
	"time"

	"almanac/internal/stats"
)

// Mask holds one flag per studied daily bar
type Mask []bool

// Count returns the number of true entries
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Fill returns a mask of length n with every entry set to v
func Fill(n int, v bool) Mask {
	m := make(Mask, n)
	if v {
		for i := range m {
			m[i] = true
		}
	}
	return m
}

// QuickFilter names a preset predicate
type QuickFilter string

const (
	QuickAll     QuickFilter = "all"
	QuickBull    QuickFilter = "bull"
	QuickBear    QuickFilter = "bear"
	QuickHighVol QuickFilter = "high_vol"
	QuickLowVol  QuickFilter = "low_vol"
	QuickGapUp   QuickFilter = "gap_up"
	QuickGapDown QuickFilter = "gap_down"
)

// Asset selects which daily series a predicate is computed on
type Asset string

const (
	AssetStudied     Asset = "studied"
	AssetIntermarket Asset = "intermarket"
)

// Metric is the per-day value a predicate compares
type Metric string

const (
	// MetricDailyReturn is (close-open)/open
	MetricDailyReturn Metric = "daily_return"
	// MetricDailyRange is (high-low)/open
	MetricDailyRange Metric = "daily_range"
	// MetricGap is (open-prior close)/prior close; 0 on the first day
	MetricGap Metric = "gap"
	// MetricVolume is the raw day volume
	MetricVolume Metric = "volume"
)

// Comparator compares a metric with a threshold
type Comparator string

const (
	GT  Comparator = "gt"
	LT  Comparator = "lt"
	GTE Comparator = "gte"
	LTE Comparator = "lte"
	EQ  Comparator = "eq"
)

// EqualTolerance is the absolute tolerance of EQ
const EqualTolerance = 1e-6

// GapThreshold is the ±0.5% move that defines gap_up and gap_down
const GapThreshold = 0.005

// MinSufficientDays is the filtered sample size considered large enough
const MinSufficientDays = 30

// Predicate is a custom day-level condition. Ratio thresholds are fractions
// (0.01 = 1%); volume thresholds are shares.
type Predicate struct {
	Asset      Asset      `json:"asset" yaml:"asset" validate:"required,oneof=studied intermarket"`
	Metric     Metric     `json:"metric" yaml:"metric" validate:"required,oneof=daily_return daily_range gap volume"`
	Comparator Comparator `json:"condition" yaml:"condition" validate:"required,oneof=gt lt gte lte eq"`
	Threshold  *float64   `json:"value" yaml:"value" validate:"required,finite"`
}

// MarshalJSON writes a non-finite threshold as null
func (p Predicate) MarshalJSON() ([]byte, error) {
	var value any
	if p.Threshold != nil {
		value = stats.JSONFloat(*p.Threshold)
	}
	return json.Marshal(map[string]any{
		"asset":     p.Asset,
		"metric":    p.Metric,
		"condition": p.Comparator,
		"value":     value,
	})
}

// Operator joins masks
type Operator string

const (
	AND Operator = "AND"
	OR  Operator = "OR"
)

// Clock is a time of day
type Clock struct {
	Hour   int `json:"hour" yaml:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" yaml:"minute" validate:"min=0,max=59"`
}

func (c Clock) matches(t time.Time) bool {
	return t.Hour() == c.Hour && t.Minute() == c.Minute
}

// Threshold returns a pointer to v, for building predicates inline
func Threshold(v float64) *float64 {
	return &v
}
