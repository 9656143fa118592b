package buckets

import (
	"fmt"
	"math"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

const (
	// DefaultMinSample is the bucket size below which the robust estimators
	// fall back to the mean and median.
	DefaultMinSample = 10
	// DefaultTrimPct is the percentage cut from each tail by the trimmed means.
	DefaultTrimPct = 5.0
)

// Metric selects the per-bar value being summarised
type Metric string

const (
	// MetricPctChange is (close-open)/open
	MetricPctChange Metric = "pct_change"
	// MetricRange is high-low
	MetricRange Metric = "range"
)

// Value extracts the metric from a bar
func (m Metric) Value(b bars.Bar) float64 {
	if m == MetricRange {
		return b.Range()
	}
	return b.PctChange()
}

// Validate rejects unknown metrics
func (m Metric) Validate() error {
	switch m {
	case MetricPctChange, MetricRange:
		return nil
	default:
		return apperrors.NewFieldError("metric", "must be pct_change or range", string(m))
	}
}

// Options tune bucket statistics
type Options struct {
	// TrimPct is cut from each tail, in [0,50].
	TrimPct float64 `json:"trim_pct"`
	// MinSample is the bucket size at which the robust estimators apply.
	MinSample int `json:"min_sample"`
	// Parallel bounds the number of buckets computed concurrently; <=1 runs sequentially.
	Parallel int `json:"parallel"`
}

// DefaultOptions returns the standard settings
func DefaultOptions() Options {
	return Options{
		TrimPct:   DefaultTrimPct,
		MinSample: DefaultMinSample,
		Parallel:  1,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if math.IsNaN(o.TrimPct) || o.TrimPct < 0 || o.TrimPct > 50 {
		return apperrors.NewFieldError("trim_pct", fmt.Sprintf("must be within [0,50], got %v", o.TrimPct), o.TrimPct)
	}
	if o.MinSample < 1 {
		return apperrors.NewFieldError("min_sample", "must be at least 1", o.MinSample)
	}
	return nil
}
