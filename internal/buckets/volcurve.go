package buckets

import (
	"math"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

// VolatilityPoint is the absolute-return profile of one time of day
type VolatilityPoint struct {
	Key           Key     `json:"key"`
	MeanAbsReturn float64 `json:"mean_abs_return"`
	Q25           float64 `json:"q25"`
	Q75           float64 `json:"q75"`
	Count         int     `json:"count"`
}

// IntradayVolatilityCurve returns, per hh:mm, the mean absolute pct-change
// and its interquartile band
func IntradayVolatilityCurve(series []bars.Bar) ([]VolatilityPoint, error) {
	if len(series) == 0 {
		return nil, apperrors.NewFieldError("bars", "must not be empty", 0)
	}

	groups := groupValues(series, ByTimeOfDay, MetricPctChange)
	out := make([]VolatilityPoint, len(groups))
	for i, g := range groups {
		abs := make([]float64, len(g.values))
		for j, v := range g.values {
			abs[j] = math.Abs(v)
		}
		sorted := stats.Sorted(abs)
		out[i] = VolatilityPoint{
			Key:           g.key,
			MeanAbsReturn: stats.Mean(sorted),
			Q25:           stats.QuantileSorted(sorted, 0.25),
			Q75:           stats.QuantileSorted(sorted, 0.75),
			Count:         len(sorted),
		}
	}
	return out, nil
}
