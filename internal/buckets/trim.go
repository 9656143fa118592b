package buckets

import (
	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

const (
	// DefaultTrimLower and DefaultTrimUpper drop the bottom and top 5% of bars
	DefaultTrimLower = 0.05
	DefaultTrimUpper = 0.95
)

// TrimExtremes drops bars whose pct-change or range lies outside the
// [lower, upper] quantile band of the series. Bounds are inclusive. When
// nothing would survive the input is returned unchanged.
func TrimExtremes(series []bars.Bar, lower, upper float64) ([]bars.Bar, error) {
	if !(lower >= 0 && lower < upper && upper <= 1) {
		return nil, apperrors.NewValidationError("trim quantiles must satisfy 0 <= lower < upper <= 1").
			WithContext("lower", lower).
			WithContext("upper", upper)
	}
	if len(series) == 0 {
		return series, nil
	}

	pct := make([]float64, len(series))
	rng := make([]float64, len(series))
	for i, b := range series {
		pct[i] = b.PctChange()
		rng[i] = b.Range()
	}
	sp, sr := stats.Sorted(pct), stats.Sorted(rng)
	pLo, pHi := stats.QuantileSorted(sp, lower), stats.QuantileSorted(sp, upper)
	rLo, rHi := stats.QuantileSorted(sr, lower), stats.QuantileSorted(sr, upper)

	out := make([]bars.Bar, 0, len(series))
	for i, b := range series {
		if pct[i] >= pLo && pct[i] <= pHi && rng[i] >= rLo && rng[i] <= rHi {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return series, nil
	}
	return out, nil
}
