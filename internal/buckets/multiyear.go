package buckets

import (
	"almanac/internal/bars"
)

// ComputeMultiYearStats summarises metric per (year, month). Unlike the
// other bucketings its TrimmedMean is the band mean: the average of the
// values between the two trim percentiles, bounds included.
func ComputeMultiYearStats(series []bars.Bar, metric Metric, opts Options) ([]BucketStats, error) {
	out, err := ComputeBucketStats(series, ByYearMonth, metric, opts)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TrimmedMean = out[i].BandMean
	}
	return out, nil
}

// YearOf returns the calendar year of a year-month bucket
func YearOf(k Key) int {
	return k.Ordinal / 12
}

// MonthOf returns the calendar month (1-12) of a year-month bucket
func MonthOf(k Key) int {
	return k.Ordinal%12 + 1
}
