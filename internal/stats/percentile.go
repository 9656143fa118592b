package stats

import (
	"math"
)

// QuantileSorted returns the q-quantile (q in [0,1]) of an ascending sample
// using linear interpolation at index q*(n-1).
func QuantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Quantile returns the q-quantile (q in [0,1]) of an unsorted sample
func Quantile(values []float64, q float64) float64 {
	return QuantileSorted(Sorted(values), q)
}

// Percentile returns the p-th percentile (p in [0,100])
func Percentile(values []float64, p float64) float64 {
	return Quantile(values, p/100)
}

// PercentileMidpoint returns the midpoint of the trimPct and 100-trimPct
// percentile values. trimPct=0 gives the mid-range, trimPct=50 the median.
func PercentileMidpoint(values []float64, trimPct float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := Sorted(values)
	lo := QuantileSorted(sorted, trimPct/100)
	hi := QuantileSorted(sorted, 1-trimPct/100)
	return (lo + hi) / 2
}

// BandMean returns the mean of the values lying between the trimPct and
// 100-trimPct percentiles, both bounds inclusive.
func BandMean(values []float64, trimPct float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := Sorted(values)
	lo := QuantileSorted(sorted, trimPct/100)
	hi := QuantileSorted(sorted, 1-trimPct/100)

	sum, count := 0.0, 0
	for _, v := range sorted {
		if v >= lo && v <= hi {
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// RobustSet is the central-tendency and dispersion summary of one sample.
type RobustSet struct {
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	TrimmedMean float64 `json:"trimmed_mean"`
	BandMean    float64 `json:"band_mean"`
	Median      float64 `json:"median"`
	Mode        float64 `json:"mode"`
	Variance    float64 `json:"variance"`
}

// Robust summarises values. TrimmedMean is the percentile midpoint; BandMean
// is reported alongside it. Below minSample both fall back to the mean and
// the mode falls back to the median.
func Robust(values []float64, trimPct float64, minSample int) RobustSet {
	set := RobustSet{
		Count:    len(values),
		Mean:     Mean(values),
		Median:   Median(values),
		Variance: Variance(values),
	}
	if len(values) < minSample {
		set.TrimmedMean = set.Mean
		set.BandMean = set.Mean
		set.Mode = set.Median
		return set
	}
	set.TrimmedMean = PercentileMidpoint(values, trimPct)
	set.BandMean = BandMean(values, trimPct)
	set.Mode = Mode(values)
	return set
}
