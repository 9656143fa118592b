package hodlod

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"almanac/internal/stats"
)

// TrendKind tags the outcome of a trend test
type TrendKind int

const (
	// TrendOK carries a full test result
	TrendOK TrendKind = iota
	// TrendInsufficientData means fewer than MinTrendSamples finite values
	TrendInsufficientData
	// TrendUnavailable is set by callers that could not run the test at all
	TrendUnavailable
)

func (k TrendKind) String() string {
	switch k {
	case TrendOK:
		return "ok"
	case TrendInsufficientData:
		return "insufficient_data"
	case TrendUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name
func (k TrendKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Direction of a significant trend
type Direction string

const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	NoTrend    Direction = "no_trend"
)

// TrendResult is the Mann-Kendall outcome. Direction, PValue, Slope, ZScore
// and S are meaningful only when Kind is TrendOK.
type TrendResult struct {
	Kind      TrendKind
	Direction Direction
	PValue    float64
	Slope     float64
	ZScore    float64
	S         int64
	N         int
	Reason    string
}

// Unavailable builds a result for a test that could not run
func Unavailable(reason string) TrendResult {
	return TrendResult{Kind: TrendUnavailable, Reason: reason}
}

// MarshalJSON omits the statistics unless the test ran
func (r TrendResult) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"kind": r.Kind,
		"n":    r.N,
	}
	if r.Reason != "" {
		out["reason"] = r.Reason
	}
	if r.Kind == TrendOK {
		out["trend"] = r.Direction
		out["p_value"] = stats.JSONFloat(r.PValue)
		out["slope"] = stats.JSONFloat(r.Slope)
		out["z_score"] = stats.JSONFloat(r.ZScore)
		out["s"] = r.S
	}
	return json.Marshal(out)
}

// TrendTest runs a two-sided Mann-Kendall test on series after dropping NaN
// values. The slope is the Theil-Sen estimator: the median of
// (x[j]-x[i])/(j-i) over all pairs, with positions counted after the drop.
func TrendTest(series []float64) TrendResult {
	clean := make([]float64, 0, len(series))
	for _, v := range series {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	n := len(clean)
	if n < MinTrendSamples {
		return TrendResult{Kind: TrendInsufficientData, N: n}
	}

	s := stats.KendallS(clean)
	fn := float64(n)
	varS := fn * (fn - 1) * (2*fn + 5) / 18

	var z float64
	switch {
	case s > 0:
		z = float64(s-1) / math.Sqrt(varS)
	case s < 0:
		z = float64(s+1) / math.Sqrt(varS)
	}
	p := 2 * (1 - distuv.UnitNormal.CDF(math.Abs(z)))

	dir := NoTrend
	if p < TrendAlpha {
		if s > 0 {
			dir = Increasing
		} else {
			dir = Decreasing
		}
	}

	return TrendResult{
		Kind:      TrendOK,
		Direction: dir,
		PValue:    p,
		Slope:     TheilSenSlope(clean),
		ZScore:    z,
		S:         s,
		N:         n,
	}
}

// TheilSenSlope returns the median pairwise slope of an evenly spaced
// series. It selects the median without sorting the n(n-1)/2 slopes.
func TheilSenSlope(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return math.NaN()
	}
	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			slopes = append(slopes, (series[j]-series[i])/float64(j-i))
		}
	}
	return stats.MedianInPlace(slopes)
}
