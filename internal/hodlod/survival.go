package hodlod

import (
	"sort"
)

// SurvivalPoint is the share of days whose extreme printed at or before Minutes
type SurvivalPoint struct {
	Minutes     int     `json:"minutes"`
	Probability float64 `json:"probability"`
}

// SurvivalCurve returns, for each distinct minute m ascending, count(<= m)/total.
// The last point's probability is 1.
func SurvivalCurve(minutes []int) []SurvivalPoint {
	if len(minutes) == 0 {
		return []SurvivalPoint{}
	}
	sorted := make([]int, len(minutes))
	copy(sorted, minutes)
	sort.Ints(sorted)

	total := float64(len(sorted))
	out := make([]SurvivalPoint, 0)
	for i := 0; i < len(sorted); i++ {
		// emit once per distinct value, at its last occurrence
		if i+1 < len(sorted) && sorted[i+1] == sorted[i] {
			continue
		}
		out = append(out, SurvivalPoint{
			Minutes:     sorted[i],
			Probability: float64(i+1) / total,
		})
	}
	return out
}

// SurvivalCurves builds the high and low curves
func SurvivalCurves(days []DayExtremes) (high, low []SurvivalPoint) {
	return SurvivalCurve(Minutes(days, High)), SurvivalCurve(Minutes(days, Low))
}
