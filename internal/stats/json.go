package stats

import (
	"encoding/json"
	"math"
)

// JSONFloat renders NaN and infinities as null. encoding/json rejects them.
func JSONFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// MarshalJSON writes undefined statistics (for example the variance of a
// single value) as null
func (s RobustSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// Fields returns the set as a JSON-safe map, for embedding in larger records
func (s RobustSet) Fields() map[string]any {
	return map[string]any{
		"count":        s.Count,
		"mean":         JSONFloat(s.Mean),
		"trimmed_mean": JSONFloat(s.TrimmedMean),
		"band_mean":    JSONFloat(s.BandMean),
		"median":       JSONFloat(s.Median),
		"mode":         JSONFloat(s.Mode),
		"variance":     JSONFloat(s.Variance),
	}
}

