package stats_test

import (
	"fmt"

	"almanac/internal/stats"
)

func ExamplePercentileMidpoint() {
	returns := []float64{-0.02, -0.01, 0.0, 0.01, 0.30}
	fmt.Printf("%.4f\n", stats.PercentileMidpoint(returns, 10))
	fmt.Printf("%.4f\n", stats.BandMean(returns, 10))
	// Output:
	// 0.0840
	// 0.0000
}
