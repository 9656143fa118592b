package hodlod

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func naiveSurvival(minutes []int) []SurvivalPoint {
	distinct := make(map[int]struct{})
	for _, m := range minutes {
		distinct[m] = struct{}{}
	}
	keys := make([]int, 0, len(distinct))
	for m := range distinct {
		keys = append(keys, m)
	}
	sort.Ints(keys)

	out := make([]SurvivalPoint, 0, len(keys))
	for _, m := range keys {
		count := 0
		for _, x := range minutes {
			if x <= m {
				count++
			}
		}
		out = append(out, SurvivalPoint{Minutes: m, Probability: float64(count) / float64(len(minutes))})
	}
	return out
}

func TestSurvivalCurve(t *testing.T) {
	t.Run("repeated minute", func(t *testing.T) {
		got := SurvivalCurve([]int{30, 45, 30})
		require.Len(t, got, 2)
		assert.Equal(t, 30, got[0].Minutes)
		assert.InDelta(t, 2.0/3.0, got[0].Probability, 1e-12)
		assert.Equal(t, 45, got[1].Minutes)
		assert.Equal(t, 1.0, got[1].Probability)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SurvivalCurve(nil))
	})

	t.Run("matches naive definition", func(t *testing.T) {
		rng := rand.New(rand.NewSource(99))
		for trial := 0; trial < 100; trial++ {
			minutes := make([]int, 1+rng.Intn(200))
			for i := range minutes {
				minutes[i] = 570 + rng.Intn(390)
			}
			got := SurvivalCurve(minutes)
			want := naiveSurvival(minutes)
			require.Len(t, got, len(want))
			for i := range want {
				require.Equal(t, want[i].Minutes, got[i].Minutes)
				require.InDelta(t, want[i].Probability, got[i].Probability, 1e-12)
			}
		}
	})

	t.Run("monotone and ends at one", func(t *testing.T) {
		got := SurvivalCurve([]int{600, 570, 575, 900, 600, 601})
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1].Minutes, got[i].Minutes)
			assert.LessOrEqual(t, got[i-1].Probability, got[i].Probability)
		}
		assert.Equal(t, 1.0, got[len(got)-1].Probability)
	})
}

func TestSurvivalCurves(t *testing.T) {
	days := []DayExtremes{
		{High: ExtremeEvent{MinutesSinceMidnight: 570}, Low: ExtremeEvent{MinutesSinceMidnight: 900}},
		{High: ExtremeEvent{MinutesSinceMidnight: 600}, Low: ExtremeEvent{MinutesSinceMidnight: 900}},
	}
	high, low := SurvivalCurves(days)
	assert.Len(t, high, 2)
	assert.Equal(t, []SurvivalPoint{{Minutes: 900, Probability: 1}}, low)
}

func BenchmarkSurvivalCurve(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	minutes := make([]int, 5000)
	for i := range minutes {
		minutes[i] = 570 + rng.Intn(390)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SurvivalCurve(minutes)
	}
}
