package hodlod

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

func seqDays(highMinutes []int) []DayExtremes {
	start := bars.NewDate(2024, time.January, 1)
	out := make([]DayExtremes, len(highMinutes))
	for i, m := range highMinutes {
		d := bars.DateOf(start.Time().AddDate(0, 0, i))
		out[i] = day(d, m, 600)
	}
	return out
}

func TestRollingStats(t *testing.T) {
	minutes := []int{600, 610, 590, 620, 605, 615, 580, 630}
	days := seqDays(minutes)

	got, err := RollingStats(days, High, RollingOptions{Window: 4, MinPeriods: 3})
	require.NoError(t, err)
	require.Len(t, got, len(minutes))

	for i := 0; i < 2; i++ {
		assert.True(t, math.IsNaN(got[i].Median), "position %d", i)
		assert.True(t, math.IsNaN(got[i].CILow))
		assert.Equal(t, i+1, got[i].Observations)
	}

	third := got[2]
	assert.Equal(t, 3, third.Observations)
	assert.InDelta(t, 600.0, third.Median, 1e-12)
	assert.InDelta(t, 600.0, third.Mean, 1e-12)
	assert.InDelta(t, 10.0, third.Std, 1e-12)
	// half width uses the configured window of 4, not the 3 observations
	assert.InDelta(t, 600-1.96*10/2, third.CILow, 1e-9)
	assert.InDelta(t, 600+1.96*10/2, third.CIHigh, 1e-9)

	last := got[7]
	window := []float64{605, 615, 580, 630}
	assert.Equal(t, 4, last.Observations)
	assert.InDelta(t, stats.Median(window), last.Median, 1e-12)
	assert.InDelta(t, stats.Mean(window), last.Mean, 1e-12)
	assert.InDelta(t, stats.StdDev(window), last.Std, 1e-12)
	assert.Equal(t, days[7].Date, last.Date)
}

func TestRollingStats_SortsByDate(t *testing.T) {
	days := seqDays([]int{600, 610, 620})
	reversed := []DayExtremes{days[2], days[1], days[0]}

	got, err := RollingStats(reversed, High, RollingOptions{Window: 2, MinPeriods: 1})
	require.NoError(t, err)
	assert.Equal(t, days[0].Date, got[0].Date)
	assert.InDelta(t, 605.0, got[1].Mean, 1e-12)
	assert.True(t, math.IsNaN(got[0].Std), "one observation has no sample deviation")
}

func TestRollingStats_Defaults(t *testing.T) {
	minutes := make([]int, 70)
	for i := range minutes {
		minutes[i] = 570 + i%30
	}
	got, err := RollingStats(seqDays(minutes), High, DefaultRollingOptions())
	require.NoError(t, err)

	assert.True(t, math.IsNaN(got[8].Mean))
	assert.False(t, math.IsNaN(got[9].Mean))
	assert.Equal(t, 63, got[69].Observations)
}

func TestRollingStats_Validation(t *testing.T) {
	days := seqDays([]int{600})
	tests := []struct {
		name      string
		opts      RollingOptions
		wantField string
	}{
		{name: "zero window", opts: RollingOptions{Window: 0, MinPeriods: 1}, wantField: "window"},
		{name: "min periods above window", opts: RollingOptions{Window: 5, MinPeriods: 6}, wantField: "min_periods"},
		{name: "zero min periods", opts: RollingOptions{Window: 5}, wantField: "min_periods"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RollingStats(days, High, tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.wantField, apperrors.FieldOf(err))
		})
	}
}

func TestRollingPoint_MarshalJSON(t *testing.T) {
	p := RollingPoint{
		Date:   bars.NewDate(2024, time.January, 2),
		Median: math.NaN(), Mean: math.NaN(), Std: math.NaN(), CILow: math.NaN(), CIHigh: math.NaN(),
		Observations: 1,
	}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-02","observations":1,"median":null,"mean":null,"std":null,"ci_low":null,"ci_high":null}`, string(raw))
}
