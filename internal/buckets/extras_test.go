package buckets

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/shared/testutil"
	"almanac/internal/stats"
)

func TestComputeMultiYearStats(t *testing.T) {
	series := make([]bars.Bar, 0)
	values := make([]float64, 0)
	for year := 2022; year <= 2023; year++ {
		for d := 1; d <= 12; d++ {
			c := 100 + float64(d)
			switch d {
			case 11:
				c = 150
			case 12:
				c = 180
			}
			series = append(series, bar(time.Date(year, time.March, d, 10, 0, 0, 0, time.UTC), 100, c))
			if year == 2022 {
				values = append(values, (c-100)/100)
			}
		}
	}

	got, err := ComputeMultiYearStats(series, MetricPctChange, Options{TrimPct: 10, MinSample: 3})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 2022, YearOf(got[0].Key))
	assert.Equal(t, 3, MonthOf(got[0].Key))
	assert.Equal(t, "2022-03", got[0].Key.Label)
	assert.Equal(t, 2023, YearOf(got[1].Key))
	assert.InDelta(t, stats.BandMean(values, 10), got[0].TrimmedMean, 1e-12)
	assert.InDelta(t, 0.065, got[0].TrimmedMean, 1e-9)
	assert.InDelta(t, 0.2405, stats.PercentileMidpoint(values, 10), 1e-9)
}

func TestIntradayVolatilityCurve(t *testing.T) {
	day := testutil.Day(2024, time.March, 4).Add(9*time.Hour + 30*time.Minute)
	series := []bars.Bar{
		bar(day, 100, 101),
		bar(day.AddDate(0, 0, 1), 100, 98),
		bar(day.AddDate(0, 0, 2), 100, 100),
		bar(day.Add(time.Minute), 100, 100.5),
	}

	curve, err := IntradayVolatilityCurve(series)
	require.NoError(t, err)
	require.Len(t, curve, 2)

	first := curve[0]
	assert.Equal(t, "09:30", first.Key.Label)
	assert.Equal(t, 3, first.Count)
	assert.InDelta(t, 0.01, first.MeanAbsReturn, 1e-12)
	assert.InDelta(t, 0.005, first.Q25, 1e-12)
	assert.InDelta(t, 0.015, first.Q75, 1e-12)
	assert.Equal(t, "09:31", curve[1].Key.Label)

	_, err = IntradayVolatilityCurve(nil)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTrimExtremes(t *testing.T) {
	series := testutil.RandomWalk(3, testutil.Day(2024, time.January, 2), 5, 100)

	trimmed, err := TrimExtremes(series, DefaultTrimLower, DefaultTrimUpper)
	require.NoError(t, err)
	assert.Less(t, len(trimmed), len(series))
	assert.GreaterOrEqual(t, len(trimmed), len(series)*3/4)

	var pct []float64
	for _, b := range series {
		pct = append(pct, b.PctChange())
	}
	hi := stats.Quantile(pct, DefaultTrimUpper)
	for _, b := range trimmed {
		assert.LessOrEqual(t, b.PctChange(), hi)
	}

	t.Run("single bar survives", func(t *testing.T) {
		one := series[:1]
		got, err := TrimExtremes(one, 0.05, 0.95)
		require.NoError(t, err)
		assert.Equal(t, one, got)
	})

	t.Run("invalid quantiles", func(t *testing.T) {
		for _, q := range [][2]float64{{0.9, 0.1}, {-0.1, 0.5}, {0.1, 1.5}, {math.NaN(), 0.5}} {
			_, err := TrimExtremes(series, q[0], q[1])
			assert.True(t, apperrors.IsValidation(err), "%v", q)
		}
	})
}

func TestKeys(t *testing.T) {
	ts := time.Date(2024, time.March, 3, 14, 7, 0, 0, time.UTC) // Sunday

	k, ok := ByWeekday(ts)
	assert.True(t, ok)
	assert.Equal(t, 6, k.Ordinal)

	k, _ = ByMonth(ts)
	assert.Equal(t, 3, k.Ordinal)
	assert.Equal(t, "March", k.Label)

	k, _ = ByTimeOfDay(ts)
	assert.Equal(t, 14*60+7, k.Ordinal)

	_, ok = MinuteOfHour(9)(ts)
	assert.False(t, ok)

	assert.Equal(t, 0, WeekdayOrdinal(time.Monday))
}
