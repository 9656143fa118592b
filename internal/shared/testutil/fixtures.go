package testutil

import (
	"math"
	"math/rand"
	"time"

	"almanac/internal/bars"
)

// Day returns midnight UTC of the given date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MinuteSeries builds consecutive one-minute bars starting at hh:mm on day.
// Each close comes from closes; the open is the previous close (the first open
// equals the first close) and high/low bracket both.
func MinuteSeries(day time.Time, hour, minute int, closes []float64) []bars.Bar {
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	out := make([]bars.Bar, len(closes))
	prev := 0.0
	for i, c := range closes {
		open := prev
		if i == 0 {
			open = c
		}
		out[i] = bars.Bar{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   open,
			High:   math.Max(open, c) + 0.01,
			Low:    math.Min(open, c) - 0.01,
			Close:  c,
			Volume: 100,
		}
		prev = c
	}
	return out
}

// DailySeries builds one daily bar per consecutive weekday starting at start,
// using (open, close) pairs. High and low bracket open and close by 1%.
func DailySeries(start time.Time, pairs [][2]float64) []bars.DailyBar {
	out := make([]bars.DailyBar, 0, len(pairs))
	day := start
	for _, p := range pairs {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		open, closePrice := p[0], p[1]
		b := bars.Bar{
			Time:   day,
			Open:   open,
			High:   math.Max(open, closePrice) * 1.01,
			Low:    math.Min(open, closePrice) * 0.99,
			Close:  closePrice,
			Volume: 1000,
		}
		out = append(out, bars.DailyBar{Date: bars.DateOf(day), Bar: b})
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// RandomWalk generates days trading days of minute bars (09:30 onwards,
// barsPerDay each) from a seeded random walk.
func RandomWalk(seed int64, start time.Time, days, barsPerDay int) []bars.Bar {
	rng := rand.New(rand.NewSource(seed))
	out := make([]bars.Bar, 0, days*barsPerDay)
	price := 100.0
	day := start
	for d := 0; d < days; d++ {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		open := day.Add(9*time.Hour + 30*time.Minute)
		for m := 0; m < barsPerDay; m++ {
			o := price
			c := o * (1 + rng.NormFloat64()*0.001)
			h := math.Max(o, c) * (1 + rng.Float64()*0.0005)
			l := math.Min(o, c) * (1 - rng.Float64()*0.0005)
			out = append(out, bars.Bar{
				Time:   open.Add(time.Duration(m) * time.Minute),
				Open:   o,
				High:   h,
				Low:    l,
				Close:  c,
				Volume: float64(100 + rng.Intn(900)),
			})
			price = c
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}
