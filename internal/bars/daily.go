package bars

// DailyBar is one bar per calendar day
type DailyBar struct {
	Date Date `json:"date"`
	Bar
}

// ResampleDaily collapses a chronological bar series into one bar per date:
// first open, max high, min low, last close, summed volume. The daily bar's
// Time is the first bar's timestamp of the day.
func ResampleDaily(series []Bar) []DailyBar {
	out := make([]DailyBar, 0)
	for _, b := range series {
		d := b.Date()
		n := len(out)
		if n > 0 && out[n-1].Date == d {
			cur := &out[n-1]
			if b.High > cur.High {
				cur.High = b.High
			}
			if b.Low < cur.Low {
				cur.Low = b.Low
			}
			cur.Close = b.Close
			cur.Volume += b.Volume
			continue
		}
		out = append(out, DailyBar{Date: d, Bar: b})
	}
	return out
}

// AsDaily treats each bar of an already-daily series as its own day.
func AsDaily(series []Bar) []DailyBar {
	out := make([]DailyBar, len(series))
	for i, b := range series {
		out[i] = DailyBar{Date: b.Date(), Bar: b}
	}
	return out
}

// Dates returns the dates of a daily series in order
func Dates(days []DailyBar) []Date {
	out := make([]Date, len(days))
	for i, d := range days {
		out[i] = d.Date
	}
	return out
}

// Index maps each date to its position in days. Later duplicates win.
func Index(days []DailyBar) map[Date]int {
	idx := make(map[Date]int, len(days))
	for i, d := range days {
		idx[d.Date] = i
	}
	return idx
}
