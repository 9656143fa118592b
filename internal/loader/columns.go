package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

// Resolution is the bar interval of a file
type Resolution string

const (
	Minute Resolution = "minute"
	Daily  Resolution = "daily"
)

var (
	dateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02", "01-02-06"}
	timeLayouts = []string{"15:04", "15:04:05"}
)

// columns maps fields to positions; clock is -1 for daily files
type columns struct {
	date, clock, open, high, low, close, volume int
}

func (c columns) resolution() Resolution {
	if c.clock < 0 {
		return Daily
	}
	return Minute
}

func (c columns) width() int {
	w := 0
	for _, i := range []int{c.date, c.clock, c.open, c.high, c.low, c.close, c.volume} {
		if i+1 > w {
			w = i + 1
		}
	}
	return w
}

// positional returns the headerless layout for a row of n fields
func positional(n int) (columns, error) {
	switch {
	case n >= 7:
		return columns{date: 0, clock: 1, open: 2, high: 3, low: 4, close: 5, volume: 6}, nil
	case n == 6:
		return columns{date: 0, clock: -1, open: 1, high: 2, low: 3, close: 4, volume: 5}, nil
	default:
		return columns{}, fmt.Errorf("expected 6 or 7 fields, got %d", n)
	}
}

// fromHeader maps column positions from header names. ok is false when the
// row does not look like a header.
func fromHeader(fields []string) (cols columns, ok bool) {
	cols = columns{date: -1, clock: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, f := range fields {
		switch name := strings.ToLower(strings.TrimSpace(f)); {
		case name == "date" || name == "day":
			cols.date = i
		case name == "time" || name == "timestamp":
			cols.clock = i
		case name == "open" || name == "o":
			cols.open = i
		case name == "high" || name == "h":
			cols.high = i
		case name == "low" || name == "l":
			cols.low = i
		case name == "close" || name == "last" || name == "c":
			cols.close = i
		case strings.HasPrefix(name, "vol") || name == "v":
			cols.volume = i
		}
	}
	if cols.date < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 || cols.volume < 0 {
		return cols, false
	}
	return cols, true
}

// rowParser turns records into bars, detecting the layout on the first row
type rowParser struct {
	loc  *time.Location
	cols *columns
}

// parse converts one record. header reports a header row, which yields no bar.
func (p *rowParser) parse(fields []string, line int) (b bars.Bar, header bool, err error) {
	if p.cols == nil {
		if cols, ok := fromHeader(fields); ok {
			p.cols = &cols
			return b, true, nil
		}
		cols, err := positional(len(fields))
		if err != nil {
			return b, false, parseError(line, err)
		}
		p.cols = &cols
	}

	c := *p.cols
	if len(fields) < c.width() {
		return b, false, parseError(line, fmt.Errorf("expected %d fields, got %d", c.width(), len(fields)))
	}

	ts, err := p.timestamp(fields, c)
	if err != nil {
		return b, false, parseError(line, err)
	}
	b.Time = ts

	for _, f := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", c.open, &b.Open}, {"high", c.high, &b.High}, {"low", c.low, &b.Low},
		{"close", c.close, &b.Close}, {"volume", c.volume, &b.Volume},
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[f.idx]), 64)
		if err != nil {
			return b, false, parseError(line, fmt.Errorf("%s: %w", f.name, err)).WithContext("field", f.name)
		}
		*f.dst = v
	}
	return b, false, nil
}

func (p *rowParser) timestamp(fields []string, c columns) (time.Time, error) {
	dateStr := strings.TrimSpace(fields[c.date])
	var day time.Time
	var err error
	for _, layout := range dateLayouts {
		if day, err = time.ParseInLocation(layout, dateStr, p.loc); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: unrecognised format", dateStr)
	}
	if c.clock < 0 {
		return day, nil
	}

	clockStr := strings.TrimSpace(fields[c.clock])
	var clock time.Time
	for _, layout := range timeLayouts {
		if clock, err = time.Parse(layout, clockStr); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: unrecognised format", clockStr)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, p.loc), nil
}

func parseError(line int, cause error) *apperrors.AppError {
	return apperrors.NewParsingError(fmt.Sprintf("line %d", line), cause).WithContext("line", line)
}
