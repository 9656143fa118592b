package bars

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "almanac/internal/errors"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func TestBar_Validate(t *testing.T) {
	valid := Bar{Time: at(4, 9, 30), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000}

	tests := []struct {
		name      string
		mutate    func(b *Bar)
		wantField string
	}{
		{name: "valid bar", mutate: func(b *Bar) {}},
		{name: "zero open", mutate: func(b *Bar) { b.Open = 0 }, wantField: "open"},
		{name: "negative volume", mutate: func(b *Bar) { b.Volume = -1 }, wantField: "volume"},
		{name: "high below close", mutate: func(b *Bar) { b.High = 100.2 }, wantField: "high"},
		{name: "low above open", mutate: func(b *Bar) { b.Low = 100.1 }, wantField: "low"},
		{name: "NaN close", mutate: func(b *Bar) { b.Close = math.NaN() }, wantField: "close"},
		{name: "missing time", mutate: func(b *Bar) { b.Time = time.Time{} }, wantField: "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			err := b.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				assert.True(t, b.IsValid())
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.FieldOf(err))
		})
	}
}

func TestBar_Metrics(t *testing.T) {
	b := Bar{Time: at(4, 14, 45), Open: 100, High: 103, Low: 98, Close: 102}

	assert.InDelta(t, 0.02, b.PctChange(), 1e-12)
	assert.InDelta(t, 5.0, b.Range(), 1e-12)
	assert.InDelta(t, 0.05, b.RangePct(), 1e-12)
	assert.Equal(t, 14*60+45, b.MinutesSinceMidnight())
	assert.Equal(t, NewDate(2024, time.March, 4), b.Date())
	assert.True(t, math.IsNaN(Bar{Open: 0, Close: 1}.PctChange()))
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2024-03-04", d.String())
	assert.True(t, d.Before(NewDate(2024, time.March, 5)))
	assert.True(t, NewDate(2025, time.January, 1).After(d))
	assert.Equal(t, 0, d.Compare(NewDate(2024, time.March, 4)))

	_, err = ParseDate("03/04/2024")
	assert.Error(t, err)

	var back Date
	text, err := d.MarshalText()
	require.NoError(t, err)
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, d, back)
}

func TestDateOf_UsesTimestampLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("timezone database unavailable")
	}
	ts := time.Date(2024, time.March, 4, 23, 30, 0, 0, ny)
	assert.Equal(t, NewDate(2024, time.March, 4), DateOf(ts))
	assert.Equal(t, NewDate(2024, time.March, 5), DateOf(ts.UTC()))
}

func TestValidateSeries(t *testing.T) {
	ok := []Bar{
		{Time: at(4, 9, 30), Open: 10, High: 11, Low: 9, Close: 10},
		{Time: at(4, 9, 31), Open: 10, High: 11, Low: 9, Close: 10},
	}
	assert.NoError(t, ValidateSeries(ok))

	unordered := []Bar{ok[1], ok[0]}
	err := ValidateSeries(unordered)
	require.Error(t, err)
	assert.Equal(t, "time", apperrors.FieldOf(err))

	sorted := SortChronological(unordered)
	assert.Equal(t, ok, sorted)
	assert.Equal(t, ok[1], unordered[0], "input must not be reordered")
}

func TestInRange(t *testing.T) {
	series := []Bar{
		{Time: at(1, 10, 0)}, {Time: at(2, 10, 0)}, {Time: at(3, 10, 0)}, {Time: at(4, 10, 0)},
	}
	got := InRange(series, NewDate(2024, time.March, 2), NewDate(2024, time.March, 3))
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Time.Day())

	assert.Len(t, InRange(series, Date{}, Date{}), 4)
}
