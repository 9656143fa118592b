package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/shared/testutil"
)

const minuteText = `01/03/2024,09:31,101,102,100.5,101.5,300
01/02/2024,09:30,100,101,99.5,100.5,1000
01/02/2024,09:31,100.5,101.5,100,101,800

01/03/2024,09:30,101,101.5,100,101,500
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MinuteText(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	r := NewReader(WithLogger(logger))

	series, err := r.Load(context.Background(), writeTemp(t, "ES.txt", minuteText), bars.Date{}, bars.Date{})
	require.NoError(t, err)

	assert.Equal(t, Minute, series.Resolution)
	require.Len(t, series.Bars, 4)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), series.Bars[0].Time)
	assert.Equal(t, time.Date(2024, 1, 3, 9, 31, 0, 0, time.UTC), series.Bars[3].Time)
	assert.Equal(t, 1000.0, series.Bars[0].Volume)
	assert.Equal(t, 0, series.Skipped)

	daily := series.Daily()
	require.Len(t, daily, 2)
	assert.Equal(t, 100.0, daily[0].Open)
	assert.Equal(t, 101.0, daily[0].Close)

	testutil.AssertLogAttr(t, handler, "component", "loader")
	assert.True(t, handler.ContainsMessage("Loaded bars"))
}

func TestLoad_DateRange(t *testing.T) {
	series, err := NewReader().Load(context.Background(), writeTemp(t, "ES.txt", minuteText),
		bars.NewDate(2024, time.January, 3), bars.Date{})
	require.NoError(t, err)
	require.Len(t, series.Bars, 2)
	for _, b := range series.Bars {
		assert.Equal(t, bars.NewDate(2024, time.January, 3), b.Date())
	}

	_, err = NewReader().Load(context.Background(), writeTemp(t, "ES.txt", minuteText),
		bars.NewDate(2025, time.January, 1), bars.NewDate(2025, time.December, 31))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestLoad_DailyTextWithHeader(t *testing.T) {
	content := "Date,Open,High,Low,Close,Volume\n" +
		"09/10/1997,934,936,920,921,12\n" +
		"09/09/1997,933.75,941.25,932.75,934,0\n"

	series, err := NewReader().Load(context.Background(), writeTemp(t, "ES_daily.csv", content), bars.Date{}, bars.Date{})
	require.NoError(t, err)

	assert.Equal(t, Daily, series.Resolution)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, bars.NewDate(1997, time.September, 9), series.Bars[0].Date())
	assert.Equal(t, 933.75, series.Bars[0].Open)

	daily := series.Daily()
	require.Len(t, daily, 2)
	assert.Equal(t, 921.0, daily[1].Close)
}

func TestRead_HeaderReordersColumns(t *testing.T) {
	content := "volume,close,low,high,open,time,date\n" +
		"700,10.5,9.5,11,10,14:05,2024-03-01\n"

	got, res, err := NewReader().Read(context.Background(), strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, Minute, res)
	require.Len(t, got, 1)
	assert.Equal(t, bars.Bar{
		Time: time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
		Open: 10, High: 11, Low: 9.5, Close: 10.5, Volume: 700,
	}, got[0])
}

func TestRead_Location(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	got, _, err := NewReader(WithLocation(loc)).Read(context.Background(),
		strings.NewReader("01/02/2024,09:30,100,101,99,100,1\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 14, got[0].Time.UTC().Hour())
	assert.Equal(t, 570, got[0].MinutesSinceMidnight())
}

func TestLoad_SkipsInvalidBars(t *testing.T) {
	content := minuteText + "01/04/2024,09:30,100,99,101,100,10\n" + // high below low
		"01/04/2024,09:31,0,1,0,1,10\n" // zero open

	series, err := NewReader().Load(context.Background(), writeTemp(t, "ES.txt", content), bars.Date{}, bars.Date{})
	require.NoError(t, err)
	assert.Len(t, series.Bars, 4)
	assert.Equal(t, 2, series.Skipped)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLine  int
		wantField string
	}{
		{name: "bad number", content: "01/02/2024,09:30,100,abc,99,100,1\n", wantLine: 1, wantField: "high"},
		{name: "bad date", content: "01/02/2024,09:30,100,101,99,100,1\n2024.01.03,09:30,100,101,99,100,1\n", wantLine: 2},
		{name: "bad time", content: "01/02/2024,9h30,100,101,99,100,1\n", wantLine: 1},
		{name: "too few fields", content: "01/02/2024,100,101\n", wantLine: 1},
		{name: "short row after layout", content: "01/02/2024,09:30,100,101,99,100,1\n01/02/2024,09:31,100\n", wantLine: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewReader().Read(context.Background(), strings.NewReader(tt.content))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantLine, appErr.Context["line"])
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, appErr.Field())
			}
		})
	}
}

func TestLoad_FileErrors(t *testing.T) {
	r := NewReader()

	_, err := r.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), bars.Date{}, bars.Date{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

	_, err = r.Load(context.Background(), "bars.parquet", bars.Date{}, bars.Date{})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "path", apperrors.FieldOf(err))
}

func TestRead_Cancelled(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < cancelCheckEvery+5; i++ {
		sb.WriteString("01/02/2024,09:30,100,101,99,100,1\n")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewReader().Read(ctx, strings.NewReader(sb.String()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "NQ.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("Minute")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"Date", "Time", "Open", "High", "Low", "Close", "Volume"},
		{"01/02/2024", "09:31", 100.5, 101.5, 100, 101, 800},
		{"01/02/2024", "09:30", 100, 101, 99.5, 100.5, 1000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Minute", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	series, err := NewReader(WithSheet("Minute")).Load(context.Background(), path, bars.Date{}, bars.Date{})
	require.NoError(t, err)
	assert.Equal(t, Minute, series.Resolution)
	require.Len(t, series.Bars, 2)
	assert.Equal(t, 9, series.Bars[0].Time.Hour())
	assert.Equal(t, 30, series.Bars[0].Time.Minute())
	assert.Equal(t, 1000.0, series.Bars[0].Volume)

	_, err = NewReader(WithSheet("Daily")).Load(context.Background(), path, bars.Date{}, bars.Date{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestWrite_RoundTrip(t *testing.T) {
	minute := testutil.MinuteSeries(testutil.Day(2024, time.May, 6), 9, 30, []float64{100, 100.25, 99.75})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, minute, Minute))
	assert.True(t, strings.HasPrefix(buf.String(), "05/06/2024,09:30,100,"))

	got, res, err := NewReader().Read(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, Minute, res)
	assert.Equal(t, minute, got)

	daily := bars.ResampleDaily(minute)
	buf.Reset()
	dailyBars := make([]bars.Bar, len(daily))
	for i, d := range daily {
		dailyBars[i] = d.Bar
	}
	require.NoError(t, Write(&buf, dailyBars, Daily))
	assert.Equal(t, 6, strings.Count(strings.TrimSpace(buf.String()), ",")+1)
}

func TestFindBarFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"NQ.txt", "ES_daily.txt", "notes.md", "GC.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.txt"), 0755))

	files, err := FindBarFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "ES_daily.txt", files[0].Name)
	assert.Equal(t, "ES", files[0].Product)
	assert.Equal(t, "GC", files[1].Product)
	assert.Equal(t, "NQ", files[2].Product)

	_, err = FindBarFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
