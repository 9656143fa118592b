package exporter

import (
	"fmt"

	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
	"almanac/internal/hodlod"
	"almanac/internal/services"
	"almanac/internal/stats"
)

// Table names, also used as workbook sheet names
const (
	TableSummary     = "summary"
	TableBucketStats = "bucket_stats"
	TableMultiYear   = "multi_year"
	TableVolatility  = "volatility_curve"
	TableExtremes    = "extremes"
	TableSurvival    = "survival"
	TableHeatmap     = "heatmap"
	TableRolling     = "rolling"
	TableTrend       = "trend"
	TableFilters     = "filters"
)

// Table is one flat report table. Cells are strings, ints, float64s, bools,
// dates or times; NaN marks an undefined statistic.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Records renders the rows as CSV records
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		out[i] = rec
	}
	return out
}

// Tables flattens a report into its tables, summary first
func Tables(r *services.Report) []Table {
	return []Table{
		SummaryTable(r),
		BucketStatsTable(r),
		MultiYearTable(r),
		VolatilityTable(r),
		ExtremesTable(r),
		SurvivalTable(r),
		HeatmapTable(r),
		RollingTable(r),
		TrendTable(r),
		FiltersTable(r),
	}
}

type sectionStatus struct {
	name   string
	status services.Status
	reason string
	err    *apperrors.ErrorDetail
}

func statusOf[T any](name string, s services.Section[T]) sectionStatus {
	return sectionStatus{name: name, status: s.Status, reason: s.Reason, err: s.Error}
}

// SummaryTable lists the status of every section
func SummaryTable(r *services.Report) Table {
	t := Table{Name: TableSummary, Headers: []string{"section", "status", "detail"}}
	for _, s := range []sectionStatus{
		statusOf("hourly", r.Hourly),
		statusOf("minute", r.Minute),
		statusOf("weekday", r.Weekday),
		statusOf("month", r.Month),
		statusOf("multi_year", r.MultiYear),
		statusOf("volatility_curve", r.Volatility),
		statusOf("extremes", r.Extremes),
		statusOf("survival", r.Survival),
		statusOf("heatmaps", r.Heatmaps),
		statusOf("rolling", r.Rolling),
		statusOf("trend", r.Trend),
	} {
		detail := s.reason
		if detail == "" && s.err != nil {
			detail = s.err.Message
		}
		t.Rows = append(t.Rows, []any{s.name, string(s.status), detail})
	}
	return t
}

var statHeaders = []string{"count", "mean", "trimmed_mean", "band_mean", "median", "mode", "variance"}

func statCells(s stats.RobustSet) []any {
	return []any{s.Count, s.Mean, s.TrimmedMean, s.BandMean, s.Median, s.Mode, s.Variance}
}

// BucketStatsTable stacks the hourly, minute, weekday and month tables
func BucketStatsTable(r *services.Report) Table {
	t := Table{
		Name:    TableBucketStats,
		Headers: append([]string{"dimension", "metric", "ordinal", "label"}, statHeaders...),
	}
	for _, section := range []services.Section[buckets.Table]{r.Hourly, r.Minute, r.Weekday, r.Month} {
		if !section.OK() {
			continue
		}
		for _, rows := range [][]buckets.BucketStats{section.Data.PctChange, section.Data.Range} {
			for _, b := range rows {
				row := []any{string(b.Key.Dimension), string(b.Metric), b.Key.Ordinal, b.Key.Label}
				t.Rows = append(t.Rows, append(row, statCells(b.RobustSet)...))
			}
		}
	}
	return t
}

// MultiYearTable lists the per (year, month) statistics. Its trimmed mean is
// the band mean.
func MultiYearTable(r *services.Report) Table {
	t := Table{
		Name:    TableMultiYear,
		Headers: append([]string{"year", "month", "metric"}, statHeaders...),
	}
	if !r.MultiYear.OK() {
		return t
	}
	for _, rows := range [][]buckets.BucketStats{r.MultiYear.Data.PctChange, r.MultiYear.Data.Range} {
		for _, b := range rows {
			row := []any{buckets.YearOf(b.Key), buckets.MonthOf(b.Key), string(b.Metric)}
			t.Rows = append(t.Rows, append(row, statCells(b.RobustSet)...))
		}
	}
	return t
}

// VolatilityTable lists the intraday volatility curve
func VolatilityTable(r *services.Report) Table {
	t := Table{
		Name:    TableVolatility,
		Headers: []string{"time", "mean_abs_return", "q25", "q75", "count"},
	}
	if !r.Volatility.OK() {
		return t
	}
	for _, p := range r.Volatility.Data {
		t.Rows = append(t.Rows, []any{p.Key.Label, p.MeanAbsReturn, p.Q25, p.Q75, p.Count})
	}
	return t
}

// ExtremesTable lists one row per day with both extremes
func ExtremesTable(r *services.Report) Table {
	t := Table{
		Name: TableExtremes,
		Headers: []string{"date", "weekday", "high_time", "high_price", "high_minutes",
			"low_time", "low_price", "low_minutes"},
	}
	if !r.Extremes.OK() {
		return t
	}
	for _, d := range r.Extremes.Data {
		t.Rows = append(t.Rows, []any{
			d.Date, d.Date.Weekday().String(),
			d.High.Time, d.High.Price, d.High.MinutesSinceMidnight,
			d.Low.Time, d.Low.Price, d.Low.MinutesSinceMidnight,
		})
	}
	return t
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SurvivalTable lists both survival curves
func SurvivalTable(r *services.Report) Table {
	t := Table{Name: TableSurvival, Headers: []string{"variant", "minutes", "time", "probability"}}
	if !r.Survival.OK() {
		return t
	}
	for _, c := range []struct {
		variant hodlod.Variant
		points  []hodlod.SurvivalPoint
	}{
		{hodlod.High, r.Survival.Data.High},
		{hodlod.Low, r.Survival.Data.Low},
	} {
		for _, p := range c.points {
			t.Rows = append(t.Rows, []any{string(c.variant), p.Minutes, clock(p.Minutes), p.Probability})
		}
	}
	return t
}

// HeatmapTable lists every heatmap cell in long form
func HeatmapTable(r *services.Report) Table {
	t := Table{Name: TableHeatmap, Headers: []string{"dimension", "variant", "row", "bin", "bin_time", "count"}}
	if !r.Heatmaps.OK() {
		return t
	}
	for _, m := range r.Heatmaps.Data {
		for i, row := range m.Rows {
			for j, bin := range m.Bins {
				t.Rows = append(t.Rows, []any{string(m.Dimension), string(m.Variant), row, bin, clock(bin), m.Counts[i][j]})
			}
		}
	}
	return t
}

// RollingTable lists the trailing statistics of both variants
func RollingTable(r *services.Report) Table {
	t := Table{
		Name:    TableRolling,
		Headers: []string{"variant", "date", "observations", "median", "mean", "std", "ci_low", "ci_high"},
	}
	if !r.Rolling.OK() {
		return t
	}
	for _, c := range []struct {
		variant hodlod.Variant
		points  []hodlod.RollingPoint
	}{
		{hodlod.High, r.Rolling.Data.High},
		{hodlod.Low, r.Rolling.Data.Low},
	} {
		for _, p := range c.points {
			t.Rows = append(t.Rows, []any{string(c.variant), p.Date, p.Observations,
				p.Median, p.Mean, p.Std, p.CILow, p.CIHigh})
		}
	}
	return t
}

// TrendTable lists the trend tests. Statistics are blank unless the test ran.
func TrendTable(r *services.Report) Table {
	t := Table{
		Name:    TableTrend,
		Headers: []string{"variant", "kind", "trend", "p_value", "slope", "z_score", "s", "n", "reason"},
	}
	if !r.Trend.OK() {
		return t
	}
	for _, c := range []struct {
		variant hodlod.Variant
		result  hodlod.TrendResult
	}{
		{hodlod.High, r.Trend.Data.High},
		{hodlod.Low, r.Trend.Data.Low},
	} {
		res := c.result
		row := []any{string(c.variant), res.Kind.String(), nil, nil, nil, nil, nil, res.N, res.Reason}
		if res.Kind == hodlod.TrendOK {
			row[2], row[3], row[4], row[5], row[6] = string(res.Direction), res.PValue, res.Slope, res.ZScore, res.S
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FiltersTable lists each predicate and, last, the combined mask
func FiltersTable(r *services.Report) Table {
	t := Table{
		Name: TableFilters,
		Headers: []string{"index", "description", "status", "filtered_days", "total_days",
			"percentage", "is_sufficient", "error"},
	}
	for _, o := range r.Filters.Predicates {
		status, msg := "ok", ""
		if !o.OK() {
			status = "error"
			msg = apperrors.Detail(o.Err).Message
		}
		t.Rows = append(t.Rows, []any{o.Index, o.Description, status, o.Stats.FilteredDays,
			o.Stats.TotalDays, o.Stats.Percentage, o.Stats.IsSufficient, msg})
	}

	s := r.Filters.Sample
	desc := fmt.Sprintf("Combined %s (quick filter: %s)", r.Filters.Operator, r.Filters.Quick)
	t.Rows = append(t.Rows, []any{nil, desc, "ok", s.FilteredDays, s.TotalDays, s.Percentage, s.IsSufficient, ""})
	return t
}
