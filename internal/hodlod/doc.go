// Package hodlod analyses when the high of day (HOD) and low of day (LOD)
// occur.
//
// DetectExtremes reduces a minute series to one DayExtremes per calendar
// day. Everything else consumes that output: SurvivalCurves gives the
// probability that the extreme has already printed by a given minute,
// Heatmaps counts extremes per 15-minute bin against weekday, month or hour,
// RollingStats tracks the extreme time over a trailing window and TrendTest
// runs a Mann-Kendall test with a Theil-Sen slope on any series.
package hodlod

const (
	// MinDaysForAnalysis is the number of trading days below which callers
	// skip extreme-of-day analysis.
	MinDaysForAnalysis = 10
	// HeatmapBinMinutes is the width of one heatmap column
	HeatmapBinMinutes = 15
	// MinTrendSamples is the series length below which TrendTest reports insufficient data
	MinTrendSamples = 10
	// TrendAlpha is the two-sided significance level of TrendTest
	TrendAlpha = 0.05
	// DefaultRollingWindow and DefaultMinPeriods are the trailing window settings in days
	DefaultRollingWindow = 63
	DefaultMinPeriods    = 10
)
