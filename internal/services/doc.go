// Package services implements the orchestration layer of almanac. It sits
// between the bar loader and the pure statistics packages, and is the only
// place where logging, tracing and metrics meet the analysis.
//
// # Pipeline
//
// AnalysisService.Run executes one analysis in stages:
//
//	load      read the studied and optional intermarket files
//	filter    quick filter, custom predicates and session criteria, combined
//	          into one day mask and projected onto the studied bars
//	buckets   hourly, minute, weekday, month, multi-year and volatility tables
//	extremes  high/low of day detection, gated on a minimum number of days
//	timing    survival curves, heatmaps, rolling statistics and trend tests
//
// Cancellation is checked between stages. A failing load or an invalid
// filter configuration aborts the run; every other failure is recorded on
// the report section it belongs to, so one bad table never hides the rest.
//
// # Report sections
//
// Each section carries a Status:
//
//	ok                 Data holds the result
//	insufficient_data  the stage was skipped, Reason says why
//	error              the stage failed, Error holds the detail
//
// # Testing
//
// The loader is injected through the BarLoader interface and mocked with
// testify in the package tests:
//
//	source := new(MockBarLoader)
//	source.On("Load", mock.Anything, "es.csv", bars.Date{}, bars.Date{}).Return(series, nil)
//	report, err := NewAnalysisService(source, logger).Run(ctx, req)
package services
