// Package exporter writes analysis reports for downstream tools.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers, streaming,
// and UTF-8 BOM for Excel compatibility. Relative paths land in the output
// directory.
//
// Tables: flattens a services.Report into named tables (bucket statistics,
// multi-year, volatility curve, extremes, survival, heatmap, rolling, trend,
// filters and a section summary). Undefined statistics become blank cells.
//
// ReportExporter: writes the tables as one CSV each, as sheets of one XLSX
// workbook, and the full report as JSON.
//
// Example usage:
//
//	exp := exporter.NewReportExporter(cfg.GetPaths(), logger)
//	files, err := exp.Export(report, cfg.Output)
package exporter
