package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"almanac/internal/config"
	apperrors "almanac/internal/errors"
	"almanac/internal/services"
)

// streamRows is the table size above which CSVs are streamed
const streamRows = 5000

// ReportExporter writes an analysis report in the configured formats
type ReportExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
	logger    *slog.Logger
}

// NewReportExporter creates a new report exporter
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths, logger),
		paths:     paths,
		logger:    logger,
	}
}

// Export writes every format enabled in cfg and returns the files written
func (e *ReportExporter) Export(report *services.Report, cfg config.OutputConfig) ([]string, error) {
	if err := e.paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewStorageError("failed to create output directory", err)
	}

	var written []string
	if cfg.CSV {
		files, err := e.WriteCSVs(report)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	if cfg.XLSX {
		if err := WriteWorkbook(e.paths.Workbook, Tables(report)); err != nil {
			return written, err
		}
		written = append(written, e.paths.Workbook)
	}
	if cfg.JSON {
		if err := e.WriteJSONFile(report); err != nil {
			return written, err
		}
		written = append(written, e.paths.ReportJSON)
	}

	e.logger.Info("Report exported",
		slog.String("run_id", report.RunID),
		slog.String("output_dir", e.paths.OutputDir),
		slog.Int("files", len(written)))
	return written, nil
}

// WriteCSVs writes one CSV per report table that has a file
func (e *ReportExporter) WriteCSVs(report *services.Report) ([]string, error) {
	targets := []struct {
		path  string
		table Table
	}{
		{e.paths.BucketStatsCSV, BucketStatsTable(report)},
		{e.paths.MultiYearCSV, MultiYearTable(report)},
		{e.paths.VolatilityCSV, VolatilityTable(report)},
		{e.paths.ExtremesCSV, ExtremesTable(report)},
		{e.paths.SurvivalCSV, SurvivalTable(report)},
		{e.paths.HeatmapCSV, HeatmapTable(report)},
		{e.paths.RollingCSV, RollingTable(report)},
		{e.paths.FilterSummaryCSV, FiltersTable(report)},
	}

	written := make([]string, 0, len(targets))
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		if err := e.writeTable(target.path, target.table); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", target.table.Name, err)
		}
		written = append(written, target.path)
	}
	return written, nil
}

func (e *ReportExporter) writeTable(path string, t Table) error {
	if len(t.Rows) <= streamRows {
		return e.csvWriter.WriteSimpleCSV(path, t.Headers, t.Records())
	}

	stream, err := e.csvWriter.CreateStreamWriter(path, t.Headers)
	if err != nil {
		return err
	}
	rec := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for j, v := range row {
			rec[j] = formatCell(v)
		}
		if err := stream.WriteRecord(rec); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}

// WriteJSONFile writes the report as indented JSON to the report path
func (e *ReportExporter) WriteJSONFile(report *services.Report) error {
	path := e.paths.ReportJSON
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create report file", err).WithContext("path", path)
	}
	if err := WriteJSON(file, report); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteWorkbook writes each table to its own sheet of an XLSX file, with
// the header row frozen
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return apperrors.NewFieldError("tables", "must not be empty", 0)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}

func writeSheet(f *excelize.File, t Table) error {
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = workbookCell(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &cells); err != nil {
			return err
		}
	}

	return f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
