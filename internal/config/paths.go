package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every report path of one run
type Paths struct {
	OutputDir string

	BucketStatsCSV   string
	MultiYearCSV     string
	VolatilityCSV    string
	ExtremesCSV      string
	SurvivalCSV      string
	HeatmapCSV       string
	RollingCSV       string
	FilterSummaryCSV string
	Workbook         string
	ReportJSON       string
}

// GetPaths returns the report paths under the configured output directory
func (c *Config) GetPaths() *Paths {
	dir := c.Output.Dir
	return &Paths{
		OutputDir:        dir,
		BucketStatsCSV:   filepath.Join(dir, BucketStatsFile),
		MultiYearCSV:     filepath.Join(dir, MultiYearFile),
		VolatilityCSV:    filepath.Join(dir, VolatilityFile),
		ExtremesCSV:      filepath.Join(dir, ExtremesFile),
		SurvivalCSV:      filepath.Join(dir, SurvivalFile),
		HeatmapCSV:       filepath.Join(dir, HeatmapFile),
		RollingCSV:       filepath.Join(dir, RollingFile),
		FilterSummaryCSV: filepath.Join(dir, FilterSummaryFile),
		Workbook:         filepath.Join(dir, WorkbookFile),
		ReportJSON:       filepath.Join(dir, ReportFile),
	}
}

// EnsureDirectories creates the output directory if it doesn't exist
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs where the reports go
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Debug("Path resolution summary",
		slog.String("output_dir", p.OutputDir),
		slog.Group("report_files",
			slog.String("bucket_stats", p.BucketStatsCSV),
			slog.String("survival", p.SurvivalCSV),
			slog.String("heatmap", p.HeatmapCSV),
			slog.String("rolling", p.RollingCSV),
			slog.String("workbook", p.Workbook),
			slog.String("report", p.ReportJSON),
		))
}
