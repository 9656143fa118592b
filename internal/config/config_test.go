package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/bars"
	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
	"almanac/internal/filters"
	"almanac/internal/hodlod"
)

// chdirTemp moves the test into an empty directory so no stray config or
// .env file is picked up
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(originalDir) })
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, buckets.DefaultTrimPct, cfg.Analysis.TrimPct)
	assert.Equal(t, buckets.DefaultMinSample, cfg.Analysis.MinSample)
	assert.Equal(t, hodlod.DefaultRollingWindow, cfg.Analysis.RollingWindow)
	assert.Equal(t, hodlod.DefaultMinPeriods, cfg.Analysis.MinPeriods)
	assert.Equal(t, hodlod.MinDaysForAnalysis, cfg.Analysis.MinDays)
	assert.Equal(t, 4, cfg.Analysis.Parallel)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.Timeout)
	assert.False(t, cfg.Analysis.TrimOutliers)

	assert.Equal(t, "all", cfg.Filters.Quick)
	assert.Equal(t, "AND", cfg.Filters.Operator)
	assert.Empty(t, cfg.Filters.Predicates)
	assert.True(t, cfg.Filters.Session.Empty())

	assert.Equal(t, "UTC", cfg.Input.Timezone)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.True(t, cfg.Output.CSV)
	assert.False(t, cfg.Output.XLSX)
	assert.True(t, cfg.Output.JSON)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "almanac", cfg.Telemetry.ServiceName)
	assert.Equal(t, "none", cfg.Telemetry.TraceOutput)

	require.NoError(t, cfg.validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		wantField   string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "environment variables",
			env: map[string]string{
				"ALMANAC_ANALYSIS_TRIM_PCT":      "10",
				"ALMANAC_ANALYSIS_FROM":          "2023-01-02",
				"ALMANAC_FILTERS_QUICK":          "gap_up",
				"ALMANAC_FILTERS_OPERATOR":       "or",
				"ALMANAC_INPUT_PATH":             "data/es.txt",
				"ALMANAC_OUTPUT_XLSX":            "true",
				"ALMANAC_LOGGING_LEVEL":          "debug",
				"ALMANAC_TELEMETRY_TRACE_OUTPUT": "stdout",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 10.0, cfg.Analysis.TrimPct)
				assert.Equal(t, "2023-01-02", cfg.Analysis.From)
				assert.Equal(t, "gap_up", cfg.Filters.Quick)
				assert.Equal(t, "OR", cfg.Filters.Operator, "operator is normalised")
				assert.Equal(t, "data/es.txt", cfg.Input.Path)
				assert.True(t, cfg.Output.XLSX)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceOutput)
			},
		},
		{
			name: "config file overrides environment",
			env:  map[string]string{"ALMANAC_ANALYSIS_MIN_SAMPLE": "20", "ALMANAC_LOGGING_LEVEL": "warn"},
			file: `
analysis:
  min_sample: 30
  rolling_window: 21
  min_periods: 5
filters:
  predicates:
    - {asset: studied, metric: gap, condition: gt, value: 0.005}
  session:
    weekdays: [1, 3]
    filters: [prev_neg]
    time_a: {hour: 10, minute: 0}
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30, cfg.Analysis.MinSample)
				assert.Equal(t, "warn", cfg.Logging.Level, "env value survives when the file is silent")
				assert.Equal(t, hodlod.RollingOptions{Window: 21, MinPeriods: 5}, cfg.RollingOptions())

				require.Len(t, cfg.Filters.Predicates, 1)
				p := cfg.Filters.Predicates[0]
				assert.Equal(t, filters.AssetStudied, p.Asset)
				assert.Equal(t, filters.MetricGap, p.Metric)
				assert.Equal(t, filters.GT, p.Comparator)
				require.NotNil(t, p.Threshold)
				assert.Equal(t, 0.005, *p.Threshold)

				assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, cfg.Filters.Session.Weekdays)
				assert.Equal(t, []filters.SessionFilter{filters.PrevNegative}, cfg.Filters.Session.Filters)
				require.NotNil(t, cfg.Filters.Session.TimeA)
				assert.Equal(t, 10, cfg.Filters.Session.TimeA.Hour)
				assert.Nil(t, cfg.Filters.Session.TimeB)
			},
		},
		{
			name:      "trim percentage out of range",
			env:       map[string]string{"ALMANAC_ANALYSIS_TRIM_PCT": "50"},
			wantErr:   true,
			wantField: "analysis.trim_pct",
		},
		{
			name:      "unknown quick filter",
			env:       map[string]string{"ALMANAC_FILTERS_QUICK": "sideways"},
			wantErr:   true,
			wantField: "filters.quick",
		},
		{
			name:      "inverted date range",
			env:       map[string]string{"ALMANAC_ANALYSIS_FROM": "2024-02-01", "ALMANAC_ANALYSIS_TO": "2024-01-01"},
			wantErr:   true,
			wantField: "analysis.to",
		},
		{
			name:      "malformed date",
			env:       map[string]string{"ALMANAC_ANALYSIS_FROM": "01/02/2024"},
			wantErr:   true,
			wantField: "analysis.from",
		},
		{
			name:      "bad timezone",
			env:       map[string]string{"ALMANAC_INPUT_TIMEZONE": "Mars/Olympus"},
			wantErr:   true,
			wantField: "input.timezone",
		},
		{
			name:      "bad log output",
			env:       map[string]string{"ALMANAC_LOGGING_OUTPUT": "syslog"},
			wantErr:   true,
			wantField: "logging.output",
		},
		{
			name:      "bad log format",
			env:       map[string]string{"ALMANAC_LOGGING_FORMAT": "xml"},
			wantErr:   true,
			wantField: "logging.format",
		},
		{
			name:      "bad trace output",
			env:       map[string]string{"ALMANAC_TELEMETRY_TRACE_OUTPUT": "jaeger"},
			wantErr:   true,
			wantField: "telemetry.trace_output",
		},
		{
			name:    "min periods above window",
			file:    "analysis:\n  rolling_window: 5\n  min_periods: 6\n",
			wantErr: true,
		},
		{
			name:    "unparsable env value",
			env:     map[string]string{"ALMANAC_ANALYSIS_PARALLEL": "many"},
			wantErr: true,
		},
		{
			name:    "invalid YAML syntax",
			file:    "analysis: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdirTemp(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			configFile := ""
			if tt.file != "" {
				configFile = writeFile(t, dir, "almanac.yaml", tt.file)
			}

			cfg, err := Load(configFile)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				if tt.wantField != "" {
					assert.Equal(t, tt.wantField, apperrors.FieldOf(err))
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoad_DiscoversConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, dir, "almanac.yaml", "input:\n  sheet: Minute\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Minute", cfg.Input.Sheet)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, dir, ".env", "ALMANAC_OUTPUT_DIR=reports\n")
	t.Cleanup(func() { os.Unsetenv("ALMANAC_OUTPUT_DIR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "reports", cfg.Output.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	chdirTemp(t)

	_, err := Load("does-not-exist.yaml")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestConfigAccessors(t *testing.T) {
	cfg := Default()
	cfg.Analysis.From = "2024-01-02"
	cfg.Input.Timezone = "America/Chicago"

	assert.Equal(t, buckets.Options{TrimPct: 5, MinSample: 10, Parallel: 4}, cfg.BucketOptions())

	from, to, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, bars.NewDate(2024, time.January, 2), from)
	assert.True(t, to.IsZero())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestGetPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Output.Dir = filepath.Join(dir, "reports", "run1")

	paths := cfg.GetPaths()
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "bucket_stats.csv"), paths.BucketStatsCSV)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "almanac.xlsx"), paths.Workbook)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "report.json"), paths.ReportJSON)

	assert.False(t, FileExists(paths.OutputDir))
	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.OutputDir))
}
