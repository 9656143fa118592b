package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"almanac/internal/bars"
	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
	"almanac/internal/filters"
	"almanac/internal/hodlod"
)

// Config represents the complete application configuration. Leaf fields use
// split_words so envconfig never falls back to unprefixed names such as PATH.
type Config struct {
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Filters   FiltersConfig   `yaml:"filters" envconfig:"FILTERS"`
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// AnalysisConfig tunes the statistics
type AnalysisConfig struct {
	TrimPct       float64 `yaml:"trim_pct" split_words:"true" default:"5"`
	MinSample     int     `yaml:"min_sample" split_words:"true" default:"10"`
	Parallel      int     `yaml:"parallel" split_words:"true" default:"4"`
	RollingWindow int     `yaml:"rolling_window" split_words:"true" default:"63"`
	MinPeriods    int     `yaml:"min_periods" split_words:"true" default:"10"`
	MinDays       int     `yaml:"min_days" split_words:"true" default:"10"`
	// TrimOutliers drops bars outside the 5th-95th percentile band of pct change or range
	// before bucketing.
	TrimOutliers bool          `yaml:"trim_outliers" split_words:"true" default:"false"`
	From         string        `yaml:"from" split_words:"true"`
	To           string        `yaml:"to" split_words:"true"`
	Timeout      time.Duration `yaml:"timeout" split_words:"true" default:"5m"`
}

// FiltersConfig selects the days analysed. Predicates and session criteria
// are only read from the config file.
type FiltersConfig struct {
	Quick      string                  `yaml:"quick" split_words:"true" default:"all"`
	Operator   string                  `yaml:"operator" split_words:"true" default:"AND"`
	Predicates []filters.Predicate     `yaml:"predicates" ignored:"true"`
	Session    filters.SessionCriteria `yaml:"session" ignored:"true"`
}

// InputConfig locates the bar files
type InputConfig struct {
	Path            string `yaml:"path" split_words:"true"`
	IntermarketPath string `yaml:"intermarket_path" split_words:"true"`
	// Sheet names the worksheet of XLSX inputs; empty reads the first sheet.
	Sheet    string `yaml:"sheet" split_words:"true"`
	Timezone string `yaml:"timezone" split_words:"true" default:"UTC"`
}

// OutputConfig selects report formats
type OutputConfig struct {
	Dir  string `yaml:"dir" split_words:"true" default:"output"`
	CSV  bool   `yaml:"csv" split_words:"true" default:"true"`
	XLSX bool   `yaml:"xlsx" split_words:"true" default:"false"`
	JSON bool   `yaml:"json" split_words:"true" default:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" default:"info"`
	Format   string `yaml:"format" split_words:"true" default:"json"`
	Output   string `yaml:"output" split_words:"true" default:"console"`
	FilePath string `yaml:"file_path" split_words:"true" default:"logs/almanac.log"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" split_words:"true" default:"almanac"`
	// TraceOutput is none, stdout or file.
	TraceOutput string `yaml:"trace_output" split_words:"true" default:"none"`
	TraceFile   string `yaml:"trace_file" split_words:"true" default:"logs/traces.json"`
	// MetricsFile receives the Prometheus text dump after a run; empty disables it.
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// Default returns the configuration described by the default tags
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// default tags are static; a failure here is a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &cfg
}

// Load builds the configuration. Sources in increasing precedence: default
// tags, the environment (a .env file included), then configFile. An empty
// configFile searches the usual locations and proceeds without one.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfigError("failed to load .env", err)
	}

	cfg := Default()

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s", filePath), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("failed to parse config file %s", filePath), err)
	}
	return nil
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	for _, location := range configLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// validate validates the configuration
func (c *Config) validate() error {
	a := c.Analysis
	if a.TrimPct < 0 || a.TrimPct >= 50 {
		return fieldError("analysis.trim_pct", "must be within [0, 50)", a.TrimPct)
	}
	if a.MinSample < 1 {
		return fieldError("analysis.min_sample", "must be at least 1", a.MinSample)
	}
	if a.Parallel < 1 {
		return fieldError("analysis.parallel", "must be at least 1", a.Parallel)
	}
	if err := c.RollingOptions().Validate(); err != nil {
		return apperrors.NewConfigError("invalid rolling window", err)
	}
	if a.MinDays < 1 {
		return fieldError("analysis.min_days", "must be at least 1", a.MinDays)
	}
	if a.Timeout <= 0 {
		return fieldError("analysis.timeout", "must be positive", a.Timeout)
	}
	from, to, err := c.DateRange()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fieldError("analysis.to", "must not precede analysis.from", a.To)
	}

	switch filters.QuickFilter(c.Filters.Quick) {
	case filters.QuickAll, filters.QuickBull, filters.QuickBear, filters.QuickHighVol,
		filters.QuickLowVol, filters.QuickGapUp, filters.QuickGapDown:
	default:
		return fieldError("filters.quick", "unknown quick filter", c.Filters.Quick)
	}
	switch filters.Operator(strings.ToUpper(c.Filters.Operator)) {
	case filters.AND, filters.OR:
		c.Filters.Operator = strings.ToUpper(c.Filters.Operator)
	default:
		return fieldError("filters.operator", "must be AND or OR", c.Filters.Operator)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fieldError("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fieldError("logging.format", "must be json or text", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fieldError("logging.output", "must be console, file or both", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fieldError("logging.file_path", "is required for file output", c.Logging.FilePath)
	}

	switch c.Telemetry.TraceOutput {
	case "none", "stdout":
	case "file":
		if c.Telemetry.TraceFile == "" {
			return fieldError("telemetry.trace_file", "is required for file output", c.Telemetry.TraceFile)
		}
	default:
		return fieldError("telemetry.trace_output", "must be none, stdout or file", c.Telemetry.TraceOutput)
	}

	if c.Output.Dir == "" && (c.Output.CSV || c.Output.XLSX) {
		return fieldError("output.dir", "is required for file reports", c.Output.Dir)
	}
	return nil
}

func fieldError(field, msg string, value interface{}) error {
	return apperrors.NewConfigError(fmt.Sprintf("%s %s", field, msg), nil).
		WithContext("field", field).
		WithContext("value", value)
}

// BucketOptions returns the bucket statistics settings
func (c *Config) BucketOptions() buckets.Options {
	return buckets.Options{
		TrimPct:   c.Analysis.TrimPct,
		MinSample: c.Analysis.MinSample,
		Parallel:  c.Analysis.Parallel,
	}
}

// RollingOptions returns the trailing window settings
func (c *Config) RollingOptions() hodlod.RollingOptions {
	return hodlod.RollingOptions{
		Window:     c.Analysis.RollingWindow,
		MinPeriods: c.Analysis.MinPeriods,
	}
}

// DateRange parses the analysis bounds; empty bounds are zero dates
func (c *Config) DateRange() (from, to bars.Date, err error) {
	if c.Analysis.From != "" {
		if from, err = bars.ParseDate(c.Analysis.From); err != nil {
			return from, to, apperrors.NewConfigError("invalid analysis.from", err).WithContext("field", "analysis.from")
		}
	}
	if c.Analysis.To != "" {
		if to, err = bars.ParseDate(c.Analysis.To); err != nil {
			return from, to, apperrors.NewConfigError("invalid analysis.to", err).WithContext("field", "analysis.to")
		}
	}
	return from, to, nil
}

// Location resolves the timezone bar timestamps are read in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Input.Timezone)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid input.timezone", err).
			WithContext("field", "input.timezone").
			WithContext("value", c.Input.Timezone)
	}
	return loc, nil
}
