package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	_ "time/tzdata"

	"almanac/internal/bars"
	"almanac/internal/config"
	apperrors "almanac/internal/errors"
	"almanac/internal/exporter"
	"almanac/internal/infrastructure"
	"almanac/internal/loader"
	"almanac/internal/services"
)

const shutdownTimeout = 5 * time.Second

// options are the command line flags
type options struct {
	configFile  string
	input       string
	intermarket string
	from        string
	to          string
	out         string
	quick       string
	operator    string
	xlsx        bool
	minuteHour  int
	printJSON   bool
	list        string
	writeDaily  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "YAML config file (defaults to almanac.yaml or configs/almanac.yaml when present)")
	fs.StringVar(&opts.input, "input", "", "studied bar file (.csv, .txt or .xlsx)")
	fs.StringVar(&opts.intermarket, "intermarket", "", "intermarket bar file for cross-asset filters")
	fs.StringVar(&opts.from, "from", "", "first date to analyse (YYYY-MM-DD)")
	fs.StringVar(&opts.to, "to", "", "last date to analyse (YYYY-MM-DD)")
	fs.StringVar(&opts.out, "out", "", "output directory")
	fs.StringVar(&opts.quick, "quick", "", "quick filter: all, bull, bear, high_vol, low_vol, gap_up, gap_down")
	fs.StringVar(&opts.operator, "operator", "", "filter combination: AND or OR")
	fs.BoolVar(&opts.xlsx, "xlsx", false, "also write an XLSX workbook")
	fs.IntVar(&opts.minuteHour, "minute-hour", -1, "hour broken down by minute (-1 uses the first hour of the session)")
	fs.BoolVar(&opts.printJSON, "print", false, "print the JSON report to stdout")
	fs.StringVar(&opts.list, "list", "", "list the bar files in a directory and exit")
	fs.StringVar(&opts.writeDaily, "write-daily", "", "resample the input to daily bars, write them to this path and exit")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

// applyFlags overrides the loaded configuration with explicitly set flags
func applyFlags(fs *flag.FlagSet, opts *options, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input.Path = opts.input
		case "intermarket":
			cfg.Input.IntermarketPath = opts.intermarket
		case "from":
			cfg.Analysis.From = opts.from
		case "to":
			cfg.Analysis.To = opts.to
		case "out":
			cfg.Output.Dir = opts.out
		case "quick":
			cfg.Filters.Quick = opts.quick
		case "operator":
			cfg.Filters.Operator = opts.operator
		case "xlsx":
			cfg.Output.XLSX = opts.xlsx
		}
	})
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.list != "" {
		return listFiles(opts.list, stdout, stderr)
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	applyFlags(fs, opts, cfg)
	if cfg.Input.Path == "" {
		fmt.Fprintln(stderr, "no input file: set -input or input.path")
		return 2
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", slog.String("error", err.Error()))
		return 1
	}
	reader := loader.NewReader(
		loader.WithLocation(loc),
		loader.WithSheet(cfg.Input.Sheet),
		loader.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Analysis.Timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if opts.writeDaily != "" {
		return writeDaily(ctx, reader, cfg, opts.writeDaily, logger)
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, stdout, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return 1
	}

	req, err := services.NewRequest(cfg)
	if err != nil {
		logger.Error("Invalid analysis request", slog.String("error", err.Error()))
		return exitCode(err)
	}
	if opts.minuteHour >= 0 {
		hour := opts.minuteHour
		req.MinuteHour = &hour
	}

	service := services.NewAnalysisService(reader, logger,
		services.WithTracer(providers.Tracer),
		services.WithMetrics(metrics))

	var code int
	report, err := service.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(stderr, "analysis failed: %v\n", err)
		code = exitCode(err)
	} else {
		code = export(report, cfg, opts.printJSON, stdout, logger)
	}

	if cfg.Telemetry.MetricsFile != "" {
		if err := providers.WriteMetricsTextfile(cfg.Telemetry.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", slog.String("error", err.Error()))
		}
	}
	return code
}

// exitCode maps an analysis error to a process exit code: 2 for bad input,
// 1 otherwise
func exitCode(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrTypeValidation, apperrors.ErrTypeConfig, apperrors.ErrTypeNotFound:
		return 2
	default:
		if errors.Is(err, services.ErrNoInput) {
			return 2
		}
		return 1
	}
}

func export(report *services.Report, cfg *config.Config, printJSON bool, stdout io.Writer, logger *slog.Logger) int {
	paths := cfg.GetPaths()
	paths.LogPathResolution(logger)

	files, err := exporter.NewReportExporter(paths, logger).Export(report, cfg.Output)
	if err != nil {
		logger.Error("Failed to export report", slog.String("error", err.Error()))
		return 1
	}
	for _, f := range files {
		logger.Debug("Wrote report file", slog.String("path", f))
	}

	if printJSON {
		if err := exporter.WriteJSON(stdout, report); err != nil {
			logger.Error("Failed to print report", slog.String("error", err.Error()))
			return 1
		}
	}
	return 0
}

// listFiles prints the bar files found in dir
func listFiles(dir string, stdout, stderr io.Writer) int {
	files, err := loader.FindBarFiles(dir)
	if err != nil {
		fmt.Fprintf(stderr, "failed to list %s: %v\n", dir, err)
		return 1
	}
	for _, f := range files {
		fmt.Fprintf(stdout, "%-12s %10d  %s  %s\n",
			f.Product, f.Size, f.ModTime.Format("2006-01-02 15:04"), f.Path)
	}
	return 0
}

// writeDaily resamples the input file to daily bars and writes them in the
// headerless daily layout
func writeDaily(ctx context.Context, reader *loader.Reader, cfg *config.Config, path string, logger *slog.Logger) int {
	from, to, err := cfg.DateRange()
	if err != nil {
		logger.Error("Invalid date range", slog.String("error", err.Error()))
		return exitCode(err)
	}
	series, err := reader.Load(ctx, cfg.Input.Path, from, to)
	if err != nil {
		logger.Error("Failed to load bars", slog.String("error", err.Error()))
		return exitCode(err)
	}

	days := series.Daily()
	daily := make([]bars.Bar, len(days))
	for i, d := range days {
		daily[i] = d.Bar
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("Failed to create directory", slog.String("error", err.Error()))
		return 1
	}
	f, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create daily file", slog.String("path", path), slog.String("error", err.Error()))
		return 1
	}
	if err := loader.Write(f, daily, loader.Daily); err != nil {
		f.Close()
		logger.Error("Failed to write daily bars", slog.String("error", err.Error()))
		return 1
	}
	if err := f.Close(); err != nil {
		logger.Error("Failed to close daily file", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("Wrote daily bars",
		slog.String("input", cfg.Input.Path),
		slog.String("output", path),
		slog.Int("days", len(daily)))
	return 0
}
