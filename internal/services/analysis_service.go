package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"almanac/internal/bars"
	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
	"almanac/internal/filters"
	"almanac/internal/hodlod"
	"almanac/internal/infrastructure"
	"almanac/internal/loader"
)

// BarLoader reads a bar file restricted to a date range
type BarLoader interface {
	Load(ctx context.Context, path string, from, to bars.Date) (*loader.Series, error)
}

// AnalysisService runs the full analysis pipeline over bar files
type AnalysisService struct {
	source  BarLoader
	engine  *filters.Engine
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.AnalysisMetrics
}

// ServiceOption configures an AnalysisService
type ServiceOption func(*AnalysisService)

// WithTracer sets the tracer stages are recorded on (default no-op)
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *AnalysisService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the instruments runs are counted on
func WithMetrics(metrics *infrastructure.AnalysisMetrics) ServiceOption {
	return func(s *AnalysisService) { s.metrics = metrics }
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(source BarLoader, logger *slog.Logger, opts ...ServiceOption) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AnalysisService{
		source: source,
		engine: filters.NewEngine(logger),
		logger: infrastructure.WithComponent(logger, "analysis_service"),
		tracer: noop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one analysis. Load and filter configuration errors abort the
// run; failures of individual tables are reported on their sections.
func (s *AnalysisService) Run(ctx context.Context, req Request) (*Report, error) {
	req = req.withDefaults()
	if req.Path == "" {
		return nil, ErrNoInput
	}
	if err := s.validatePredicates(req); err != nil {
		return nil, err
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("input.path", req.Path),
		attribute.String("filters.quick", string(req.Quick)),
		attribute.Int("filters.predicates", len(req.Predicates)),
	))
	defer span.End()

	start := time.Now()
	report := &Report{
		RunID:       infrastructure.GetTraceID(ctx),
		GeneratedAt: start.UTC(),
	}

	s.logger.InfoContext(ctx, "analysis started",
		slog.String("path", req.Path),
		slog.String("intermarket_path", req.IntermarketPath),
		slog.String("quick", string(req.Quick)),
		slog.Int("predicates", len(req.Predicates)))

	err := s.run(ctx, req, report)
	status := runStatus(err)
	s.metrics.RecordRun(ctx, status)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "analysis failed",
			slog.String("path", req.Path),
			slog.String("status", status),
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis complete",
		slog.String("path", req.Path),
		slog.Int("rows", report.Filters.Rows),
		slog.Int("filtered_days", report.Filters.Sample.FilteredDays),
		slog.Duration("duration", time.Since(start)))
	return report, nil
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func (s *AnalysisService) run(ctx context.Context, req Request, report *Report) error {
	var studied, intermarket *loader.Series
	err := s.stage(ctx, "load", func(ctx context.Context) error {
		var err error
		if studied, err = s.source.Load(ctx, req.Path, req.From, req.To); err != nil {
			return err
		}
		s.metrics.RecordRows(ctx, string(studied.Resolution), len(studied.Bars))
		if req.IntermarketPath == "" {
			return nil
		}
		if intermarket, err = s.source.Load(ctx, req.IntermarketPath, req.From, req.To); err != nil {
			return fmt.Errorf("intermarket: %w", err)
		}
		s.metrics.RecordRows(ctx, "intermarket", len(intermarket.Bars))
		return nil
	})
	if err != nil {
		return err
	}

	days := studied.Daily()
	var interDays []bars.DailyBar
	if intermarket != nil {
		interDays = intermarket.Daily()
	}
	report.Source = summarize(req, studied, days, interDays)

	var rows []bars.Bar
	err = s.stage(ctx, "filter", func(ctx context.Context) error {
		var err error
		rows, err = s.applyFilters(ctx, req, studied, days, interDays, &report.Filters)
		return err
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		s.logger.WarnContext(ctx, "filters kept no bars", slog.Int("days", len(days)))
		report.skipAll(ErrNoMatchingBars)
		return nil
	}

	intraday := studied.Resolution == loader.Minute
	err = s.stage(ctx, "buckets", func(ctx context.Context) error {
		s.computeBuckets(req, intraday, rows, report)
		return nil
	})
	if err != nil {
		return err
	}
	if !intraday {
		report.skipTiming(ErrDailyResolution)
		return nil
	}

	var extremes []hodlod.DayExtremes
	err = s.stage(ctx, "extremes", func(ctx context.Context) error {
		extremes = s.detectExtremes(ctx, req, rows, report)
		return nil
	})
	if err != nil || extremes == nil {
		return err
	}

	return s.stage(ctx, "timing", func(ctx context.Context) error {
		s.computeTiming(req, extremes, report)
		return nil
	})
}

// stage runs fn inside a span after checking for cancellation, and records
// its duration
func (s *AnalysisService) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	ctx, span := s.tracer.Start(ctx, "analysis."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
		infrastructure.RecordError(ctx, err)
	}
	s.metrics.RecordStage(ctx, name, status, time.Since(start))
	s.logger.DebugContext(ctx, "stage finished",
		slog.String("stage", name),
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)))
	return err
}

func summarize(req Request, studied *loader.Series, days, interDays []bars.DailyBar) SourceSummary {
	sum := SourceSummary{
		Path:            req.Path,
		IntermarketPath: req.IntermarketPath,
		Resolution:      string(studied.Resolution),
		Bars:            len(studied.Bars),
		Days:            len(days),
		Skipped:         studied.Skipped,
		IntermarketDays: len(interDays),
	}
	if len(days) > 0 {
		sum.FirstDate = days[0].Date
		sum.LastDate = days[len(days)-1].Date
	}
	return sum
}

// validatePredicates rejects the first malformed predicate so a typo fails the
// run instead of silently dropping a filter. Only numeric failures found while
// evaluating are isolated per predicate.
func (s *AnalysisService) validatePredicates(req Request) error {
	for i, p := range req.Predicates {
		if err := s.engine.ValidatePredicate(p); err != nil {
			return fmt.Errorf("predicate %d: %w", i, err)
		}
		if p.Asset == filters.AssetIntermarket && req.IntermarketPath == "" {
			return fmt.Errorf("predicate %d: %w", i,
				apperrors.NewFieldError("asset", "intermarket predicate needs intermarket data", string(p.Asset)))
		}
	}
	return nil
}

// applyFilters builds the day mask and returns the studied bars it keeps
func (s *AnalysisService) applyFilters(ctx context.Context, req Request, studied *loader.Series, days, interDays []bars.DailyBar, summary *FilterSummary) ([]bars.Bar, error) {
	summary.Quick = req.Quick
	summary.Operator = req.Operator
	summary.Dates = bars.Dates(days)

	quick, err := s.engine.Quick(days, req.Quick)
	if err != nil {
		return nil, err
	}
	var masks []filters.Mask
	// "all" keeps every day and would swamp an OR
	if req.Quick != filters.QuickAll {
		masks = append(masks, quick)
	}

	summary.Predicates = s.engine.EvaluateBatch(days, interDays, req.Predicates)
	ok := filters.Masks(summary.Predicates)
	s.metrics.RecordFilterFailures(ctx, len(req.Predicates)-len(ok))
	masks = append(masks, ok...)

	if !req.Session.Empty() {
		session := req.Session
		summary.Session = &session
		var minuteBars []bars.Bar
		if studied.Resolution == loader.Minute {
			minuteBars = studied.Bars
		}
		mask, err := s.engine.SessionMask(days, minuteBars, session)
		if err != nil {
			return nil, err
		}
		masks = append(masks, mask)
	}

	combined, err := filters.Combine(masks, req.Operator, len(days))
	if err != nil {
		return nil, err
	}
	summary.Mask = combined
	summary.Sample = filters.NewSampleStats(len(days), combined.Count())

	rows, err := filters.ProjectToMinuteRows(days, combined, studied.Bars)
	if err != nil {
		return nil, err
	}
	if req.TrimOutliers && len(rows) > 0 {
		trimmed, err := buckets.TrimExtremes(rows, buckets.DefaultTrimLower, buckets.DefaultTrimUpper)
		if err != nil {
			return nil, err
		}
		summary.Trimmed = len(rows) - len(trimmed)
		rows = trimmed
	}
	summary.Rows = len(rows)

	s.logger.InfoContext(ctx, "filters applied",
		slog.Int("total_days", summary.Sample.TotalDays),
		slog.Int("filtered_days", summary.Sample.FilteredDays),
		slog.Float64("percentage", summary.Sample.Percentage),
		slog.Int("rows", summary.Rows),
		slog.Int("trimmed", summary.Trimmed))
	if !summary.Sample.IsSufficient {
		s.logger.WarnContext(ctx, "filtered sample is small",
			slog.Int("filtered_days", summary.Sample.FilteredDays),
			slog.Int("recommended", filters.MinSufficientDays))
	}
	return rows, nil
}

func (s *AnalysisService) computeBuckets(req Request, intraday bool, rows []bars.Bar, report *Report) {
	opts := req.Buckets

	weekday, err := buckets.WeekdayStats(rows, opts)
	report.Weekday = sectionOf(weekday, err)
	month, err := buckets.MonthStats(rows, opts)
	report.Month = sectionOf(month, err)
	report.MultiYear = multiYear(rows, opts)

	if !intraday {
		report.Hourly = skipped[buckets.Table](ErrDailyResolution)
		report.Minute = skipped[buckets.Table](ErrDailyResolution)
		report.Volatility = skipped[[]buckets.VolatilityPoint](ErrDailyResolution)
		return
	}

	hourly, err := buckets.HourlyStats(rows, opts)
	report.Hourly = sectionOf(hourly, err)

	hour := earliestHour(rows)
	if req.MinuteHour != nil {
		hour = *req.MinuteHour
	}
	minute, err := buckets.MinuteStats(rows, hour, opts)
	report.Minute = sectionOf(minute, err)

	curve, err := buckets.IntradayVolatilityCurve(rows)
	report.Volatility = sectionOf(curve, err)
}

func multiYear(rows []bars.Bar, opts buckets.Options) Section[MultiYear] {
	pct, err := buckets.ComputeMultiYearStats(rows, buckets.MetricPctChange, opts)
	if err != nil {
		return sectionOf(MultiYear{}, err)
	}
	rng, err := buckets.ComputeMultiYearStats(rows, buckets.MetricRange, opts)
	if err != nil {
		return sectionOf(MultiYear{}, err)
	}
	return sectionOf(MultiYear{PctChange: pct, Range: rng}, nil)
}

func earliestHour(rows []bars.Bar) int {
	hour := 23
	for _, b := range rows {
		if h := b.Time.Hour(); h < hour {
			hour = h
		}
	}
	return hour
}

// detectExtremes fills the extremes section and returns the days, or nil
// when the timing sections were skipped
func (s *AnalysisService) detectExtremes(ctx context.Context, req Request, rows []bars.Bar, report *Report) []hodlod.DayExtremes {
	days, err := hodlod.DetectExtremes(rows)
	if err != nil {
		report.skipTimingErr(err)
		return nil
	}
	if len(days) < req.MinDays {
		s.logger.WarnContext(ctx, "too few days for extreme-of-day analysis",
			slog.Int("days", len(days)),
			slog.Int("required", req.MinDays))
		report.skipTimingErr(apperrors.NewInsufficientDataError(
			fmt.Sprintf("extreme-of-day analysis needs %d days, have %d", req.MinDays, len(days)),
			len(days), req.MinDays))
		return nil
	}
	report.Extremes = sectionOf(days, nil)
	return days
}

var heatmapDimensions = []hodlod.Dimension{hodlod.ByWeekday, hodlod.ByMonth, hodlod.ByHour}

func (s *AnalysisService) computeTiming(req Request, days []hodlod.DayExtremes, report *Report) {
	high, low := hodlod.SurvivalCurves(days)
	report.Survival = sectionOf(Survival{High: high, Low: low}, nil)

	report.Heatmaps = heatmaps(days)
	report.Rolling = rolling(days, req.Rolling)

	report.Trend = sectionOf(Trend{
		High: hodlod.TrendTest(hodlod.MinuteSeries(days, hodlod.High)),
		Low:  hodlod.TrendTest(hodlod.MinuteSeries(days, hodlod.Low)),
	}, nil)
}

func heatmaps(days []hodlod.DayExtremes) Section[[]hodlod.Matrix] {
	out := make([]hodlod.Matrix, 0, 2*len(heatmapDimensions))
	for _, dim := range heatmapDimensions {
		high, low, err := hodlod.Heatmaps(days, dim)
		if err != nil {
			return sectionOf[[]hodlod.Matrix](nil, err)
		}
		out = append(out, high, low)
	}
	return sectionOf(out, nil)
}

func rolling(days []hodlod.DayExtremes, opts hodlod.RollingOptions) Section[Rolling] {
	high, err := hodlod.RollingStats(days, hodlod.High, opts)
	if err != nil {
		return sectionOf(Rolling{}, err)
	}
	low, err := hodlod.RollingStats(days, hodlod.Low, opts)
	if err != nil {
		return sectionOf(Rolling{}, err)
	}
	return sectionOf(Rolling{High: high, Low: low}, nil)
}
