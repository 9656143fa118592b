package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AnalysisMetrics holds the instruments of an analysis run. A nil
// *AnalysisMetrics records nothing.
type AnalysisMetrics struct {
	Runs           metric.Int64Counter
	StageDuration  metric.Float64Histogram
	RowsProcessed  metric.Int64Counter
	FilterFailures metric.Int64Counter
}

// NewAnalysisMetrics creates the instruments on meter
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	runs, err := meter.Int64Counter(
		"almanac_runs",
		metric.WithDescription("Total number of analysis runs"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"almanac_stage_duration",
		metric.WithDescription("Analysis stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"almanac_rows_processed",
		metric.WithDescription("Total number of bars processed"),
	)
	if err != nil {
		return nil, err
	}

	filterFailures, err := meter.Int64Counter(
		"almanac_filter_failures",
		metric.WithDescription("Total number of predicates that failed to evaluate"),
	)
	if err != nil {
		return nil, err
	}

	return &AnalysisMetrics{
		Runs:           runs,
		StageDuration:  stageDuration,
		RowsProcessed:  rows,
		FilterFailures: filterFailures,
	}, nil
}

// RecordRun counts a finished run by status
func (m *AnalysisMetrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordStage records how long a stage took and how it ended
func (m *AnalysisMetrics) RecordStage(ctx context.Context, stage, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordRows counts bars of the given kind (minute, daily, intermarket)
func (m *AnalysisMetrics) RecordRows(ctx context.Context, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsProcessed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordFilterFailures counts predicates whose evaluation failed
func (m *AnalysisMetrics) RecordFilterFailures(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FilterFailures.Add(ctx, int64(n))
}
