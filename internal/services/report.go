package services

import (
	"time"

	"almanac/internal/bars"
	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
	"almanac/internal/filters"
	"almanac/internal/hodlod"
)

// Status tells a renderer whether a section holds data
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusError            Status = "error"
)

// Section is one table of the report
type Section[T any] struct {
	Status Status                 `json:"status"`
	Reason string                 `json:"reason,omitempty"`
	Error  *apperrors.ErrorDetail `json:"error,omitempty"`
	Data   T                      `json:"data,omitempty"`
}

// OK reports whether the section holds data
func (s Section[T]) OK() bool {
	return s.Status == StatusOK
}

// sectionOf builds a section from a stage result. Insufficient-data errors
// mark the section skipped rather than failed.
func sectionOf[T any](data T, err error) Section[T] {
	switch {
	case err == nil:
		return Section[T]{Status: StatusOK, Data: data}
	case apperrors.IsInsufficientData(err):
		return Section[T]{Status: StatusInsufficientData, Reason: err.Error(), Error: apperrors.Detail(err)}
	default:
		return Section[T]{Status: StatusError, Error: apperrors.Detail(err)}
	}
}

// skipped builds an insufficient-data section with a plain reason
func skipped[T any](reason error) Section[T] {
	return Section[T]{Status: StatusInsufficientData, Reason: reason.Error()}
}

// SourceSummary describes the loaded input
type SourceSummary struct {
	Path            string    `json:"path"`
	IntermarketPath string    `json:"intermarket_path,omitempty"`
	Resolution      string    `json:"resolution"`
	Bars            int       `json:"bars"`
	Days            int       `json:"days"`
	Skipped         int       `json:"skipped"`
	IntermarketDays int       `json:"intermarket_days,omitempty"`
	FirstDate       bars.Date `json:"first_date"`
	LastDate        bars.Date `json:"last_date"`
}

// FilterSummary describes how the day mask was built and what it kept
type FilterSummary struct {
	Quick      filters.QuickFilter      `json:"quick"`
	Operator   filters.Operator         `json:"operator"`
	Predicates []filters.Outcome        `json:"predicates"`
	Session    *filters.SessionCriteria `json:"session,omitempty"`
	Sample     filters.SampleStats      `json:"sample"`
	// Rows is the number of bars left after filtering and outlier trimming
	Rows    int `json:"rows"`
	Trimmed int `json:"trimmed"`
	// Mask is indexed against Dates
	Mask  filters.Mask `json:"-"`
	Dates []bars.Date  `json:"-"`
}

// MultiYear holds the per (year, month) tables
type MultiYear struct {
	PctChange []buckets.BucketStats `json:"pct_change"`
	Range     []buckets.BucketStats `json:"range"`
}

// Survival holds the high and low survival curves
type Survival struct {
	High []hodlod.SurvivalPoint `json:"high"`
	Low  []hodlod.SurvivalPoint `json:"low"`
}

// Rolling holds the trailing extreme-time statistics
type Rolling struct {
	High []hodlod.RollingPoint `json:"high"`
	Low  []hodlod.RollingPoint `json:"low"`
}

// Trend holds the trend tests of the extreme times
type Trend struct {
	High hodlod.TrendResult `json:"high"`
	Low  hodlod.TrendResult `json:"low"`
}

// Report is the result of one analysis run
type Report struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Source      SourceSummary `json:"source"`
	Filters     FilterSummary `json:"filters"`

	Hourly     Section[buckets.Table]             `json:"hourly"`
	Minute     Section[buckets.Table]             `json:"minute"`
	Weekday    Section[buckets.Table]             `json:"weekday"`
	Month      Section[buckets.Table]             `json:"month"`
	MultiYear  Section[MultiYear]                 `json:"multi_year"`
	Volatility Section[[]buckets.VolatilityPoint] `json:"volatility_curve"`

	Extremes Section[[]hodlod.DayExtremes] `json:"extremes"`
	Survival Section[Survival]            `json:"survival"`
	Heatmaps Section[[]hodlod.Matrix]     `json:"heatmaps"`
	Rolling  Section[Rolling]             `json:"rolling"`
	Trend    Section[Trend]               `json:"trend"`
}

// skipAll marks every analysis section skipped for reason
func (r *Report) skipAll(reason error) {
	r.Hourly = skipped[buckets.Table](reason)
	r.Minute = skipped[buckets.Table](reason)
	r.Weekday = skipped[buckets.Table](reason)
	r.Month = skipped[buckets.Table](reason)
	r.MultiYear = skipped[MultiYear](reason)
	r.Volatility = skipped[[]buckets.VolatilityPoint](reason)
	r.skipTiming(reason)
}

// skipTiming marks the extreme-of-day sections skipped for reason
func (r *Report) skipTiming(reason error) {
	r.Extremes = skipped[[]hodlod.DayExtremes](reason)
	r.Survival = skipped[Survival](reason)
	r.Heatmaps = skipped[[]hodlod.Matrix](reason)
	r.Rolling = skipped[Rolling](reason)
	r.Trend = skipped[Trend](reason)
}

// skipTimingErr marks the extreme-of-day sections with the same error
func (r *Report) skipTimingErr(err error) {
	r.Extremes = sectionOf[[]hodlod.DayExtremes](nil, err)
	r.Survival = sectionOf(Survival{}, err)
	r.Heatmaps = sectionOf[[]hodlod.Matrix](nil, err)
	r.Rolling = sectionOf(Rolling{}, err)
	r.Trend = sectionOf(Trend{}, err)
}
