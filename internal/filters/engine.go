package filters

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-playground/validator/v10"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

// Engine evaluates filters. It is safe for concurrent use.
type Engine struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		validate: newValidator(),
		logger:   logger.With(slog.String("component", "filter_engine")),
	}
}

// ValidatePredicate checks a predicate's structure before evaluation
func (e *Engine) ValidatePredicate(p Predicate) error {
	return validateStruct(e.validate, p)
}

// Quick evaluates a preset filter over days
func (e *Engine) Quick(days []bars.DailyBar, name QuickFilter) (Mask, error) {
	switch name {
	case QuickAll:
		return Fill(len(days), true), nil
	case QuickBull, QuickBear:
		m := make(Mask, len(days))
		for i, d := range days {
			if name == QuickBull {
				m[i] = d.Close > d.Open
			} else {
				m[i] = d.Close < d.Open
			}
		}
		return m, nil
	case QuickHighVol, QuickLowVol:
		ranges, err := metricSeries(days, MetricDailyRange)
		if err != nil {
			return nil, err
		}
		m := make(Mask, len(days))
		if len(days) == 0 {
			return m, nil
		}
		if name == QuickHighVol {
			threshold := stats.Quantile(ranges, 0.75)
			for i, r := range ranges {
				m[i] = r > threshold
			}
		} else {
			threshold := stats.Quantile(ranges, 0.25)
			for i, r := range ranges {
				m[i] = r < threshold
			}
		}
		return m, nil
	case QuickGapUp, QuickGapDown:
		gaps, err := metricSeries(days, MetricGap)
		if err != nil {
			return nil, err
		}
		m := make(Mask, len(days))
		// the first day has no prior close and never gaps
		for i := 1; i < len(gaps); i++ {
			if name == QuickGapUp {
				m[i] = gaps[i] > GapThreshold
			} else {
				m[i] = gaps[i] < -GapThreshold
			}
		}
		return m, nil
	default:
		return nil, apperrors.NewFieldError("quick_filter",
			"must be one of: all, bull, bear, high_vol, low_vol, gap_up, gap_down", string(name))
	}
}

// Evaluate computes predicate p and aligns the result onto studied's dates.
// Intermarket predicates read intermarket, which must then be non-empty.
func (e *Engine) Evaluate(studied, intermarket []bars.DailyBar, p Predicate) (Mask, error) {
	if err := e.ValidatePredicate(p); err != nil {
		return nil, err
	}

	target := studied
	if p.Asset == AssetIntermarket {
		if len(intermarket) == 0 {
			return nil, apperrors.NewFieldError("asset", "intermarket predicate needs intermarket data", string(p.Asset))
		}
		target = intermarket
	}

	values, err := metricSeries(target, p.Metric)
	if err != nil {
		return nil, err
	}

	hits := make(map[bars.Date]bool, len(target))
	for i, d := range target {
		hits[d.Date] = compare(values[i], p.Comparator, *p.Threshold)
	}

	mask := make(Mask, len(studied))
	for i, d := range studied {
		mask[i] = hits[d.Date]
	}

	e.logger.Debug("predicate evaluated",
		slog.String("asset", string(p.Asset)),
		slog.String("metric", string(p.Metric)),
		slog.Int("matched", mask.Count()),
		slog.Int("total", len(mask)))
	return mask, nil
}

func compare(x float64, c Comparator, threshold float64) bool {
	switch c {
	case GT:
		return x > threshold
	case LT:
		return x < threshold
	case GTE:
		return x >= threshold
	case LTE:
		return x <= threshold
	default:
		return math.Abs(x-threshold) < EqualTolerance
	}
}

// metricSeries computes metric for every day. Degenerate inputs produce a
// numeric error naming the day.
func metricSeries(days []bars.DailyBar, metric Metric) ([]float64, error) {
	out := make([]float64, len(days))
	for i, d := range days {
		var v float64
		switch metric {
		case MetricDailyReturn, MetricDailyRange:
			if d.Open <= 0 {
				return nil, numericError(metric, d.Date, "open must be positive", d.Open)
			}
			if metric == MetricDailyReturn {
				v = (d.Close - d.Open) / d.Open
			} else {
				v = (d.High - d.Low) / d.Open
			}
		case MetricGap:
			if i == 0 {
				break
			}
			prev := days[i-1].Close
			if prev <= 0 {
				return nil, numericError(metric, d.Date, "prior close must be positive", prev)
			}
			v = (d.Open - prev) / prev
		case MetricVolume:
			v = d.Volume
		default:
			return nil, apperrors.NewFieldError("metric", "unknown metric", string(metric))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, numericError(metric, d.Date, "value is not finite", v)
		}
		out[i] = v
	}
	return out, nil
}

func numericError(metric Metric, date bars.Date, msg string, value float64) error {
	return apperrors.NewNumericError(fmt.Sprintf("%s on %s: %s", metric, date, msg), nil).
		WithContext("metric", string(metric)).
		WithContext("date", date.String()).
		WithContext("value", value)
}
