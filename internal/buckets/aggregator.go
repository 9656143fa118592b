package buckets

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/stats"
)

// BucketStats is the robust summary of one metric inside one bucket
type BucketStats struct {
	Key    Key    `json:"key"`
	Metric Metric `json:"metric"`
	stats.RobustSet
}

// Table holds both metrics for one bucketing
type Table struct {
	Dimension Dimension     `json:"dimension"`
	PctChange []BucketStats `json:"pct_change"`
	Range     []BucketStats `json:"range"`
}

type group struct {
	key    Key
	values []float64
}

// ComputeBucketStats groups bars by keyFn and summarises metric per bucket.
// Output is ordered by Key.Ordinal and the bucket counts sum to the number of
// bars keyFn accepted.
func ComputeBucketStats(series []bars.Bar, keyFn KeyFunc, metric Metric, opts Options) ([]BucketStats, error) {
	if len(series) == 0 {
		return nil, apperrors.NewFieldError("bars", "must not be empty", 0)
	}
	if keyFn == nil {
		return nil, apperrors.NewFieldError("key_fn", "must not be nil", nil)
	}
	if err := metric.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	groups := groupValues(series, keyFn, metric)
	out := make([]BucketStats, len(groups))

	compute := func(i int) error {
		g := groups[i]
		for _, v := range g.values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return apperrors.NewNumericError(
					fmt.Sprintf("non-finite %s in bucket %s", metric, g.key.Label), nil,
				).WithContext("bucket", g.key.Label)
			}
		}
		out[i] = BucketStats{
			Key:       g.key,
			Metric:    metric,
			RobustSet: stats.Robust(g.values, opts.TrimPct, opts.MinSample),
		}
		return nil
	}

	if opts.Parallel <= 1 || len(groups) < 2 {
		for i := range groups {
			if err := compute(i); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var eg errgroup.Group
	eg.SetLimit(opts.Parallel)
	for i := range groups {
		eg.Go(func() error { return compute(i) })
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func groupValues(series []bars.Bar, keyFn KeyFunc, metric Metric) []group {
	index := make(map[int]int)
	groups := make([]group, 0)
	for _, b := range series {
		key, ok := keyFn(b.Time)
		if !ok {
			continue
		}
		i, seen := index[key.Ordinal]
		if !seen {
			i = len(groups)
			index[key.Ordinal] = i
			groups = append(groups, group{key: key})
		}
		groups[i].values = append(groups[i].values, metric.Value(b))
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key.Ordinal < groups[j].key.Ordinal })
	return groups
}

// ComputeBoth runs ComputeBucketStats for pct-change and range
func ComputeBoth(series []bars.Bar, keyFn KeyFunc, opts Options) (Table, error) {
	pct, err := ComputeBucketStats(series, keyFn, MetricPctChange, opts)
	if err != nil {
		return Table{}, fmt.Errorf("pct_change: %w", err)
	}
	rng, err := ComputeBucketStats(series, keyFn, MetricRange, opts)
	if err != nil {
		return Table{}, fmt.Errorf("range: %w", err)
	}

	table := Table{PctChange: pct, Range: rng}
	if len(pct) > 0 {
		table.Dimension = pct[0].Key.Dimension
	}
	return table, nil
}

// HourlyStats summarises both metrics per hour of day
func HourlyStats(series []bars.Bar, opts Options) (Table, error) {
	t, err := ComputeBoth(series, ByHour, opts)
	t.Dimension = DimensionHour
	return t, err
}

// MinuteStats summarises both metrics per minute for bars inside hour.
// An hour with no bars yields an empty table.
func MinuteStats(series []bars.Bar, hour int, opts Options) (Table, error) {
	if hour < 0 || hour > 23 {
		return Table{}, apperrors.NewFieldError("hour", "must be within [0,23]", hour)
	}
	t, err := ComputeBoth(series, MinuteOfHour(hour), opts)
	t.Dimension = DimensionMinute
	return t, err
}

// WeekdayStats summarises both metrics per weekday, Monday first
func WeekdayStats(series []bars.Bar, opts Options) (Table, error) {
	t, err := ComputeBoth(series, ByWeekday, opts)
	t.Dimension = DimensionWeekday
	return t, err
}

// MonthStats summarises both metrics per calendar month
func MonthStats(series []bars.Bar, opts Options) (Table, error) {
	t, err := ComputeBoth(series, ByMonth, opts)
	t.Dimension = DimensionMonth
	return t, err
}

// TotalCount sums the bucket counts
func TotalCount(rows []BucketStats) int {
	n := 0
	for _, s := range rows {
		n += s.Count
	}
	return n
}

// MarshalJSON flattens the key, metric and statistics into one object
func (b BucketStats) MarshalJSON() ([]byte, error) {
	m := b.RobustSet.Fields()
	m["key"] = b.Key
	m["metric"] = b.Metric
	return json.Marshal(m)
}
