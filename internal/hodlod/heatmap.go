package hodlod

import (
	"fmt"
	"sort"

	"almanac/internal/buckets"
	apperrors "almanac/internal/errors"
)

// Dimension is the row grouping of a heatmap
type Dimension string

const (
	ByWeekday Dimension = "weekday"
	ByMonth   Dimension = "month"
	ByHour    Dimension = "hour"
)

// ParseDimension validates a dimension name
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case ByWeekday, ByMonth, ByHour:
		return d, nil
	default:
		return "", apperrors.NewFieldError("dimension", "must be weekday, month or hour", s)
	}
}

// Matrix is a dense count table: Counts[r][c] is the number of days in row r
// whose event fell in the bin starting at Bins[c] minutes.
type Matrix struct {
	Dimension Dimension `json:"dimension"`
	Variant   Variant   `json:"variant"`
	Rows      []string  `json:"rows"`
	Bins      []int     `json:"bins"`
	Counts    [][]int   `json:"counts"`
}

// Total returns the sum of all cells
func (m Matrix) Total() int {
	n := 0
	for _, row := range m.Counts {
		for _, c := range row {
			n += c
		}
	}
	return n
}

// BinOf returns the heatmap column of a minute-of-day
func BinOf(minutes int) int {
	return (minutes / HeatmapBinMinutes) * HeatmapBinMinutes
}

// rowKey returns the ordinal and label of the group a day belongs to
func rowKey(d DayExtremes, dim Dimension, v Variant) (int, string) {
	switch dim {
	case ByWeekday:
		wd := d.Date.Weekday()
		return buckets.WeekdayOrdinal(wd), wd.String()
	case ByMonth:
		return int(d.Date.Month), d.Date.Month.String()
	default:
		h := d.Event(v).Hour()
		return h, fmt.Sprintf("%02d", h)
	}
}

// Heatmap counts v events per (group, 15-minute bin). Rows are the observed
// groups in ordinal order (Monday first, January first, hour ascending);
// columns are the observed bins ascending; absent cells are 0.
//
// With the hour dimension each variant is grouped by the hour of its own
// event: High rows are the hour of the high and Low rows are the hour of the
// low, so a day whose low precedes its high lands in different rows.
func Heatmap(days []DayExtremes, dim Dimension, v Variant) (Matrix, error) {
	if _, err := ParseDimension(string(dim)); err != nil {
		return Matrix{}, err
	}
	if err := v.Validate(); err != nil {
		return Matrix{}, err
	}

	type cell struct{ row, bin int }
	counts := make(map[cell]int)
	labels := make(map[int]string)
	binSet := make(map[int]struct{})
	for _, d := range days {
		ord, label := rowKey(d, dim, v)
		bin := BinOf(d.Event(v).MinutesSinceMidnight)
		labels[ord] = label
		binSet[bin] = struct{}{}
		counts[cell{ord, bin}]++
	}

	rowOrds := make([]int, 0, len(labels))
	for ord := range labels {
		rowOrds = append(rowOrds, ord)
	}
	sort.Ints(rowOrds)
	bins := make([]int, 0, len(binSet))
	for b := range binSet {
		bins = append(bins, b)
	}
	sort.Ints(bins)

	m := Matrix{
		Dimension: dim,
		Variant:   v,
		Rows:      make([]string, len(rowOrds)),
		Bins:      bins,
		Counts:    make([][]int, len(rowOrds)),
	}
	for r, ord := range rowOrds {
		m.Rows[r] = labels[ord]
		m.Counts[r] = make([]int, len(bins))
		for c, b := range bins {
			m.Counts[r][c] = counts[cell{ord, b}]
		}
	}
	return m, nil
}

// Heatmaps builds the high and low matrices for one dimension
func Heatmaps(days []DayExtremes, dim Dimension) (high, low Matrix, err error) {
	if high, err = Heatmap(days, dim, High); err != nil {
		return Matrix{}, Matrix{}, err
	}
	if low, err = Heatmap(days, dim, Low); err != nil {
		return Matrix{}, Matrix{}, err
	}
	return high, low, nil
}
