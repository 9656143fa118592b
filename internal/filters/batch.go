package filters

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

// SampleStats describes how much of the sample a filter kept
type SampleStats struct {
	TotalDays    int     `json:"total_days"`
	FilteredDays int     `json:"filtered_days"`
	Percentage   float64 `json:"percentage"`
	IsSufficient bool    `json:"is_sufficient"`
}

// NewSampleStats summarises a filtered count against the total
func NewSampleStats(total, filtered int) SampleStats {
	s := SampleStats{
		TotalDays:    total,
		FilteredDays: filtered,
		IsSufficient: filtered >= MinSufficientDays,
	}
	if total > 0 {
		s.Percentage = float64(filtered) / float64(total) * 100
	}
	return s
}

// Outcome is the result of one predicate in a batch: either Mask and Stats,
// or Err.
type Outcome struct {
	Index       int         `json:"index"`
	Predicate   Predicate   `json:"predicate"`
	Description string      `json:"description"`
	Mask        Mask        `json:"-"`
	Stats       SampleStats `json:"stats"`
	Err         error       `json:"-"`
}

// MarshalJSON adds the error detail of a failed predicate
func (o Outcome) MarshalJSON() ([]byte, error) {
	type plain Outcome
	return json.Marshal(struct {
		plain
		Error *apperrors.ErrorDetail `json:"error,omitempty"`
	}{plain(o), apperrors.Detail(o.Err)})
}

// OK reports whether the predicate evaluated
func (o Outcome) OK() bool {
	return o.Err == nil
}

// EvaluateBatch evaluates each predicate independently. A failing predicate,
// including one that panics, records its error on its own Outcome and never
// affects its siblings.
func (e *Engine) EvaluateBatch(studied, intermarket []bars.DailyBar, predicates []Predicate) []Outcome {
	out := make([]Outcome, len(predicates))
	for i, p := range predicates {
		out[i] = e.evaluateOne(i, studied, intermarket, p)
	}

	failed := 0
	for _, o := range out {
		if !o.OK() {
			failed++
		}
	}
	if failed > 0 {
		e.logger.Warn("filter batch had failures",
			slog.Int("predicates", len(predicates)),
			slog.Int("failed", failed))
	}
	return out
}

func (e *Engine) evaluateOne(i int, studied, intermarket []bars.DailyBar, p Predicate) (o Outcome) {
	o = Outcome{Index: i, Predicate: p, Description: Describe(p)}
	defer func() {
		if r := recover(); r != nil {
			o.Mask = nil
			o.Stats = NewSampleStats(len(studied), 0)
			o.Err = apperrors.NewNumericError(fmt.Sprintf("predicate %d panicked", i), fmt.Errorf("%v", r))
		}
	}()

	mask, err := e.Evaluate(studied, intermarket, p)
	if err != nil {
		o.Stats = NewSampleStats(len(studied), 0)
		o.Err = fmt.Errorf("predicate %d: %w", i, err)
		return o
	}
	o.Mask = mask
	o.Stats = NewSampleStats(len(studied), mask.Count())
	return o
}

// Masks returns the masks of the successful outcomes, in order
func Masks(outcomes []Outcome) []Mask {
	out := make([]Mask, 0, len(outcomes))
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, o.Mask)
		}
	}
	return out
}
