package filters

import (
	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
)

// Combine reduces masks with op. Nil and empty masks are skipped; when none
// remain AND yields all true and OR yields all false, both of length n.
func Combine(masks []Mask, op Operator, n int) (Mask, error) {
	if op != AND && op != OR {
		return nil, apperrors.NewFieldError("operator", "must be AND or OR", string(op))
	}
	if n < 0 {
		return nil, apperrors.NewFieldError("n", "must not be negative", n)
	}

	var result Mask
	for i, m := range masks {
		if len(m) == 0 {
			continue
		}
		if len(m) != n {
			return nil, apperrors.NewFieldError("masks",
				"every mask must match the studied length", len(m)).WithContext("index", i)
		}
		if result == nil {
			result = append(Mask(nil), m...)
			continue
		}
		for j := range result {
			if op == AND {
				result[j] = result[j] && m[j]
			} else {
				result[j] = result[j] || m[j]
			}
		}
	}

	if result == nil {
		return Fill(n, op == AND), nil
	}
	return result, nil
}

// ProjectToMinuteRows keeps the minute bars whose calendar date is a true day
// of mask. mask is indexed against studied.
func ProjectToMinuteRows(studied []bars.DailyBar, mask Mask, minuteBars []bars.Bar) ([]bars.Bar, error) {
	if len(mask) != len(studied) {
		return nil, apperrors.NewFieldError("mask", "length must match the studied days", len(mask)).
			WithContext("studied_days", len(studied))
	}

	keep := make(map[bars.Date]bool, len(studied))
	for i, d := range studied {
		if mask[i] {
			keep[d.Date] = true
		}
	}

	out := make([]bars.Bar, 0, len(minuteBars))
	for _, b := range minuteBars {
		if keep[b.Date()] {
			out = append(out, b)
		}
	}
	return out, nil
}
