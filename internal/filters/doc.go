// Package filters evaluates day-level conditions over daily bars and projects
// the resulting masks onto minute bars.
//
// Every Mask is indexed 1:1 against the studied product's daily sequence,
// whichever asset a predicate was evaluated on: results from an intermarket
// series are joined back on calendar date and studied days the other series
// lacks resolve to false.
//
// Structurally invalid configuration (unknown enum values, missing fields,
// non-finite thresholds) is rejected before evaluation with a validation
// error naming the field. Numerically degenerate data (a zero open, a zero
// prior close) produces a numeric error for the affected predicate only.
package filters
