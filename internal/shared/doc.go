// Package shared holds code used across the almanac packages that belongs to
// no single stage of the analysis.
//
// The testutil subpackage provides:
//
//   - bar fixtures: hand-built minute and daily series plus a seeded random
//     walk for end to end runs
//   - BufferedSlogHandler: a slog.Handler that captures records so tests can
//     assert on structured log output
//
// Example usage:
//
//	func TestPipeline(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    series := testutil.RandomWalk(7, testutil.Day(2024, time.January, 1), 15, 60)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "analysis complete")
//	}
//
// Nothing in this package is imported by production code outside tests.
package shared
