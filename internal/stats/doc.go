// Package stats holds the numeric kernels shared by the bucket, extreme-of-day
// and filter packages.
//
// Percentiles use linear interpolation at index p*(n-1) over the sorted
// sample. Two trimmed means are provided and they are not interchangeable:
//
//   - PercentileMidpoint averages the trim and 100-trim percentile values.
//     Bucket statistics report it as their trimmed mean.
//   - BandMean averages every sample lying between the two percentile values,
//     bounds included. Multi-year statistics report it.
//
// Functions never modify their input slices. Degenerate samples return NaN
// rather than an error: callers decide whether NaN is meaningful.
package stats
