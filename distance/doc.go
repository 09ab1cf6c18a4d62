// Package distance provides distance calculations between float64 feature
// vectors.
//
// # Supported Metrics
//
//   - MetricEuclidean: square root of the sum of squared differences (default)
//   - MetricManhattan: sum of absolute differences
//
// # Usage
//
//	d := distance.Euclidean(a, b)
//
//	fn, err := distance.Provider(distance.MetricManhattan)
//	d = fn(a, b)
//
//	// Checked variant for vectors of unknown provenance.
//	d, err = distance.MetricEuclidean.Distance(a, b)
package distance
