package distance

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrLengthMismatch is returned by the checked distance variants when the
	// two vectors do not share the same length.
	ErrLengthMismatch = errors.New("vector length mismatch")

	// ErrUnknownMetric is returned when a metric name or value is not supported.
	ErrUnknownMetric = errors.New("unknown distance metric")
)

// LengthMismatchError reports the lengths of two incompatible vectors.
type LengthMismatchError struct {
	A int
	B int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("vector length mismatch: %d vs %d", e.A, e.B)
}

// Is reports whether target is ErrLengthMismatch.
func (e *LengthMismatchError) Is(target error) bool { return target == ErrLengthMismatch }

// Euclidean calculates the Euclidean (L2) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Manhattan calculates the Manhattan (L1) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Manhattan(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// Metric represents the distance metric used for feature vector comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricManhattan
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricManhattan:
		return "manhattan"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric resolves a metric by its case-insensitive name.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euclidean", "l2":
		return MetricEuclidean, nil
	case "manhattan", "l1":
		return MetricManhattan, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// Set implements pflag.Value so a Metric can be bound directly to a flag.
func (m *Metric) Set(s string) error {
	v, err := ParseMetric(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *Metric) Type() string { return "metric" }

// UnmarshalText implements encoding.TextUnmarshaler for config decoding.
func (m *Metric) UnmarshalText(text []byte) error { return m.Set(string(text)) }

// MarshalText implements encoding.TextMarshaler.
func (m Metric) MarshalText() ([]byte, error) {
	if _, err := Provider(m); err != nil {
		return nil, err
	}
	return []byte(m.String()), nil
}

// Distance computes the metric between a and b, failing with a
// *LengthMismatchError when the lengths differ.
func (m Metric) Distance(a, b []float64) (float64, error) {
	fn, err := Provider(m)
	if err != nil {
		return 0, err
	}
	if len(a) != len(b) {
		return 0, &LengthMismatchError{A: len(a), B: len(b)}
	}
	return fn(a, b), nil
}

// Func is a function type for distance calculation.
type Func func(a, b []float64) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricManhattan:
		return Manhattan, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMetric, m)
	}
}
