// Package kspec parses and validates candidate neighbor counts.
//
// A Spec is written in one of three forms:
//
//	N       a single value
//	A-B     every integer from A to B inclusive
//	A-B,S   A, A+S, A+2S, ... up to and including B when reachable
//
// All values are positive and the resulting sequence is strictly increasing.
package kspec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidSpec is returned when a K specification cannot be parsed.
	ErrInvalidSpec = errors.New("invalid k specification")

	// ErrInvalidK is returned when a candidate k is outside [1, limit].
	ErrInvalidK = errors.New("invalid k")
)

// Spec is a non-empty, strictly increasing sequence of positive k values.
type Spec struct {
	low, high, step int
}

// Single returns a Spec containing only k.
func Single(k int) (Spec, error) {
	return Range(k, k, 1)
}

// Range returns the Spec low, low+step, ... <= high.
func Range(low, high, step int) (Spec, error) {
	switch {
	case low < 1:
		return Spec{}, fmt.Errorf("%w: low value must be at least 1, got %d", ErrInvalidSpec, low)
	case high < low:
		return Spec{}, fmt.Errorf("%w: low value %d is greater than high value %d", ErrInvalidSpec, low, high)
	case step < 1:
		return Spec{}, fmt.Errorf("%w: step must be at least 1, got %d", ErrInvalidSpec, step)
	}
	// Normalize high to the last reachable value so Max is exact.
	high = low + (high-low)/step*step
	return Spec{low: low, high: high, step: step}, nil
}

// Parse reads a Spec from its literal form.
func Parse(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Spec{}, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}

	rng, stepStr, hasStep := strings.Cut(s, ",")
	step := 1
	if hasStep {
		v, err := parsePositive(stepStr, "step")
		if err != nil {
			return Spec{}, err
		}
		step = v
	}

	lowStr, highStr, isRange := strings.Cut(rng, "-")
	if !isRange {
		if hasStep {
			return Spec{}, fmt.Errorf("%w: a step requires a range (A-B,S), got %q", ErrInvalidSpec, s)
		}
		k, err := parsePositive(lowStr, "k")
		if err != nil {
			return Spec{}, err
		}
		return Single(k)
	}

	low, err := parsePositive(lowStr, "low value")
	if err != nil {
		return Spec{}, err
	}
	high, err := parsePositive(highStr, "high value")
	if err != nil {
		return Spec{}, err
	}
	return Range(low, high, step)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

func parsePositive(s, what string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: failed to parse %s %q", ErrInvalidSpec, what, s)
	}
	if v < 1 {
		return 0, fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidSpec, what, v)
	}
	return v, nil
}

// Values returns the candidate k values in ascending order.
func (s Spec) Values() []int {
	if s.IsZero() {
		return nil
	}
	// Step by count: low+step may exceed MaxInt even when high does not.
	n := s.Len()
	out := make([]int, n)
	for i := range n {
		out[i] = s.low + i*s.step
	}
	return out
}

// Len returns the number of candidates.
func (s Spec) Len() int {
	if s.IsZero() {
		return 0
	}
	return (s.high-s.low)/s.step + 1
}

// Min returns the smallest candidate.
func (s Spec) Min() int { return s.low }

// Max returns the largest candidate.
func (s Spec) Max() int { return s.high }

// IsSingle reports whether the spec holds exactly one value.
func (s Spec) IsSingle() bool { return !s.IsZero() && s.low == s.high }

// IsZero reports whether the spec is the zero value, which holds no candidates.
func (s Spec) IsZero() bool { return s.step == 0 }

// Validate checks that every candidate lies within [1, limit].
func (s Spec) Validate(limit int) error {
	if s.IsZero() {
		return fmt.Errorf("%w: no candidates", ErrInvalidK)
	}
	if s.high > limit {
		return fmt.Errorf("%w: k=%d exceeds the %d available neighbors", ErrInvalidK, s.high, limit)
	}
	return nil
}

// String returns the literal form of the spec.
func (s Spec) String() string {
	switch {
	case s.IsZero():
		return ""
	case s.IsSingle():
		return strconv.Itoa(s.low)
	case s.step == 1:
		return fmt.Sprintf("%d-%d", s.low, s.high)
	default:
		return fmt.Sprintf("%d-%d,%d", s.low, s.high, s.step)
	}
}

// Set implements pflag.Value.
func (s *Spec) Set(v string) error {
	parsed, err := Parse(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Spec) Type() string { return "kspec" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spec) UnmarshalText(text []byte) error { return s.Set(string(text)) }

// MarshalText implements encoding.TextMarshaler.
func (s Spec) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
