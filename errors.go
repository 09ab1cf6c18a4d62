package knn

import (
	"errors"
	"fmt"

	"github.com/hupe1980/knn/classifier"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/searcher"
)

var (
	// ErrInvalidK is returned when k is below 1, exceeds the training set
	// size, or a range is given where a single k is required.
	ErrInvalidK = classifier.ErrInvalidK

	// ErrEmptySearchSpace is returned when a sweep has no candidate k.
	ErrEmptySearchSpace = searcher.ErrEmptySearchSpace

	// ErrSplitWouldBeEmpty is returned when a split fraction leaves the train
	// or the test side without records.
	ErrSplitWouldBeEmpty = dataset.ErrSplitWouldBeEmpty

	// ErrSchemaMismatch is returned when records disagree on feature length.
	ErrSchemaMismatch = dataset.ErrSchemaMismatch

	// ErrInvalidSpec is returned for malformed k specifications.
	ErrInvalidSpec = kspec.ErrInvalidSpec
)

// ErrDimensionMismatch indicates a query/training dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *classifier.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var lm *distance.LengthMismatchError
	if errors.As(err, &lm) {
		return &ErrDimensionMismatch{Expected: lm.A, Actual: lm.B, cause: err}
	}
	if errors.Is(err, kspec.ErrInvalidK) && !errors.Is(err, ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
