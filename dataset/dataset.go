// Package dataset holds the immutable in-memory table of labelled feature
// vectors that every classification runs against.
//
// A Dataset is built once from parsed rows, owns copies of their feature
// vectors and is read-only afterwards, so it is safe for concurrent readers.
// Row order is preserved exactly: it drives neighbor tie-breaking and the
// positional train/test partition.
package dataset

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrSchemaMismatch is returned when rows disagree on feature-vector length.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrEmpty is returned when a dataset would contain no records.
	ErrEmpty = errors.New("dataset is empty")

	// ErrNonFinite is returned when a feature value is NaN or infinite.
	ErrNonFinite = errors.New("non-finite feature value")
)

// SchemaMismatchError identifies the first row whose feature length differs
// from the length established by row 0.
type SchemaMismatchError struct {
	Row      int
	Expected int
	Actual   int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: row %d has %d features, expected %d", e.Row, e.Actual, e.Expected)
}

// Is reports whether target is ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// Record pairs a feature vector with its label. Labels are only ever
// compared for equality.
type Record[L comparable] struct {
	Features []float64
	Label    L
}

// Dataset is an ordered, immutable sequence of records sharing one
// feature-vector length.
type Dataset[L comparable] struct {
	records []Record[L]
	dim     int
}

// New builds a Dataset from rows, copying every feature vector.
func New[L comparable](rows []Record[L]) (*Dataset[L], error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}

	dim := len(rows[0].Features)
	backing := make([]float64, 0, dim*len(rows))
	records := make([]Record[L], len(rows))

	for i, r := range rows {
		if len(r.Features) != dim {
			return nil, &SchemaMismatchError{Row: i, Expected: dim, Actual: len(r.Features)}
		}
		for j, v := range r.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %d", ErrNonFinite, i, j)
			}
		}
		start := len(backing)
		backing = append(backing, r.Features...)
		records[i] = Record[L]{
			Features: backing[start:len(backing):len(backing)],
			Label:    r.Label,
		}
	}

	return &Dataset[L]{records: records, dim: dim}, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew[L comparable](rows []Record[L]) *Dataset[L] {
	d, err := New(rows)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of records.
func (d *Dataset[L]) Len() int { return len(d.records) }

// Dim returns the feature-vector length shared by every record.
func (d *Dataset[L]) Dim() int { return d.dim }

// At returns the i-th record. The returned feature slice must not be modified.
func (d *Dataset[L]) At(i int) Record[L] { return d.records[i] }

// Features returns the feature vector of the i-th record.
// The returned slice must not be modified.
func (d *Dataset[L]) Features(i int) []float64 { return d.records[i].Features }

// Label returns the label of the i-th record.
func (d *Dataset[L]) Label(i int) L { return d.records[i].Label }

// All iterates the records in order.
func (d *Dataset[L]) All() iter.Seq2[int, Record[L]] {
	return func(yield func(int, Record[L]) bool) {
		for i, r := range d.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Labels returns the distinct labels in order of first appearance.
func (d *Dataset[L]) Labels() []L {
	seen := make(map[L]struct{})
	var out []L
	for _, r := range d.records {
		if _, ok := seen[r.Label]; ok {
			continue
		}
		seen[r.Label] = struct{}{}
		out = append(out, r.Label)
	}
	return out
}

// Subset returns a new dataset containing the records whose indexes are in
// idx, in ascending index order. Feature storage is shared with d.
func (d *Dataset[L]) Subset(idx *roaring.Bitmap) (*Dataset[L], error) {
	if idx == nil || idx.IsEmpty() {
		return nil, ErrEmpty
	}
	if last := idx.Maximum(); int(last) >= len(d.records) {
		return nil, fmt.Errorf("subset index %d out of range [0,%d)", last, len(d.records))
	}

	records := make([]Record[L], 0, idx.GetCardinality())
	it := idx.Iterator()
	for it.HasNext() {
		records = append(records, d.records[it.Next()])
	}
	return &Dataset[L]{records: records, dim: d.dim}, nil
}

// Project returns a new dataset restricted to the given feature columns,
// in the given column order.
func (d *Dataset[L]) Project(columns []int) (*Dataset[L], error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no columns selected", ErrSchemaMismatch)
	}
	for _, c := range columns {
		if c < 0 || c >= d.dim {
			return nil, fmt.Errorf("%w: column %d out of range [0,%d)", ErrSchemaMismatch, c, d.dim)
		}
	}

	dim := len(columns)
	backing := make([]float64, dim*len(d.records))
	records := make([]Record[L], len(d.records))
	for i, r := range d.records {
		row := backing[i*dim : (i+1)*dim : (i+1)*dim]
		for j, c := range columns {
			row[j] = r.Features[c]
		}
		records[i] = Record[L]{Features: row, Label: r.Label}
	}
	return &Dataset[L]{records: records, dim: dim}, nil
}

// Clone returns a deep copy of the records, suitable for building a new
// dataset from modified rows.
func (d *Dataset[L]) Clone() []Record[L] {
	out := make([]Record[L], len(d.records))
	for i, r := range d.records {
		out[i] = Record[L]{Features: slices.Clone(r.Features), Label: r.Label}
	}
	return out
}
