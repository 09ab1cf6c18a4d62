// Package classifier implements k-nearest-neighbor majority-vote
// classification over a dataset.Dataset.
//
// Neighbor selection is stable: records at exactly equal distance are ranked
// by their position in the training set, earliest first. Vote ties are broken
// in favor of the label whose nearest supporting neighbor ranks first. Both
// rules make every function in this package a deterministic, side-effect-free
// function of its inputs.
package classifier

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/internal/queue"
)

// ErrInvalidK is returned when k is below 1 or exceeds the training set size.
var ErrInvalidK = errors.New("invalid k")

// ErrDimensionMismatch is returned when a query's length differs from the
// training set's feature length.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Neighbor is a training record selected for a query.
type Neighbor struct {
	Index    int     // position in the training set
	Distance float64 // distance to the query
}

// Tally is the vote count of one label among the selected neighbors.
type Tally[L comparable] struct {
	Label   L
	Count   int
	Share   float64 // Count / number of neighbors
	Nearest int     // rank of the closest neighbor carrying Label
}

// Prediction is the full outcome of classifying one query.
type Prediction[L comparable] struct {
	Label     L
	K         int
	Votes     []Tally[L] // winner first, then by count desc and nearest rank asc
	Neighbors []Neighbor // nearest first
}

// Validate checks the classification preconditions for train, a query of
// length dim, and k.
func Validate[L comparable](train *dataset.Dataset[L], dim, k int) error {
	if train == nil {
		return dataset.ErrEmpty
	}
	if dim != train.Dim() {
		return &ErrDimensionMismatch{Expected: train.Dim(), Actual: dim}
	}
	if k < 1 || k > train.Len() {
		return fmt.Errorf("%w: k=%d must be in [1,%d]", ErrInvalidK, k, train.Len())
	}
	return nil
}

// Rank returns the k training records nearest to query, ordered by
// increasing distance and, on equal distance, by training-set position.
func Rank[L comparable](train *dataset.Dataset[L], query []float64, fn distance.Func, k int) ([]Neighbor, error) {
	if err := Validate(train, len(query), k); err != nil {
		return nil, err
	}
	return rank(train, query, fn, k), nil
}

func rank[L comparable](train *dataset.Dataset[L], query []float64, fn distance.Func, k int) []Neighbor {
	pq := queue.NewBounded(k)
	for i, r := range train.All() {
		pq.Offer(queue.Item{Index: i, Distance: fn(query, r.Features)}, k)
	}

	items := pq.Drain()
	out := make([]Neighbor, len(items))
	for i, it := range items {
		out[i] = Neighbor(it)
	}
	return out
}

// Vote tallies the labels of neighbors, which must be ordered nearest first,
// and returns the tallies with the winner first.
func Vote[L comparable](train *dataset.Dataset[L], neighbors []Neighbor) []Tally[L] {
	if len(neighbors) == 0 {
		return nil
	}

	slot := make(map[L]int, len(neighbors))
	tallies := make([]Tally[L], 0, len(neighbors))
	for r, n := range neighbors {
		label := train.Label(n.Index)
		i, ok := slot[label]
		if !ok {
			i = len(tallies)
			slot[label] = i
			tallies = append(tallies, Tally[L]{Label: label, Nearest: r})
		}
		tallies[i].Count++
	}

	total := float64(len(neighbors))
	for i := range tallies {
		tallies[i].Share = float64(tallies[i].Count) / total
	}

	// Tallies were created in nearest-rank order, so a stable sort on count
	// keeps the nearest-supported label first among equal counts.
	slices.SortStableFunc(tallies, func(a, b Tally[L]) int {
		return b.Count - a.Count
	})
	return tallies
}

// Classify returns the majority label among the k nearest training records.
func Classify[L comparable](train *dataset.Dataset[L], query []float64, fn distance.Func, k int) (L, error) {
	p, err := Predict(train, query, fn, k)
	if err != nil {
		var zero L
		return zero, err
	}
	return p.Label, nil
}

// Predict classifies query and returns the vote table and neighbors used.
func Predict[L comparable](train *dataset.Dataset[L], query []float64, fn distance.Func, k int) (*Prediction[L], error) {
	neighbors, err := Rank(train, query, fn, k)
	if err != nil {
		return nil, err
	}
	votes := Vote(train, neighbors)
	return &Prediction[L]{
		Label:     votes[0].Label,
		K:         k,
		Votes:     votes,
		Neighbors: neighbors,
	}, nil
}

// Winner returns the winning label among the first k of neighbors, which
// must be ordered nearest first. It is the allocation-light path used when
// one ranking is reused for several k.
func Winner[L comparable](train *dataset.Dataset[L], neighbors []Neighbor, k int) L {
	counts := make(map[L]int, k)
	var (
		best      L
		bestCount int
	)
	for _, n := range neighbors[:k] {
		counts[train.Label(n.Index)]++
	}
	// Labels are visited in nearest-rank order and only a strictly greater
	// final count takes the lead.
	seen := make(map[L]struct{}, len(counts))
	for _, n := range neighbors[:k] {
		label := train.Label(n.Index)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		if c := counts[label]; c > bestCount {
			best, bestCount = label, c
		}
	}
	return best
}
