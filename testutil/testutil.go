package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/knn/dataset"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// ClusteredDataset generates num records around clusters centroids placed
// on a widely spaced diagonal grid, with Gaussian noise of the given spread.
// Record i belongs to cluster i%clusters and is labelled "c<cluster>".
func (r *RNG) ClusteredDataset(num, dim, clusters int, spread float64) *dataset.Dataset[string] {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]dataset.Record[string], num)
	for i := range num {
		c := i % clusters
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = float64(c*10) + r.rand.NormFloat64()*spread
		}
		rows[i] = dataset.Record[string]{Features: vec, Label: fmt.Sprintf("c%d", c)}
	}
	return dataset.MustNew(rows)
}

// NoisyColumns appends extra uniformly random columns to every record of d,
// producing features that carry no label information.
func (r *RNG) NoisyColumns(d *dataset.Dataset[string], extra int, scale float64) *dataset.Dataset[string] {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := d.Clone()
	for i := range rows {
		for range extra {
			rows[i].Features = append(rows[i].Features, r.rand.Float64()*scale)
		}
	}
	return dataset.MustNew(rows)
}

// StripedDataset returns n one-dimensional records at x = 0..n-1 whose labels
// alternate between "even" and "odd" in runs of the given width.
func StripedDataset(n, width int) *dataset.Dataset[string] {
	rows := make([]dataset.Record[string], n)
	for i := range rows {
		label := "even"
		if (i/width)%2 == 1 {
			label = "odd"
		}
		rows[i] = dataset.Record[string]{Features: []float64{float64(i)}, Label: label}
	}
	return dataset.MustNew(rows)
}
