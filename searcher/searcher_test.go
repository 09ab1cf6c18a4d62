package searcher

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knn/classifier"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/testutil"
)

// noisySplit has label noise next to each cluster so that k=1 is fooled,
// k=3 is perfect and k=5 pulls in too much of the other class.
func noisySplit(t *testing.T) *dataset.Split[string] {
	t.Helper()
	rows := []dataset.Record[string]{
		// train
		{Features: []float64{0}, Label: "A"},
		{Features: []float64{1}, Label: "A"},
		{Features: []float64{2}, Label: "A"},
		{Features: []float64{1.5}, Label: "B"},
		{Features: []float64{10}, Label: "B"},
		{Features: []float64{11}, Label: "B"},
		{Features: []float64{12}, Label: "B"},
		{Features: []float64{10.5}, Label: "A"},
		// test
		{Features: []float64{1.6}, Label: "A"},
		{Features: []float64{10.4}, Label: "B"},
		{Features: []float64{5.9}, Label: "B"},
	}
	split, err := dataset.MustNew(rows).Split(3.0 / 11.0)
	require.NoError(t, err)
	require.Equal(t, 8, split.Train.Len())
	require.Equal(t, 3, split.Test.Len())
	return split
}

func TestSearch_KnownBest(t *testing.T) {
	split := noisySplit(t)

	var evaluated []int
	res, err := Search(context.Background(), split, distance.Euclidean, kspec.MustParse("1-5,2"), func(o *Options) {
		o.OnEvaluate = func(e Entry, _ time.Duration) { evaluated = append(evaluated, e.K) }
	})
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, Entry{K: 1, Correct: 0, Total: 3, Accuracy: 0}, res.Entries[0])
	assert.Equal(t, Entry{K: 3, Correct: 3, Total: 3, Accuracy: 1}, res.Entries[1])
	assert.Equal(t, 5, res.Entries[2].K)
	assert.Equal(t, 2, res.Entries[2].Correct)
	assert.InDelta(t, 2.0/3.0, res.Entries[2].Accuracy, 1e-12)

	assert.Equal(t, 3, res.Best.K)
	assert.Equal(t, 8, res.TrainSize)
	assert.Equal(t, 3, res.TestSize)
	assert.Equal(t, []int{1, 3, 5}, evaluated)
}

func TestSearch_MatchesClassify(t *testing.T) {
	rng := testutil.NewRNG(7)
	d := rng.NoisyColumns(rng.ClusteredDataset(90, 2, 3, 4), 1, 20)
	split, err := d.Split(0.3, func(o *dataset.SplitOptions) { o.Policy = dataset.Shuffled })
	require.NoError(t, err)

	spec := kspec.MustParse("1-15")
	res, err := Search(context.Background(), split, distance.Manhattan, spec)
	require.NoError(t, err)

	// Reusing one ranking per row must agree with classifying from scratch.
	for _, e := range res.Entries {
		correct := 0
		for _, r := range split.Test.All() {
			got, err := classifier.Classify(split.Train, r.Features, distance.Manhattan, e.K)
			require.NoError(t, err)
			if got == r.Label {
				correct++
			}
		}
		assert.Equal(t, correct, e.Correct, "k=%d", e.K)
	}
}

func TestSearch_TieSelectsSmallestK(t *testing.T) {
	split := noisySplit(t)

	// k=4 through k=7 all score 2 of 3; the smallest wins.
	res, err := Search(context.Background(), split, distance.Euclidean, kspec.MustParse("4-7"))
	require.NoError(t, err)

	require.Len(t, res.Entries, 4)
	for _, e := range res.Entries {
		assert.Equal(t, 2, e.Correct, "k=%d", e.K)
	}
	assert.Equal(t, 4, res.Best.K)
}

func TestSearch_ParallelIsDeterministic(t *testing.T) {
	rng := testutil.NewRNG(42)
	d := rng.ClusteredDataset(200, 3, 4, 6)
	split, err := d.Split(0.25)
	require.NoError(t, err)

	spec := kspec.MustParse("1-21,4")
	seq, err := Search(context.Background(), split, distance.Euclidean, spec)
	require.NoError(t, err)

	par, err := Search(context.Background(), split, distance.Euclidean, spec, func(o *Options) {
		o.Workers = 8
		o.Logger = slog.New(slog.DiscardHandler)
	})
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestSearch_Errors(t *testing.T) {
	split := noisySplit(t)
	ctx := context.Background()

	_, err := Search(ctx, split, distance.Euclidean, kspec.Spec{})
	assert.ErrorIs(t, err, ErrEmptySearchSpace)

	_, err = Search(ctx, split, distance.Euclidean, kspec.MustParse("1-9"))
	assert.ErrorIs(t, err, classifier.ErrInvalidK)
	assert.ErrorIs(t, err, kspec.ErrInvalidK)

	_, err = Search[string](ctx, nil, distance.Euclidean, kspec.MustParse("1"))
	assert.ErrorIs(t, err, dataset.ErrSplitWouldBeEmpty)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Search(cancelled, split, distance.Euclidean, kspec.MustParse("1-3"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelectFeatures(t *testing.T) {
	rng := testutil.NewRNG(99)
	d := rng.NoisyColumns(rng.ClusteredDataset(60, 1, 2, 0.5), 2, 100)
	split, err := d.Split(0.25)
	require.NoError(t, err)

	steps, err := SelectFeatures(context.Background(), split, distance.Euclidean, kspec.MustParse("3-5,2"))
	require.NoError(t, err)

	require.Len(t, steps, 6)
	for i, k := range []int{3, 5} {
		first := steps[i*3]
		assert.Equal(t, k, first.K)
		assert.Equal(t, []int{0}, first.Columns)
		assert.Equal(t, 1.0, first.Accuracy)

		last := steps[i*3+2]
		assert.ElementsMatch(t, []int{0, 1, 2}, last.Columns)
		assert.Equal(t, 15, last.Total)
	}
}

func TestSelectFeatures_TiePrefersEarliestColumn(t *testing.T) {
	xs := []float64{0, 1, 2, 10, 11, 12, 1.4, 10.6}
	labels := []string{"A", "A", "A", "B", "B", "B", "A", "B"}

	tests := []struct {
		name    string
		row     func(x float64) []float64
		columns [][]int
	}{
		{
			name:    "IdenticalColumns",
			row:     func(x float64) []float64 { return []float64{x, x, x} },
			columns: [][]int{{0}, {0, 1}, {0, 1, 2}},
		},
		{
			name:    "ConstantFirstColumn",
			row:     func(x float64) []float64 { return []float64{5, x, x} },
			columns: [][]int{{1}, {1, 0}, {1, 0, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]dataset.Record[string], len(xs))
			for i, x := range xs {
				rows[i] = dataset.Record[string]{Features: tt.row(x), Label: labels[i]}
			}
			split, err := dataset.MustNew(rows).Split(0.25)
			require.NoError(t, err)
			require.Equal(t, 2, split.Test.Len())

			steps, err := SelectFeatures(context.Background(), split, distance.Euclidean, kspec.MustParse("1"))
			require.NoError(t, err)
			require.Len(t, steps, len(tt.columns))
			for i, want := range tt.columns {
				assert.Equal(t, want, steps[i].Columns)
				assert.Equal(t, 1.0, steps[i].Accuracy)
			}
		})
	}
}

func TestSelectFeatures_Errors(t *testing.T) {
	split := noisySplit(t)

	_, err := SelectFeatures(context.Background(), split, distance.Euclidean, kspec.Spec{})
	assert.ErrorIs(t, err, ErrEmptySearchSpace)
}
