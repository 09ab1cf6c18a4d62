package knn

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/searcher"
	"github.com/hupe1980/knn/testutil"
)

func tieData() *dataset.Dataset[string] {
	return dataset.MustNew([]dataset.Record[string]{
		{Features: []float64{1, 0}, Label: "X"},
		{Features: []float64{0, 1}, Label: "Y"},
		{Features: []float64{5, 0}, Label: "Y"},
	})
}

// noisyData holds out its last three rows under a 3/11 positional split.
func noisyData() *dataset.Dataset[string] {
	return dataset.MustNew([]dataset.Record[string]{
		{Features: []float64{0}, Label: "A"},
		{Features: []float64{1}, Label: "A"},
		{Features: []float64{2}, Label: "A"},
		{Features: []float64{1.5}, Label: "B"},
		{Features: []float64{10}, Label: "B"},
		{Features: []float64{11}, Label: "B"},
		{Features: []float64{12}, Label: "B"},
		{Features: []float64{10.5}, Label: "A"},
		{Features: []float64{1.6}, Label: "A"},
		{Features: []float64{10.4}, Label: "B"},
		{Features: []float64{5.9}, Label: "B"},
	})
}

func TestNew(t *testing.T) {
	t.Run("NilData", func(t *testing.T) {
		_, err := New[string](nil)
		assert.ErrorIs(t, err, dataset.ErrEmpty)
	})

	t.Run("UnknownMetric", func(t *testing.T) {
		_, err := New(tieData(), WithMetric(distance.Metric(42)))
		assert.ErrorIs(t, err, distance.ErrUnknownMetric)
	})

	t.Run("Defaults", func(t *testing.T) {
		m, err := New(tieData())
		require.NoError(t, err)
		assert.Equal(t, distance.MetricEuclidean, m.Metric())
		assert.Equal(t, 3, m.Data().Len())
	})
}

func TestModel_Predict(t *testing.T) {
	ctx := context.Background()
	m, err := New(tieData())
	require.NoError(t, err)

	t.Run("VoteTable", func(t *testing.T) {
		p, err := m.Predict(ctx, []float64{0, 0}, kspec.MustParse("3"))
		require.NoError(t, err)

		assert.Equal(t, "Y", p.Label)
		assert.Equal(t, 3, p.K)
		require.Len(t, p.Votes, 2)
		assert.Equal(t, "Y", p.Votes[0].Label)
		assert.Equal(t, 2, p.Votes[0].Count)
		assert.InDelta(t, 2.0/3.0, p.Votes[0].Share, 1e-12)
		assert.Equal(t, "X", p.Votes[1].Label)
	})

	t.Run("TieGoesToNearest", func(t *testing.T) {
		got, err := m.Classify(ctx, []float64{0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, "X", got)
	})

	t.Run("RangeRejected", func(t *testing.T) {
		_, err := m.Predict(ctx, []float64{0, 0}, kspec.MustParse("1-3"))
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("KTooLarge", func(t *testing.T) {
		_, err := m.Predict(ctx, []float64{0, 0}, kspec.MustParse("4"))
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("KZero", func(t *testing.T) {
		_, err := m.Classify(ctx, []float64{0, 0}, 0)
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := m.Predict(ctx, []float64{0}, kspec.MustParse("1"))
		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 1, dm.Actual)
	})
}

func TestModel_Search(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	m, err := New(noisyData(), WithMetricsCollector(metrics))
	require.NoError(t, err)

	var seen []int
	res, err := m.Search(kspec.MustParse("1-5,2")).
		TestFraction(3.0 / 11.0).
		OnEvaluate(func(e searcher.Entry, _ time.Duration) { seen = append(seen, e.K) }).
		Execute(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Best.K)
	assert.Equal(t, 1.0, res.Best.Accuracy)
	assert.Equal(t, 8, res.TrainSize)
	assert.Equal(t, 3, res.TestSize)
	assert.Equal(t, []int{1, 3, 5}, seen)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SearchCount)
	assert.Equal(t, int64(0), stats.SearchErrors)
	assert.Equal(t, int64(3), stats.EvaluationCount)
	assert.Equal(t, int64(9), stats.RowsScored)
	assert.Equal(t, int64(5), stats.RowsCorrect)
}

func TestModel_SearchErrors(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	m, err := New(noisyData(), WithMetricsCollector(metrics))
	require.NoError(t, err)

	tests := []struct {
		name     string
		builder  *SearchBuilder[string]
		expected error
	}{
		{"EmptySearchSpace", m.Search(kspec.Spec{}), ErrEmptySearchSpace},
		{"FractionZero", m.Search(kspec.MustParse("1")).TestFraction(0), ErrSplitWouldBeEmpty},
		{"FractionOne", m.Search(kspec.MustParse("1")).TestFraction(1), ErrSplitWouldBeEmpty},
		{"KExceedsTrain", m.Search(kspec.MustParse("1-9")).TestFraction(3.0 / 11.0), ErrInvalidK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Execute(ctx)
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(len(tests)), stats.SearchErrors)
	assert.Equal(t, int64(0), stats.EvaluationCount)
}

func TestModel_SearchHugeStep(t *testing.T) {
	m, err := New(noisyData())
	require.NoError(t, err)

	res, err := m.Search(kspec.MustParse("1-5,9223372036854775807")).
		TestFraction(3.0 / 11.0).
		Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, 1, res.Entries[0].K)
	assert.Equal(t, 1, res.Best.K)
}

func TestModel_SearchIsDeterministic(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(3)
	data := rng.ClusteredDataset(120, 2, 3, 5)

	for _, policy := range []dataset.Policy{dataset.Positional, dataset.Shuffled, dataset.Stratified} {
		t.Run(policy.String(), func(t *testing.T) {
			seq, err := New(data, WithSplitPolicy(policy), WithSeed(11))
			require.NoError(t, err)
			par, err := New(data, WithSplitPolicy(policy), WithSeed(11), WithWorkers(6))
			require.NoError(t, err)

			spec := kspec.MustParse("1-25,3")
			a := seq.Search(spec).MustExecute(ctx)
			b := par.Search(spec).MustExecute(ctx)
			assert.Equal(t, a, b)
		})
	}
}

func TestModel_SelectFeatures(t *testing.T) {
	rng := testutil.NewRNG(5)
	data := rng.NoisyColumns(rng.ClusteredDataset(40, 1, 2, 0.5), 1, 100)
	m, err := New(data)
	require.NoError(t, err)

	steps, err := m.Search(kspec.MustParse("3")).SelectFeatures(context.Background())
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, []int{0}, steps[0].Columns)
	assert.Len(t, steps[1].Columns, 2)

	_, err = m.Search(kspec.Spec{}).SelectFeatures(context.Background())
	assert.ErrorIs(t, err, ErrEmptySearchSpace)
}

func TestModel_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := New(tieData(), WithLogger(logger), WithMetric(distance.MetricManhattan))
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), []float64{0, 0}, kspec.MustParse("1"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"predict completed"`)
	assert.Contains(t, out, `"metric":"manhattan"`)
	assert.Contains(t, out, `"dimension":2`)
	assert.Contains(t, out, `"label":"X"`)
}
