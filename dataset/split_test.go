package dataset

import (
	"fmt"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int, labels ...string) *Dataset[string] {
	rows := make([]Record[string], n)
	for i := range rows {
		rows[i] = Record[string]{
			Features: []float64{float64(i)},
			Label:    labels[i%len(labels)],
		}
	}
	return MustNew(rows)
}

func TestTestCount(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		want     int
	}{
		{10, 0.25, 3}, // 2.5 rounds away from zero
		{8, 0.375, 3},
		{4, 0.01, 1}, // clamped up
		{4, 0.99, 3}, // clamped down
		{2, 0.5, 1},
		{100, 0.2, 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%v", tt.n, tt.fraction), func(t *testing.T) {
			got, err := TestCount(tt.n, tt.fraction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, f := range []float64{0, 1, -0.5, 1.5} {
		_, err := TestCount(10, f)
		assert.ErrorIs(t, err, ErrSplitWouldBeEmpty, "fraction %v", f)
	}

	_, err := TestCount(1, 0.5)
	assert.ErrorIs(t, err, ErrSplitWouldBeEmpty)
}

func TestSplit_Positional(t *testing.T) {
	d := numbered(8, "A", "B")

	s, err := d.Split(0.375)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Train.Len())
	assert.Equal(t, 3, s.Test.Len())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, s.TrainIndex.ToArray())
	assert.Equal(t, []uint32{5, 6, 7}, s.TestIndex.ToArray())
	assert.Equal(t, 5.0, s.Test.Features(0)[0])
	assert.Equal(t, d.Dim(), s.Train.Dim())
	assert.Equal(t, d.Dim(), s.Test.Dim())
}

func TestSplit_Properties(t *testing.T) {
	policies := []Policy{Positional, Shuffled, Stratified}
	fractions := []float64{0.1, 0.25, 0.5, 0.75, 0.9}

	d := numbered(37, "A", "B", "C")

	for _, p := range policies {
		for _, f := range fractions {
			t.Run(fmt.Sprintf("%s/%v", p, f), func(t *testing.T) {
				withPolicy := func(o *SplitOptions) { o.Policy = p }

				s1, err := d.Split(f, withPolicy)
				require.NoError(t, err)
				s2, err := d.Split(f, withPolicy)
				require.NoError(t, err)

				assert.Equal(t, d.Len(), s1.Train.Len()+s1.Test.Len())
				assert.Positive(t, s1.Train.Len())
				assert.Positive(t, s1.Test.Len())

				assert.True(t, roaring.And(s1.TrainIndex, s1.TestIndex).IsEmpty())
				assert.Equal(t, uint64(d.Len()), roaring.Or(s1.TrainIndex, s1.TestIndex).GetCardinality())

				assert.True(t, s1.TrainIndex.Equals(s2.TrainIndex))
				assert.True(t, s1.TestIndex.Equals(s2.TestIndex))
			})
		}
	}
}

func TestSplit_ShuffledSeed(t *testing.T) {
	d := numbered(50, "A")

	a, err := d.Split(0.3, func(o *SplitOptions) { o.Policy = Shuffled; o.Seed = 1 })
	require.NoError(t, err)
	b, err := d.Split(0.3, func(o *SplitOptions) { o.Policy = Shuffled; o.Seed = 2 })
	require.NoError(t, err)

	assert.Equal(t, 15, a.Test.Len())
	assert.False(t, a.TestIndex.Equals(b.TestIndex))

	// Subsets keep source order regardless of permutation.
	for i := 1; i < a.Train.Len(); i++ {
		assert.Less(t, a.Train.Features(i-1)[0], a.Train.Features(i)[0])
	}
}

func TestSplit_Stratified(t *testing.T) {
	rows := []Record[string]{
		{Features: []float64{0}, Label: "A"},
		{Features: []float64{1}, Label: "B"},
		{Features: []float64{2}, Label: "A"},
		{Features: []float64{3}, Label: "B"},
		{Features: []float64{4}, Label: "A"},
		{Features: []float64{5}, Label: "B"},
		{Features: []float64{6}, Label: "A"},
		{Features: []float64{7}, Label: "B"},
	}
	d := MustNew(rows)

	s, err := d.Split(0.25, func(o *SplitOptions) { o.Policy = Stratified })
	require.NoError(t, err)

	// round(0.25*4) = 1 per label: the last member of each group.
	assert.Equal(t, []uint32{6, 7}, s.TestIndex.ToArray())

	// Too small a fraction empties the test side of every group.
	_, err = d.Split(0.1, func(o *SplitOptions) { o.Policy = Stratified })
	assert.ErrorIs(t, err, ErrSplitWouldBeEmpty)
}

func TestSplit_Invalid(t *testing.T) {
	d := numbered(4, "A")

	_, err := d.Split(0)
	assert.ErrorIs(t, err, ErrSplitWouldBeEmpty)
	_, err = d.Split(1)
	assert.ErrorIs(t, err, ErrSplitWouldBeEmpty)

	single := numbered(1, "A")
	_, err = single.Split(0.5)
	assert.ErrorIs(t, err, ErrSplitWouldBeEmpty)

	_, err = d.Split(0.5, func(o *SplitOptions) { o.Policy = Policy(9) })
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]Policy{
		"":           Positional,
		"positional": Positional,
		"Shuffle":    Shuffled,
		"stratified": Stratified,
	} {
		got, err := ParsePolicy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParsePolicy("random")
	assert.Error(t, err)

	var p Policy
	require.NoError(t, p.UnmarshalText([]byte("stratified")))
	assert.Equal(t, "stratified", p.String())
}
