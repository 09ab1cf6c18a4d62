package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrSplitWouldBeEmpty is returned when a partition would leave the train or
// test subset without records.
var ErrSplitWouldBeEmpty = errors.New("split would be empty")

// DefaultSeed seeds the Shuffled policy when no seed is configured.
const DefaultSeed uint64 = 0x6b6e6e

// Policy selects how records are assigned to the train and test subsets.
// Every policy is deterministic for a given dataset, fraction and seed.
type Policy int

const (
	// Positional puts the first n-t records in train and the last t in test.
	Positional Policy = iota

	// Shuffled permutes record indexes with a PCG generator seeded by the
	// configured seed, then takes the last t permuted indexes as test.
	Shuffled

	// Stratified splits each label group separately: groups are visited in
	// order of first appearance and the last round(f*n_g) records of each
	// group go to test.
	Stratified
)

func (p Policy) String() string {
	switch p {
	case Positional:
		return "positional"
	case Shuffled:
		return "shuffle"
	case Stratified:
		return "stratified"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePolicy resolves a policy by name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "positional":
		return Positional, nil
	case "shuffle", "shuffled":
		return Shuffled, nil
	case "stratified":
		return Stratified, nil
	default:
		return 0, fmt.Errorf("unknown split policy %q", name)
	}
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string { return "policy" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error { return p.Set(string(text)) }

// SplitOptions configures Dataset.Split.
type SplitOptions struct {
	Policy Policy
	Seed   uint64
}

// Split is a disjoint train/test partition of one source dataset.
// TrainIndex and TestIndex hold the source row indexes of each side.
type Split[L comparable] struct {
	Train      *Dataset[L]
	Test       *Dataset[L]
	TrainIndex *roaring.Bitmap
	TestIndex  *roaring.Bitmap
}

// TestCount returns round(fraction*n) clamped to [1, n-1].
func TestCount(n int, fraction float64) (int, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction >= 1 {
		return 0, fmt.Errorf("%w: test fraction %v must be in (0,1)", ErrSplitWouldBeEmpty, fraction)
	}
	if n < 2 {
		return 0, fmt.Errorf("%w: need at least 2 records, have %d", ErrSplitWouldBeEmpty, n)
	}
	t := int(math.Round(fraction * float64(n)))
	return min(max(t, 1), n-1), nil
}

// Split partitions the dataset into train and test subsets. Both subsets
// keep the source order of their records and the source feature length.
func (d *Dataset[L]) Split(fraction float64, optFns ...func(*SplitOptions)) (*Split[L], error) {
	opts := SplitOptions{Policy: Positional, Seed: DefaultSeed}
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		test *roaring.Bitmap
		err  error
	)

	switch opts.Policy {
	case Positional:
		test, err = d.positional(fraction)
	case Shuffled:
		test, err = d.shuffled(fraction, opts.Seed)
	case Stratified:
		test, err = d.stratified(fraction)
	default:
		err = fmt.Errorf("unknown split policy %v", opts.Policy)
	}
	if err != nil {
		return nil, err
	}

	train := roaring.New()
	train.AddRange(0, uint64(d.Len()))
	train.AndNot(test)

	if train.IsEmpty() || test.IsEmpty() {
		return nil, fmt.Errorf("%w: train=%d test=%d", ErrSplitWouldBeEmpty, train.GetCardinality(), test.GetCardinality())
	}

	trainSet, err := d.Subset(train)
	if err != nil {
		return nil, err
	}
	testSet, err := d.Subset(test)
	if err != nil {
		return nil, err
	}

	return &Split[L]{
		Train:      trainSet,
		Test:       testSet,
		TrainIndex: train,
		TestIndex:  test,
	}, nil
}

func (d *Dataset[L]) positional(fraction float64) (*roaring.Bitmap, error) {
	n := d.Len()
	t, err := TestCount(n, fraction)
	if err != nil {
		return nil, err
	}
	test := roaring.New()
	test.AddRange(uint64(n-t), uint64(n))
	return test, nil
}

func (d *Dataset[L]) shuffled(fraction float64, seed uint64) (*roaring.Bitmap, error) {
	n := d.Len()
	t, err := TestCount(n, fraction)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	test := roaring.New()
	for _, idx := range perm[n-t:] {
		test.Add(uint32(idx))
	}
	return test, nil
}

func (d *Dataset[L]) stratified(fraction float64) (*roaring.Bitmap, error) {
	if _, err := TestCount(d.Len(), fraction); err != nil {
		return nil, err
	}

	groups := make(map[L][]uint32)
	var order []L
	for i, r := range d.records {
		if _, ok := groups[r.Label]; !ok {
			order = append(order, r.Label)
		}
		groups[r.Label] = append(groups[r.Label], uint32(i))
	}

	test := roaring.New()
	for _, label := range order {
		members := groups[label]
		t := int(math.Round(fraction * float64(len(members))))
		test.AddMany(members[len(members)-t:])
	}
	return test, nil
}
