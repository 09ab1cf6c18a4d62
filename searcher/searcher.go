// Package searcher evaluates candidate neighbor counts against a train/test
// split and selects the k with the highest accuracy.
//
// Each test row is ranked once against the training set for the largest
// candidate k; every smaller candidate reuses a prefix of that ranking. This
// is exact because neighbor selection is stable, so the top-k of a ranking is
// a prefix of its top-(k+1).
package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/knn/classifier"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
)

// ErrEmptySearchSpace is returned when no candidate k values are given.
var ErrEmptySearchSpace = errors.New("empty search space")

// Entry is the accuracy observed for one candidate k.
type Entry struct {
	K        int
	Correct  int
	Total    int
	Accuracy float64
}

// Result is the outcome of a k sweep.
type Result struct {
	Entries   []Entry // one per candidate, ascending k
	Best      Entry   // highest accuracy; smallest k on ties
	TrainSize int
	TestSize  int
}

// Options configures Search and SelectFeatures.
type Options struct {
	// Workers bounds the number of test rows ranked concurrently.
	// Values below 2 run sequentially.
	Workers int

	// Logger receives progress and per-k results. Nil disables logging.
	Logger *slog.Logger

	// ProgressInterval is the minimum time between progress log lines.
	ProgressInterval time.Duration

	// OnEvaluate is called once per evaluated k with the time spent on it.
	OnEvaluate func(e Entry, elapsed time.Duration)
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Workers:          1,
		ProgressInterval: time.Second,
	}
}

func buildOptions(optFns []func(*Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}

// Validate checks the sweep preconditions once, before any classification.
func Validate[L comparable](split *dataset.Split[L], candidates kspec.Spec) error {
	if split == nil || split.Train == nil || split.Test == nil {
		return fmt.Errorf("%w: missing train or test set", dataset.ErrSplitWouldBeEmpty)
	}
	if candidates.IsZero() {
		return ErrEmptySearchSpace
	}
	if split.Train.Dim() != split.Test.Dim() {
		return &classifier.ErrDimensionMismatch{Expected: split.Train.Dim(), Actual: split.Test.Dim()}
	}
	if err := candidates.Validate(split.Train.Len()); err != nil {
		return fmt.Errorf("%w: %w", classifier.ErrInvalidK, err)
	}
	return nil
}

// Search classifies every test record for every candidate k and reports the
// accuracy table together with the best k.
func Search[L comparable](ctx context.Context, split *dataset.Split[L], fn distance.Func, candidates kspec.Spec, optFns ...func(*Options)) (*Result, error) {
	if err := Validate(split, candidates); err != nil {
		return nil, err
	}
	opts := buildOptions(optFns)

	entries, err := evaluate(ctx, split.Train, split.Test, fn, candidates.Values(), opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Entries:   entries,
		Best:      best(entries),
		TrainSize: split.Train.Len(),
		TestSize:  split.Test.Len(),
	}
	opts.Logger.DebugContext(ctx, "search completed",
		"candidates", len(entries),
		"best_k", res.Best.K,
		"accuracy", res.Best.Accuracy,
	)
	return res, nil
}

// best returns the entry with strictly highest accuracy, keeping the first
// (smallest k) among equals.
func best(entries []Entry) Entry {
	var b Entry
	for i, e := range entries {
		if i == 0 || e.Correct > b.Correct {
			b = e
		}
	}
	return b
}

// evaluate scores every k in ks (ascending) on test.
func evaluate[L comparable](ctx context.Context, train, test *dataset.Dataset[L], fn distance.Func, ks []int, opts Options) ([]Entry, error) {
	start := time.Now()
	rankings, err := rankAll(ctx, train, test, fn, ks[len(ks)-1], opts)
	if err != nil {
		return nil, err
	}
	// Ranking time is shared by all candidates.
	shared := time.Since(start) / time.Duration(len(ks))

	progress := rate.Sometimes{Interval: opts.ProgressInterval}
	entries := make([]Entry, 0, len(ks))
	for i, k := range ks {
		kStart := time.Now()
		correct := 0
		for row, neighbors := range rankings {
			if classifier.Winner(train, neighbors, k) == test.Label(row) {
				correct++
			}
		}

		e := Entry{
			K:        k,
			Correct:  correct,
			Total:    test.Len(),
			Accuracy: float64(correct) / float64(test.Len()),
		}
		entries = append(entries, e)

		if opts.OnEvaluate != nil {
			opts.OnEvaluate(e, shared+time.Since(kStart))
		}
		opts.Logger.DebugContext(ctx, "evaluated k", "k", k, "correct", correct, "total", e.Total, "accuracy", e.Accuracy)
		progress.Do(func() {
			opts.Logger.InfoContext(ctx, "search progress", "evaluated", i+1, "candidates", len(ks))
		})
	}
	return entries, nil
}

// rankAll ranks every test row against train for the given k.
func rankAll[L comparable](ctx context.Context, train, test *dataset.Dataset[L], fn distance.Func, k int, opts Options) ([][]classifier.Neighbor, error) {
	rankings := make([][]classifier.Neighbor, test.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for row, r := range test.All() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			neighbors, err := classifier.Rank(train, r.Features, fn, k)
			if err != nil {
				return fmt.Errorf("test row %d: %w", row, err)
			}
			rankings[row] = neighbors
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rankings, nil
}
