package knn

import (
	"context"
	"time"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/kspec"
	"github.com/hupe1980/knn/searcher"
)

// DefaultTestFraction is the share of records held out when a sweep does not
// set one.
const DefaultTestFraction = 0.25

// Search creates a new fluent sweep builder over the given candidate k values.
//
// Example:
//
//	res, err := m.Search(kspec.MustParse("1-15,2")).
//	    TestFraction(0.3).
//	    Policy(dataset.Stratified).
//	    Execute(ctx)
//
//	// Greedy forward feature selection over the same split:
//	steps, err := m.Search(kspec.MustParse("3")).SelectFeatures(ctx)
func (m *Model[L]) Search(candidates kspec.Spec) *SearchBuilder[L] {
	return &SearchBuilder[L]{
		m:          m,
		candidates: candidates,
		fraction:   DefaultTestFraction,
		policy:     m.opts.policy,
		seed:       m.opts.seed,
		workers:    m.opts.workers,
	}
}

// SearchBuilder is a fluent builder for constructing k sweeps.
type SearchBuilder[L comparable] struct {
	m          *Model[L]
	candidates kspec.Spec
	fraction   float64
	policy     dataset.Policy
	seed       uint64
	workers    int
	onEvaluate func(searcher.Entry, time.Duration)
}

// TestFraction sets the share of records held out for scoring, in (0, 1).
func (sb *SearchBuilder[L]) TestFraction(f float64) *SearchBuilder[L] {
	sb.fraction = f
	return sb
}

// Policy overrides the model's split policy for this sweep.
func (sb *SearchBuilder[L]) Policy(p dataset.Policy) *SearchBuilder[L] {
	sb.policy = p
	return sb
}

// Seed overrides the model's shuffle seed for this sweep.
func (sb *SearchBuilder[L]) Seed(seed uint64) *SearchBuilder[L] {
	sb.seed = seed
	return sb
}

// Workers overrides the model's ranking concurrency for this sweep.
func (sb *SearchBuilder[L]) Workers(n int) *SearchBuilder[L] {
	if n > 0 {
		sb.workers = n
	}
	return sb
}

// OnEvaluate registers a callback invoked once per evaluated k.
func (sb *SearchBuilder[L]) OnEvaluate(fn func(e searcher.Entry, elapsed time.Duration)) *SearchBuilder[L] {
	sb.onEvaluate = fn
	return sb
}

// Execute splits the dataset and scores every candidate k on the test set.
//
// All argument errors (empty candidates, k larger than the training set,
// a fraction leaving one side empty) are reported before any record is
// classified.
func (sb *SearchBuilder[L]) Execute(ctx context.Context) (*searcher.Result, error) {
	m := sb.m
	start := time.Now()

	res, err := sb.execute(ctx)
	err = translateError(err)
	m.opts.metricsCollector.RecordSearch(sb.candidates.Len(), time.Since(start), err)
	if err != nil {
		m.logger.LogSearch(ctx, sb.candidates.Len(), 0, 0, err)
		return nil, err
	}
	m.logger.LogSearch(ctx, len(res.Entries), res.Best.K, res.Best.Accuracy, nil)
	return res, nil
}

func (sb *SearchBuilder[L]) execute(ctx context.Context) (*searcher.Result, error) {
	if sb.candidates.IsZero() {
		return nil, ErrEmptySearchSpace
	}
	split, err := sb.m.split(ctx, sb.fraction, sb.policy, sb.seed)
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, split, sb.m.fn, sb.candidates, sb.searchOptions(ctx))
}

// SelectFeatures splits the dataset and runs greedy forward feature
// selection for every candidate k. See searcher.SelectFeatures.
func (sb *SearchBuilder[L]) SelectFeatures(ctx context.Context) ([]searcher.Step, error) {
	if sb.candidates.IsZero() {
		return nil, ErrEmptySearchSpace
	}
	split, err := sb.m.split(ctx, sb.fraction, sb.policy, sb.seed)
	if err != nil {
		return nil, err
	}
	steps, err := searcher.SelectFeatures(ctx, split, sb.m.fn, sb.candidates, sb.searchOptions(ctx))
	return steps, translateError(err)
}

// MustExecute runs the sweep, panicking on error.
// Use this only in tests or when you're certain the arguments are valid.
func (sb *SearchBuilder[L]) MustExecute(ctx context.Context) *searcher.Result {
	res, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return res
}

func (sb *SearchBuilder[L]) searchOptions(ctx context.Context) func(*searcher.Options) {
	m := sb.m
	return func(o *searcher.Options) {
		o.Workers = sb.workers
		o.Logger = m.logger.Logger
		o.ProgressInterval = m.opts.progressInterval
		o.OnEvaluate = func(e searcher.Entry, elapsed time.Duration) {
			m.opts.metricsCollector.RecordEvaluation(e.K, e.Correct, e.Total, elapsed)
			m.logger.LogEvaluation(ctx, e.K, e.Correct, e.Total, elapsed)
			if sb.onEvaluate != nil {
				sb.onEvaluate(e, elapsed)
			}
		}
	}
}
