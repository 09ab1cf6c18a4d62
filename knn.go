package knn

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/knn/classifier"
	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
	"github.com/hupe1980/knn/kspec"
)

// Model is a labelled dataset bound to a distance metric. It classifies
// queries against the whole dataset and sweeps candidate k values over
// train/test splits of it.
//
// A Model is immutable and safe for concurrent use.
type Model[L comparable] struct {
	data   *dataset.Dataset[L]
	fn     distance.Func
	opts   options
	logger *Logger
}

// New binds data to the configured metric.
func New[L comparable](data *dataset.Dataset[L], optFns ...Option) (*Model[L], error) {
	if data == nil || data.Len() == 0 {
		return nil, dataset.ErrEmpty
	}
	opts := applyOptions(optFns)

	fn, err := distance.Provider(opts.metric)
	if err != nil {
		return nil, err
	}

	return &Model[L]{
		data:   data,
		fn:     fn,
		opts:   opts,
		logger: opts.logger.WithMetric(opts.metric.String()).WithDimension(data.Dim()),
	}, nil
}

// Data returns the dataset the model was built from.
func (m *Model[L]) Data() *dataset.Dataset[L] { return m.data }

// Metric returns the configured distance metric.
func (m *Model[L]) Metric() distance.Metric { return m.opts.metric }

// Predict classifies query against the whole dataset. k must hold exactly
// one value; ranges are only meaningful for Search.
func (m *Model[L]) Predict(ctx context.Context, query []float64, k kspec.Spec) (*classifier.Prediction[L], error) {
	if !k.IsSingle() {
		err := fmt.Errorf("%w: predict requires a single k, got %q", ErrInvalidK, k.String())
		m.opts.metricsCollector.RecordPredict(0, 0, err)
		m.logger.LogPredict(ctx, 0, nil, err)
		return nil, err
	}

	start := time.Now()
	p, err := classifier.Predict(m.data, query, m.fn, k.Min())
	err = translateError(err)
	m.opts.metricsCollector.RecordPredict(k.Min(), time.Since(start), err)
	if err != nil {
		m.logger.LogPredict(ctx, k.Min(), nil, err)
		return nil, err
	}
	m.logger.LogPredict(ctx, k.Min(), p.Label, nil)
	return p, nil
}

// Classify returns the majority label among the k nearest records.
func (m *Model[L]) Classify(ctx context.Context, query []float64, k int) (L, error) {
	spec, err := kspec.Single(k)
	if err != nil {
		var zero L
		return zero, fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	p, err := m.Predict(ctx, query, spec)
	if err != nil {
		var zero L
		return zero, err
	}
	return p.Label, nil
}

// Split partitions the dataset with the configured policy and seed.
func (m *Model[L]) Split(ctx context.Context, fraction float64) (*dataset.Split[L], error) {
	return m.split(ctx, fraction, m.opts.policy, m.opts.seed)
}

func (m *Model[L]) split(ctx context.Context, fraction float64, policy dataset.Policy, seed uint64) (*dataset.Split[L], error) {
	s, err := m.data.Split(fraction, func(o *dataset.SplitOptions) {
		o.Policy = policy
		o.Seed = seed
	})
	if err != nil {
		m.logger.LogSplit(ctx, policy.String(), 0, 0, err)
		return nil, err
	}
	m.logger.LogSplit(ctx, policy.String(), s.Train.Len(), s.Test.Len(), nil)
	return s, nil
}
