package knn

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/knn/dataset"
	"github.com/hupe1980/knn/distance"
)

type options struct {
	metric           distance.Metric
	workers          int
	policy           dataset.Policy
	seed             uint64
	progressInterval time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Model.
type Option func(*options)

// WithMetric selects the distance metric. The default is Euclidean.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithWorkers bounds the number of test rows ranked concurrently during a
// sweep. Values below 1 use runtime.GOMAXPROCS(0).
//
// Results do not depend on the worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSplitPolicy selects how sweeps partition the dataset into train and
// test sets. The default is dataset.Positional, which holds out the trailing
// records.
func WithSplitPolicy(p dataset.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithSeed sets the seed used by the shuffled split policy.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithProgressInterval sets the minimum time between sweep progress log lines.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &knn.BasicMetricsCollector{}
//	m, _ := knn.New(data, knn.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
//	fmt.Printf("Predicts: %d, Avg latency: %dns\n", stats.PredictCount, stats.PredictAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := knn.NewJSONLogger(slog.LevelInfo)
//	m, _ := knn.New(data, knn.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metric:           distance.MetricEuclidean,
		workers:          1,
		policy:           dataset.Positional,
		seed:             dataset.DefaultSeed,
		progressInterval: time.Second,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}
