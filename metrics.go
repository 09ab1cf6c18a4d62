package knn

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// report.PromCollector is a ready-made implementation.
type MetricsCollector interface {
	// RecordPredict is called after each single-query classification.
	// k is the neighbor count, duration is the time taken, err is nil if successful.
	RecordPredict(k int, duration time.Duration, err error)

	// RecordEvaluation is called once per candidate k during a sweep.
	// correct and total describe the test rows scored with k.
	RecordEvaluation(k, correct, total int, duration time.Duration)

	// RecordSearch is called after each sweep.
	// candidates is the number of k values requested.
	RecordSearch(candidates int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPredict(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordEvaluation(int, int, int, time.Duration) {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PredictCount      atomic.Int64
	PredictErrors     atomic.Int64
	PredictTotalNanos atomic.Int64
	EvaluationCount   atomic.Int64
	RowsScored        atomic.Int64
	RowsCorrect       atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(k int, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordEvaluation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluation(k, correct, total int, duration time.Duration) {
	b.EvaluationCount.Add(1)
	b.RowsScored.Add(int64(total))
	b.RowsCorrect.Add(int64(correct))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(candidates int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PredictCount:    b.PredictCount.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictAvgNanos: avg(b.PredictTotalNanos.Load(), b.PredictCount.Load()),
		EvaluationCount: b.EvaluationCount.Load(),
		RowsScored:      b.RowsScored.Load(),
		RowsCorrect:     b.RowsCorrect.Load(),
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchAvgNanos:  avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PredictCount    int64
	PredictErrors   int64
	PredictAvgNanos int64
	EvaluationCount int64
	RowsScored      int64
	RowsCorrect     int64
	SearchCount     int64
	SearchErrors    int64
	SearchAvgNanos  int64
}
