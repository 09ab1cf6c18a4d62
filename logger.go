package knn

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with knn-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithMetric adds the distance metric name to the logger.
func (l *Logger) WithMetric(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("metric", name),
	}
}

// LogPredict logs a single-query classification.
func (l *Logger) LogPredict(ctx context.Context, k int, label any, err error) {
	lk := l.WithK(k)
	if err != nil {
		lk.ErrorContext(ctx, "predict failed",
			"error", err,
		)
	} else {
		lk.DebugContext(ctx, "predict completed",
			"label", label,
		)
	}
}

// LogSplit logs a train/test partition.
func (l *Logger) LogSplit(ctx context.Context, policy string, train, test int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "split failed",
			"policy", policy,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "split completed",
			"policy", policy,
			"train", train,
			"test", test,
		)
	}
}

// LogEvaluation logs the accuracy observed for one candidate k.
func (l *Logger) LogEvaluation(ctx context.Context, k, correct, total int, elapsed time.Duration) {
	l.WithK(k).DebugContext(ctx, "candidate evaluated",
		"correct", correct,
		"total", total,
		"elapsed", elapsed,
	)
}

// LogSearch logs a completed k sweep.
func (l *Logger) LogSearch(ctx context.Context, candidates, bestK int, accuracy float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"candidates", candidates,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "search completed",
			"candidates", candidates,
			"best_k", bestK,
			"accuracy", accuracy,
		)
	}
}
