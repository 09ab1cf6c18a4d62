package report

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromCollector records run metrics into a private Prometheus registry.
// It satisfies knn.MetricsCollector.
type PromCollector struct {
	registry        *prometheus.Registry
	opLatency       *prometheus.HistogramVec
	evaluations     prometheus.Counter
	rowsScored      prometheus.Counter
	rowsCorrect     prometheus.Counter
	accuracy        *prometheus.GaugeVec
	candidates      prometheus.Gauge
	operationErrors *prometheus.CounterVec
}

// NewPromCollector creates a collector with all metrics registered.
func NewPromCollector() *PromCollector {
	p := &PromCollector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "knn_operation_latency_seconds",
			Help:    "Latency of predict, evaluate and search operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knn_evaluations_total",
			Help: "Total candidate k values evaluated",
		}),
		rowsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knn_test_rows_scored_total",
			Help: "Total test rows classified during sweeps",
		}),
		rowsCorrect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "knn_test_rows_correct_total",
			Help: "Total test rows classified correctly during sweeps",
		}),
		accuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "knn_accuracy_ratio",
			Help: "Hold-out accuracy of the last evaluation of each k",
		}, []string{"k"}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "knn_search_candidates",
			Help: "Number of candidate k values in the last sweep",
		}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "knn_operation_errors_total",
			Help: "Total failed operations",
		}, []string{"op"}),
	}
	p.registry.MustRegister(
		p.opLatency,
		p.evaluations,
		p.rowsScored,
		p.rowsCorrect,
		p.accuracy,
		p.candidates,
		p.operationErrors,
	)
	return p
}

// Registry returns the registry holding the collector's metrics.
func (p *PromCollector) Registry() *prometheus.Registry {
	return p.registry
}

// RecordPredict implements knn.MetricsCollector.
func (p *PromCollector) RecordPredict(_ int, duration time.Duration, err error) {
	p.observe("predict", duration, err)
}

// RecordEvaluation implements knn.MetricsCollector.
func (p *PromCollector) RecordEvaluation(k, correct, total int, duration time.Duration) {
	p.opLatency.WithLabelValues("evaluate", "ok").Observe(duration.Seconds())
	p.evaluations.Inc()
	p.rowsScored.Add(float64(total))
	p.rowsCorrect.Add(float64(correct))
	if total > 0 {
		p.accuracy.WithLabelValues(strconv.Itoa(k)).Set(float64(correct) / float64(total))
	}
}

// RecordSearch implements knn.MetricsCollector.
func (p *PromCollector) RecordSearch(candidates int, duration time.Duration, err error) {
	p.candidates.Set(float64(candidates))
	p.observe("search", duration, err)
}

func (p *PromCollector) observe(op string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		p.operationErrors.WithLabelValues(op).Inc()
	}
	p.opLatency.WithLabelValues(op, status).Observe(duration.Seconds())
}

// WriteTextfile writes all metrics to filename in the text exposition
// format, as consumed by the node_exporter textfile collector. The file is
// replaced atomically.
func (p *PromCollector) WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, p.registry)
}
