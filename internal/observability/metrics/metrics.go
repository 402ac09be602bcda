// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "speech_batch"

// Metrics holds all Prometheus metrics for the tools.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Job metrics
	JobsSubmitted *prometheus.CounterVec
	JobPolls      *prometheus.CounterVec
	JobsFinished  *prometheus.CounterVec
	JobWait       *prometheus.HistogramVec

	// Document metrics
	DocumentsProcessed *prometheus.CounterVec
	LinesExtracted     *prometheus.CounterVec
	MissingAlternative prometheus.Counter
	FilesWritten       prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC client metrics
	GRPCClientCalls   *prometheus.CounterVec
	GRPCClientLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance registered with the default registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
// If reg is also a Gatherer it is used by Push.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		gatherer: gatherer,

		JobsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of transcription job submissions",
		}, []string{"provider", "result"}),
		JobPolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_polls_total",
			Help:      "Total number of job status checks",
		}, []string{"provider", "status"}),
		JobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Total number of jobs observed in a terminal state",
		}, []string{"provider", "status"}),
		JobWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_wait_seconds",
			Help:      "Time spent waiting for a job to reach a terminal state",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		}, []string{"provider"}),

		DocumentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Total number of result documents decoded",
		}, []string{"result"}),
		LinesExtracted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_extracted_total",
			Help:      "Total number of output lines produced by extraction",
		}, []string{"view"}),
		MissingAlternative: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_alternatives_total",
			Help:      "Total number of word items skipped for lack of alternatives",
		}),
		FilesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_written_total",
			Help:      "Total number of output files written",
		}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCClientCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_client_calls_total",
			Help:      "Total number of outgoing gRPC calls",
		}, []string{"method", "code"}),
		GRPCClientLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grpc_client_latency_seconds",
			Help:      "Outgoing gRPC call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method"}),
	}
}

// RecordSubmission records a job submission attempt.
func (m *Metrics) RecordSubmission(provider string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.JobsSubmitted.WithLabelValues(provider, result).Inc()
}

// RecordPoll records one status check and the status it returned.
func (m *Metrics) RecordPoll(provider, status string) {
	m.JobPolls.WithLabelValues(provider, status).Inc()
}

// RecordJobFinished records a job reaching a terminal state.
func (m *Metrics) RecordJobFinished(provider, status string, waitSeconds float64) {
	m.JobsFinished.WithLabelValues(provider, status).Inc()
	m.JobWait.WithLabelValues(provider).Observe(waitSeconds)
}

// RecordDocument records a decoded (or rejected) result document.
func (m *Metrics) RecordDocument(result string) {
	m.DocumentsProcessed.WithLabelValues(result).Inc()
}

// RecordLines records lines produced for a view ("transcript" or "timestamped").
func (m *Metrics) RecordLines(view string, n int) {
	m.LinesExtracted.WithLabelValues(view).Add(float64(n))
}

// RecordMissingAlternative records a skipped word item.
func (m *Metrics) RecordMissingAlternative() {
	m.MissingAlternative.Inc()
}

// RecordFileWritten records an output file.
func (m *Metrics) RecordFileWritten() {
	m.FilesWritten.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCCall records an outgoing gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string, latencySeconds float64) {
	m.GRPCClientCalls.WithLabelValues(method, code).Inc()
	m.GRPCClientLatency.WithLabelValues(method).Observe(latencySeconds)
}

// Push sends the gathered metrics to a Prometheus Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.gatherer).PushContext(ctx)
}
