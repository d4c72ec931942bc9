package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	essaysCreatedTotal      prometheus.Counter
	uploadsRejectedTotal    *prometheus.CounterVec
	extractionSeconds       prometheus.Histogram
	extractionFailuresTotal prometheus.Counter
	extractionBatchesTotal  prometheus.Counter
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the essay pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		essaysCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "essays_created_total",
			Help: "Total number of essay records created from uploads.",
		})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "essay_uploads_rejected_total",
			Help: "Total number of upload requests rejected at classification time.",
		}, []string{"reason"})

		extractionSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "essay_extraction_seconds",
			Help:    "Latency distribution for per-essay text extraction.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		})

		extractionFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "essay_extraction_failures_total",
			Help: "Total number of essays whose text extraction failed.",
		})

		extractionBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "essay_extraction_batches_total",
			Help: "Total number of essay batches consumed by the worker.",
		})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests by method, route and status.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_request_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		prometheus.MustRegister(
			essaysCreatedTotal,
			uploadsRejectedTotal,
			extractionSeconds,
			extractionFailuresTotal,
			extractionBatchesTotal,
			apiRequestsTotal,
			apiLatencySeconds,
		)
	})
}

// EssaysCreated exposes the counter for created essay records.
func EssaysCreated() prometheus.Counter {
	RegisterMetrics()
	return essaysCreatedTotal
}

// UploadsRejected exposes the counter for rejected upload requests.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}

// ExtractionLatency exposes the per-essay extraction latency histogram.
func ExtractionLatency() prometheus.Histogram {
	RegisterMetrics()
	return extractionSeconds
}

// ExtractionFailures exposes the counter for failed extractions.
func ExtractionFailures() prometheus.Counter {
	RegisterMetrics()
	return extractionFailuresTotal
}

// ExtractionBatches exposes the counter for consumed batches.
func ExtractionBatches() prometheus.Counter {
	RegisterMetrics()
	return extractionBatchesTotal
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the API request latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}
