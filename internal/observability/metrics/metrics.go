package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "kitchen_"

	resultSuccess = "success"
	resultError   = "error"
	resultInvalid = "invalid"
)

var (
	registerOnce sync.Once

	computeTotal   *prometheus.CounterVec
	computeLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	orderCaptureTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		computeTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_compute_total",
				Help: "Total monthly billing computations by result",
			},
			[]string{"result"},
		)
		computeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "billing_compute_latency_seconds",
				Help:    "Monthly billing computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "billing_export_total",
				Help: "Total monthly billing exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "billing_export_latency_seconds",
				Help:    "Monthly billing export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		orderCaptureTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "order_capture_total",
				Help: "Total daily order capture saves by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			computeTotal,
			computeLatency,
			exportTotal,
			exportLatency,
			orderCaptureTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveBillingCompute records computation latency and result.
func ObserveBillingCompute(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if computeTotal != nil {
		computeTotal.WithLabelValues(result).Inc()
	}
	if computeLatency != nil {
		computeLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveBillingExport records export latency and result.
func ObserveBillingExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncOrderCapture increments the order capture counter.
func IncOrderCapture(result string) {
	if result == "" {
		result = resultSuccess
	}
	if orderCaptureTotal != nil {
		orderCaptureTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultInvalid = resultInvalid
)
