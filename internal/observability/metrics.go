// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal  *prometheus.CounterVec
	PredictionLatency *prometheus.HistogramVec
	SynthesisFailures *prometheus.CounterVec
	HorizonSteps      prometheus.Histogram
	RecordWriteErrors prometheus.Counter

	// HTTP metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	StreamConnections prometheus.Gauge

	// Series metrics
	SeriesPoints        prometheus.Gauge
	SeriesLastTimestamp prometheus.Gauge
	ReloadsTotal        *prometheus.CounterVec

	// Ingestion metrics
	RowsIngested prometheus.Counter
	RowsDropped  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulReload prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "uk_forecast"
	}

	return &Metrics{
		// Prediction metrics
		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "requests_total",
			Help:      "Total number of predictions by model kind, model and status",
		}, []string{"kind", "model", "status"}),
		PredictionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "latency_seconds",
			Help:      "Synthesis plus estimator latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"kind"}),
		SynthesisFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "synthesis_failures_total",
			Help:      "Total number of feature synthesis failures by kind",
		}, []string{"reason"}),
		HorizonSteps: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "horizon_steps",
			Help:      "Number of steps requested per horizon forecast",
			Buckets:   []float64{1, 6, 24, 48, 96, 168, 336},
		}),
		RecordWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "record_write_errors_total",
			Help:      "Total number of prediction records that failed to persist",
		}),

		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		StreamConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_connections",
			Help:      "Number of open websocket stream connections",
		}),

		// Series metrics
		SeriesPoints: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "points",
			Help:      "Number of points in the active historical series",
		}),
		SeriesLastTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "last_timestamp_seconds",
			Help:      "Unix timestamp of the newest point in the active series",
		}),
		ReloadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "reloads_total",
			Help:      "Total number of series reloads by status",
		}, []string{"status"}),

		// Ingestion metrics
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_ingested_total",
			Help:      "Total number of demand points written to storage",
		}),
		RowsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_dropped_total",
			Help:      "Total number of CSV rows dropped by reason",
		}, []string{"reason"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulReload: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_reload_timestamp",
			Help:      "Unix timestamp of last successful series reload",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPrediction records a served or failed prediction.
func RecordPrediction(kind, model, status string, seconds float64) {
	DefaultMetrics.PredictionsTotal.WithLabelValues(kind, model, status).Inc()
	DefaultMetrics.PredictionLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordSynthesisFailure increments the synthesis failure counter.
func RecordSynthesisFailure(reason string) {
	DefaultMetrics.SynthesisFailures.WithLabelValues(reason).Inc()
}

// RecordHorizon records the size of a horizon request.
func RecordHorizon(steps int) {
	DefaultMetrics.HorizonSteps.Observe(float64(steps))
}

// RecordRecordWriteError increments the failed prediction record counter.
func RecordRecordWriteError() {
	DefaultMetrics.RecordWriteErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, route, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, status).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// StreamOpened increments the open stream gauge.
func StreamOpened() {
	DefaultMetrics.StreamConnections.Inc()
}

// StreamClosed decrements the open stream gauge.
func StreamClosed() {
	DefaultMetrics.StreamConnections.Dec()
}

// UpdateSeries updates the series gauges.
func UpdateSeries(points int, lastUnix int64) {
	DefaultMetrics.SeriesPoints.Set(float64(points))
	DefaultMetrics.SeriesLastTimestamp.Set(float64(lastUnix))
}

// RecordReload records a series reload attempt.
func RecordReload(status string, nowUnix int64) {
	DefaultMetrics.ReloadsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		DefaultMetrics.LastSuccessfulReload.Set(float64(nowUnix))
	}
}

// RecordIngested records rows written by the ingestion loader.
func RecordIngested(rows int) {
	DefaultMetrics.RowsIngested.Add(float64(rows))
}

// RecordDropped records CSV rows dropped during parsing.
func RecordDropped(reason string, rows int) {
	DefaultMetrics.RowsDropped.WithLabelValues(reason).Add(float64(rows))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
