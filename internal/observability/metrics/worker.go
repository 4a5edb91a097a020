package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	downloadTotal    *prometheus.CounterVec
	downloadDuration *prometheus.HistogramVec
	downloadInFlight prometheus.Gauge
	queueLag         *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	downloadTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "worker",
			Name:      "download_total",
			Help:      "Total processed download jobs by status.",
		},
		[]string{"service", "status"},
	)
	downloadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atlas",
			Subsystem: "worker",
			Name:      "download_duration_seconds",
			Help:      "Download job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	downloadInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atlas",
			Subsystem: "worker",
			Name:      "download_in_flight",
			Help:      "Number of downloads currently being fetched.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atlas",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between a download request and the start of its fetch.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(downloadTotal, downloadDuration, downloadInFlight, queueLag)

	return &WorkerMetrics{
		registry:         registry,
		downloadTotal:    downloadTotal,
		downloadDuration: downloadDuration,
		downloadInFlight: downloadInFlight,
		queueLag:         queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDownload() {
	m.downloadInFlight.Inc()
}

func (m *WorkerMetrics) FinishDownload(service string, duration time.Duration, err error) {
	m.downloadInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.downloadTotal.WithLabelValues(service, status).Inc()
	m.downloadDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
