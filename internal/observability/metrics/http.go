package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the API-side instruments on a private registry,
// so tests can construct as many instances as they like without colliding
// on the global default.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	dialogTurnsTotal  *prometheus.CounterVec
	dialogFaultsTotal *prometheus.CounterVec

	sessionsActive       prometheus.Gauge
	sessionsCreatedTotal *prometheus.CounterVec
	sessionsEvictedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "atlas",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atlas",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	dialogTurnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Total dialog turns by resulting state.",
		},
		[]string{"service", "state"},
	)
	dialogFaultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "dialog",
			Name:      "faults_total",
			Help:      "Total dialog turns that surfaced a fault, by kind.",
		},
		[]string{"service", "fault"},
	)
	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "atlas",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of live conversation sessions.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	sessionsCreatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Total conversation sessions created.",
		},
		[]string{"service"},
	)
	sessionsEvictedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "atlas",
			Subsystem: "sessions",
			Name:      "evicted_total",
			Help:      "Total conversation sessions dropped for idleness.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		dialogTurnsTotal,
		dialogFaultsTotal,
		sessionsActive,
		sessionsCreatedTotal,
		sessionsEvictedTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		dialogTurnsTotal:     dialogTurnsTotal,
		dialogFaultsTotal:    dialogFaultsTotal,
		sessionsActive:       sessionsActive,
		sessionsCreatedTotal: sessionsCreatedTotal,
		sessionsEvictedTotal: sessionsEvictedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses identifier segments so the path label stays
// low-cardinality.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/sessions/"):
		if strings.HasSuffix(path, "/messages") {
			return "/v1/sessions/{session_id}/messages"
		}
		return "/v1/sessions/{session_id}"
	case strings.HasPrefix(path, "/v1/experiments/"):
		rest := strings.TrimPrefix(path, "/v1/experiments/")
		if rest == "search" || rest == "popular" {
			return path
		}
		if strings.HasSuffix(rest, "/files") {
			return "/v1/experiments/{experiment_id}/files"
		}
		return "/v1/experiments/{experiment_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordDialogTurn(service, state, fault string) {
	m.dialogTurnsTotal.WithLabelValues(service, state).Inc()
	if fault != "" {
		m.dialogFaultsTotal.WithLabelValues(service, fault).Inc()
	}
}

func (m *HTTPServerMetrics) SessionCreated(service string) {
	m.sessionsCreatedTotal.WithLabelValues(service).Inc()
	m.sessionsActive.Inc()
}

func (m *HTTPServerMetrics) SessionDropped() {
	m.sessionsActive.Dec()
}

func (m *HTTPServerMetrics) SessionsEvicted(service string, count int) {
	if count <= 0 {
		return
	}
	m.sessionsEvictedTotal.WithLabelValues(service).Add(float64(count))
	m.sessionsActive.Sub(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
