package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	broadcastTotal  prometheus.Counter
	requestsByState *prometheus.GaugeVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	broadcastTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_broadcasts_total",
		Help: "Total number of broadcast fan-outs enqueued",
	})

	requestsByState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "student_requests_by_status",
		Help: "Current number of student requests per status",
	}, []string{"status"})

	registry.MustRegister(requestDuration, requestTotal, broadcastTotal, requestsByState)
	registry.MustRegister(prometheus.NewGoCollector())

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		broadcastTotal:  broadcastTotal,
		requestsByState: requestsByState,
	}
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveBroadcast counts one enqueued fan-out.
func (s *MetricsService) ObserveBroadcast() {
	s.broadcastTotal.Inc()
}

// SetRequestsByStatus publishes the current per-status request counts.
func (s *MetricsService) SetRequestsByStatus(status string, count int) {
	s.requestsByState.WithLabelValues(status).Set(float64(count))
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}
