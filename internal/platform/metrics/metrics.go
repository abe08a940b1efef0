package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

// MetricsManager holds the Prometheus collectors of one process.
type MetricsManager struct {
	Registry *prometheus.Registry

	CacheLookupsTotal *prometheus.CounterVec   // tier, result
	APIRequestsTotal  *prometheus.CounterVec   // endpoint, outcome
	APIRetriesTotal   *prometheus.CounterVec   // endpoint
	APIRequestLatency *prometheus.HistogramVec // endpoint
	UploadsTotal      *prometheus.CounterVec   // outcome
	ListingsPublished prometheus.Counter
	ServerRequests    *prometheus.CounterVec   // route, status
	ServerLatency     *prometheus.HistogramVec // route
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by tier and result.",
		}, []string{"tier", "result"}),
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		APIRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_retries_total",
			Help:      "API call retries by endpoint.",
		}, []string{"endpoint"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API calls including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Image uploads by outcome.",
		}, []string{"outcome"}),
		ListingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_published_total",
			Help:      "Listings published through the posting flow.",
		}),
		ServerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_server_requests_total",
			Help:      "Requests served by route and status.",
		}, []string{"route", "status"}),
		ServerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_server_latency_seconds",
			Help:      "Latency of served requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	registry.MustRegister(
		m.CacheLookupsTotal,
		m.APIRequestsTotal,
		m.APIRetriesTotal,
		m.APIRequestLatency,
		m.UploadsTotal,
		m.ListingsPublished,
		m.ServerRequests,
		m.ServerLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// The helpers below accept a nil receiver so components can run without metrics.

func (m *MetricsManager) CacheLookup(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

func (m *MetricsManager) APIRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.APIRequestLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *MetricsManager) APIRetry(endpoint string) {
	if m == nil {
		return
	}
	m.APIRetriesTotal.WithLabelValues(endpoint).Inc()
}

func (m *MetricsManager) Upload(ok bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.UploadsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsManager) Published() {
	if m == nil {
		return
	}
	m.ListingsPublished.Inc()
}

func (m *MetricsManager) ServerRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ServerRequests.WithLabelValues(route, status).Inc()
	m.ServerLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on port. An empty port disables it.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", "port", port, "path", "/metrics")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
