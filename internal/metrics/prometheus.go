package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adboard"

// PrometheusRecorder exposes Recorder events as Prometheus collectors on its
// own registry. Every series carries a constant "service" label.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	peerCalls    *prometheus.CounterVec
	peerDuration *prometheus.HistogramVec
	cascades     *prometheus.CounterVec
	mutations    *prometheus.CounterVec
	proxied      *prometheus.CounterVec
	proxyLatency *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
}

// NewPrometheus builds a recorder for the named service.
func NewPrometheus(service string) *PrometheusRecorder {
	constLabels := prometheus.Labels{"service": service}

	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests handled.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 10),
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		peerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "peer",
			Name:        "calls_total",
			Help:        "Cross-service calls by outcome.",
			ConstLabels: constLabels,
		}, []string{"peer", "operation", "outcome"}),
		peerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "peer",
			Name:        "call_duration_seconds",
			Help:        "Latency of cross-service calls.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"peer", "operation"}),
		cascades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "users",
			Name:        "cascade_deletes_total",
			Help:        "Cascade-delete attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "store",
			Name:        "mutations_total",
			Help:        "Entity rows created, updated or deleted.",
			ConstLabels: constLabels,
		}, []string{"entity", "action"}),
		proxied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "proxied_requests_total",
			Help:        "Requests forwarded to backends by status.",
			ConstLabels: constLabels,
		}, []string{"backend", "operation", "status"}),
		proxyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "proxy_duration_seconds",
			Help:        "Backend round-trip time seen by the gateway.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"backend", "operation"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "gateway",
			Name:        "rate_limited_total",
			Help:        "Requests rejected by the rate limiter.",
			ConstLabels: constLabels,
		}, []string{"limiter"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests, p.httpDuration,
		p.peerCalls, p.peerDuration,
		p.cascades, p.mutations,
		p.proxied, p.proxyLatency,
		p.rateLimited,
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) ObservePeerCall(peer, operation, outcome string, duration time.Duration) {
	p.peerCalls.WithLabelValues(peer, operation, outcome).Inc()
	p.peerDuration.WithLabelValues(peer, operation).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncCascade(outcome string) {
	p.cascades.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddMutations(entity, action string, n int) {
	if n <= 0 {
		return
	}
	p.mutations.WithLabelValues(entity, action).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveProxy(backend, operation string, status int, duration time.Duration) {
	p.proxied.WithLabelValues(backend, operation, strconv.Itoa(status)).Inc()
	p.proxyLatency.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncRateLimited(limiter string) {
	p.rateLimited.WithLabelValues(limiter).Inc()
}
