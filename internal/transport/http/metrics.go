package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curvepulse/internal/services"
)

// Metrics owns the prometheus registry and the HTTP instrumentation built on
// it. One instance is shared between the middleware and the /metrics handler.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	wsClients       prometheus.GaugeFunc
}

// NewMetrics builds a registry with process and Go runtime collectors plus
// the request metrics. The client counter feeds the websocket gauge; nil is
// allowed and reports zero.
func NewMetrics(clients services.ClientCounter) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "curvepulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "curvepulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	wsClients := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "curvepulse",
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Currently connected websocket clients.",
	}, func() float64 {
		if clients == nil {
			return 0
		}
		return float64(clients.ClientCount())
	})

	registry.MustRegister(requestsTotal, requestDuration, wsClients)

	return &Metrics{
		registry:        registry,
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		wsClients:       wsClients,
	}
}

// Instrument records request count and latency per chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := metricsRoutePattern(r)
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry so callers can register their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// metricsRoutePattern keeps the route label bounded by using the chi pattern
// instead of the raw path.
func metricsRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}
