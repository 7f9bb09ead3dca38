// Package metrics holds the Prometheus collectors of the dashboard server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sgfcp"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	apiDuration     *prometheus.HistogramVec
	snapshotLoads   *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	logins          *prometheus.CounterVec
	dashboards      prometheus.Gauge
	staleMarks      prometheus.Counter
	suspicious      prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend API latency by path and status code.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"method", "path", "code"}),
		snapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_loads_total",
			Help:      "Dashboard snapshot loads by result.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_load_duration_seconds",
			Help:      "Time to fetch all six collections.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40},
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		dashboards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_dashboards",
			Help:      "Sessions with dashboard state in memory.",
		}),
		staleMarks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_marks_total",
			Help:      "Dashboards flagged as outdated by data change notifications.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests rejected as scanner probes.",
		}),
	}
	registry.MustRegister(
		m.requestsTotal, m.requestDuration, m.apiDuration,
		m.snapshotLoads, m.loadDuration, m.logins, m.dashboards, m.staleMarks, m.suspicious,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer exposes the registry for extra collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Middleware records count and latency per matched route. It must wrap the
// ServeMux directly so the pattern set by the mux is visible afterwards.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveAPI matches api.ObserveFunc.
func (m *Metrics) ObserveAPI(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveLoad matches dashboard.LoadObserver.
func (m *Metrics) ObserveLoad(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.snapshotLoads.WithLabelValues(result).Inc()
	if result == "ok" {
		m.loadDuration.Observe(elapsed.Seconds())
	}
}

// ObserveLogin counts a login outcome.
func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// SetDashboards reports the number of tracked dashboards.
func (m *Metrics) SetDashboards(n int) {
	if m == nil {
		return
	}
	m.dashboards.Set(float64(n))
}

// AddStale counts dashboards marked stale.
func (m *Metrics) AddStale(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.staleMarks.Add(float64(n))
}

// ObserveSuspicious counts a rejected probe.
func (m *Metrics) ObserveSuspicious() {
	if m == nil {
		return
	}
	m.suspicious.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
