package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Session resolution outcomes, labeled by
	// authenticated / anonymous / pre_authenticated / stale_cleared
	SessionResolutionsTotal *prometheus.CounterVec

	// Session lifecycle
	SessionsEstablishedTotal prometheus.Counter
	SessionsInvalidatedTotal prometheus.Counter
	SessionsSweptTotal       prometheus.Counter

	// Authentication outcomes, labeled by
	// success / not_found / bad_credentials / error
	LoginsTotal *prometheus.CounterVec

	// Authorization denials labeled by policy
	PolicyDenialsTotal *prometheus.CounterVec

	// Database pool gauges, refreshed by UpdateDBStats
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gatehouse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SessionResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_session_resolutions_total",
				Help: "Session resolution outcomes per request",
			},
			[]string{"outcome"},
		),
		SessionsEstablishedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_sessions_established_total",
				Help: "Total number of sessions established at login",
			},
		),
		SessionsInvalidatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_sessions_invalidated_total",
				Help: "Total number of sessions invalidated at logout",
			},
		),
		SessionsSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_sessions_swept_total",
				Help: "Expired sessions removed by the background sweeper",
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"result"},
		),
		PolicyDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_policy_denials_total",
				Help: "Authorization denials by policy",
			},
			[]string{"policy"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatehouse_db_connections_active",
				Help: "Number of open database connections in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gatehouse_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionResolutionsTotal,
		m.SessionsEstablishedTotal,
		m.SessionsInvalidatedTotal,
		m.SessionsSweptTotal,
		m.LoginsTotal,
		m.PolicyDenialsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// UpdateDBStats refreshes the database pool gauges
func (m *Metrics) UpdateDBStats(db *sql.DB) {
	if db == nil {
		return
	}
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
