// Package observability provides structured logging, Prometheus metrics,
// health probes, OpenTelemetry tracing and graceful shutdown for the
// gatehouse service.
//
// The logger is a thin wrapper over slog emitting JSON lines. Metrics are
// registered on a caller-supplied registry so tests can use an isolated one.
// Health checks cover the user database and the redis session store; redis
// is reported as degraded rather than unhealthy because the in-memory
// session store can serve as a fallback.
package observability
