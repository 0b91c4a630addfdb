// Package observability provides structured logging, Prometheus metrics,
// health probes and graceful shutdown for the portal services.
package observability
