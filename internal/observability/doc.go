// Package observability groups the logging, metrics and tracing helpers
// shared by the worker, the CLI and the read API.
//
// Subpackages:
//   - logging: slog construction, context carriage and run ids
//   - metrics: Prometheus collectors for the pipeline stages
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
