// Package tracing wraps the OpenTelemetry global tracer.
//
// Pipeline stages open spans with Start:
//
//	ctx, span := tracing.Start(ctx, "process.article", attribute.Int64("article_id", id))
//	defer span.End()
//
// No exporter is installed here; binaries that want traces register a
// TracerProvider with otel.SetTracerProvider before starting work.
package tracing
