// Package metrics holds the process-wide Prometheus collectors for the
// pipeline stages and the read API. Collectors register on the default
// registry and are served by the worker's /metrics endpoint.
//
//	start := time.Now()
//	stats, err := ingestSvc.Run(ctx)
//	metrics.RecordStage("ingest", err == nil, time.Since(start))
package metrics
