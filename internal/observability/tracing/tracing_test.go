package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func attr(kvs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range kvs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartServer_ContinuesIncomingTrace(t *testing.T) {
	exporter := installRecorder(t)
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	_, span := StartServer(context.Background(), header, "GET /digest/today", attribute.String("http.method", http.MethodGet))
	EndServer(span, http.StatusOK)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	status, ok := attr(spans[0].Attributes, "http.status_code")
	require.True(t, ok)
	assert.Equal(t, int64(200), status.AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
}

func TestEndServer_StatusCodes(t *testing.T) {
	exporter := installRecorder(t)

	_, notFound := StartServer(context.Background(), http.Header{}, "GET /insights/today")
	EndServer(notFound, http.StatusNotFound)
	_, failed := StartServer(context.Background(), http.Header{}, "GET /health")
	EndServer(failed, http.StatusServiceUnavailable)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "HTTP 503", spans[1].Status.Description)
}

func TestStart_RecordError(t *testing.T) {
	exporter := installRecorder(t)

	_, span := Start(context.Background(), "process.article", attribute.Int64("article_id", 7))
	RecordError(span, nil)
	RecordError(span, errors.New("fetch failed"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "process.article", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Len(t, spans[0].Events, 1)
	id, ok := attr(spans[0].Attributes, "article_id")
	require.True(t, ok)
	assert.Equal(t, int64(7), id.AsInt64())
}
