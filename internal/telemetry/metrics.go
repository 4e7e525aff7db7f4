package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter   metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	ChunksIngested   metric.Int64Counter
	ChunksRetrieved  metric.Int64Counter
	PipelineFallback metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("mini-rag-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIngested, err := meter.Int64Counter(
		"rag.chunks.ingested",
		metric.WithDescription("Total chunks written to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	chunksRetrieved, err := meter.Int64Counter(
		"rag.chunks.retrieved",
		metric.WithDescription("Total chunks returned by retrieval"),
	)
	if err != nil {
		return nil, err
	}

	pipelineFallback, err := meter.Int64Counter(
		"rag.pipeline.fallbacks",
		metric.WithDescription("Degraded-but-usable results served from fallbacks"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:   requestCounter,
		RequestDuration:  requestDuration,
		ChunksIngested:   chunksIngested,
		ChunksRetrieved:  chunksRetrieved,
		PipelineFallback: pipelineFallback,
	}, nil
}

// RecordRequest records a completed HTTP request
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}

// RecordIngest records chunks written during one ingest call
func (m *Metrics) RecordIngest(count int) {
	m.ChunksIngested.Add(context.Background(), int64(count))
}

// RecordRetrieval records chunks returned by one retrieval call
func (m *Metrics) RecordRetrieval(count int) {
	m.ChunksRetrieved.Add(context.Background(), int64(count))
}

// RecordFallback records a recovered degradation in the named component
func (m *Metrics) RecordFallback(component string) {
	m.PipelineFallback.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("component", component)))
}
