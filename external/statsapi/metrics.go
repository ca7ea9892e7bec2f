package statsapi

import (
	"context"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/riskibarqy/venue-insights/external/statsapi"

var digitsRegex = regexp.MustCompile(`\d+`)

type instruments struct {
	requests  metric.Int64Counter
	retries   metric.Int64Counter
	cacheHits metric.Int64Counter
	latencyMs metric.Float64Histogram
}

// newInstruments binds to the global meter provider. It returns nil when an
// instrument cannot be created; every record method is nil-safe.
func newInstruments() *instruments {
	meter := otel.GetMeterProvider().Meter(instrumentationName)

	requests, err := meter.Int64Counter("statsapi_requests_total",
		metric.WithDescription("provider requests by endpoint family and outcome"))
	if err != nil {
		return nil
	}
	retries, err := meter.Int64Counter("statsapi_retries_total")
	if err != nil {
		return nil
	}
	cacheHits, err := meter.Int64Counter("statsapi_cache_hits_total")
	if err != nil {
		return nil
	}
	latency, err := meter.Float64Histogram("statsapi_request_duration_ms")
	if err != nil {
		return nil
	}
	return &instruments{
		requests:  requests,
		retries:   retries,
		cacheHits: cacheHits,
		latencyMs: latency,
	}
}

func endpointFamily(endpoint string) string {
	return digitsRegex.ReplaceAllString(endpoint, "{id}")
}

func (i *instruments) recordRequest(ctx context.Context, endpoint, outcome string, took time.Duration) {
	if i == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpointFamily(endpoint)),
		attribute.String("outcome", outcome),
	)
	i.requests.Add(ctx, 1, attrs)
	i.latencyMs.Record(ctx, float64(took.Milliseconds()), attrs)
}

func (i *instruments) recordRetry(ctx context.Context, endpoint string) {
	if i == nil {
		return
	}
	i.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpointFamily(endpoint))))
}

func (i *instruments) recordCacheHit(ctx context.Context, endpoint string) {
	if i == nil {
		return
	}
	i.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpointFamily(endpoint))))
}
