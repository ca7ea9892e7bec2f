package observability

import (
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

func TestIsQuietRequest(t *testing.T) {
	if !isQuietRequest("http_request", []any{"http_method", "GET", "http_path", "/healthz"}) {
		t.Fatalf("expected health check log to be quiet")
	}
	if isQuietRequest("http_request", []any{"http_path", "/v1/analytics/venue-performance"}) {
		t.Fatalf("did not expect analytics request to be quiet")
	}
	if isQuietRequest("statsapi fetch failed", []any{"http_path", "/healthz"}) {
		t.Fatalf("did not expect non-request event to be quiet")
	}
}

func TestLogAttributes(t *testing.T) {
	attrs := logAttributes([]any{"venue_id", 22, "stage", "schedule", "dangling"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "venue_id" || attrs[0].Value.AsInt64() != 22 {
		t.Fatalf("unexpected venue_id attribute: %v", attrs[0])
	}
	if attrs[1].Key != "stage" || attrs[1].Value.AsString() != "schedule" {
		t.Fatalf("unexpected stage attribute: %v", attrs[1])
	}
	if attrs[2].Key != "dangling" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected dangling attribute: %v", attrs[2])
	}
}

func TestLogValue_SeasonsAndMaps(t *testing.T) {
	seasons := logValue([]int{2023, 2024}, 0)
	if seasons.Kind() != otellog.KindSlice || len(seasons.AsSlice()) != 2 {
		t.Fatalf("expected 2-item slice, got %v", seasons)
	}

	m := logValue(map[string]any{"network_calls": int64(7), "cache_hits": int64(2)}, 0)
	if m.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", m.Kind())
	}
	items := m.AsMap()
	if len(items) != 2 || items[0].Key != "cache_hits" {
		t.Fatalf("expected sorted map keys, got %v", items)
	}

	var nilErr error
	if v := logValue(nilErr, 0); v.Kind() != otellog.KindEmpty {
		t.Fatalf("expected empty value for nil, got %s", v.Kind())
	}
}
