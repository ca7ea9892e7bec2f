package logging

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
)

func TestNewJSONWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.With("component", "gateway").Info("fetch done", "endpoint", "schedule", "retries", 2)
	logger.Debug("dropped", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := sonic.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["msg"] != "fetch done" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["component"] != "gateway" || record["endpoint"] != "schedule" {
		t.Fatalf("missing fields: %v", record)
	}
	if record["retries"] != float64(2) {
		t.Fatalf("unexpected retries: %v", record["retries"])
	}
}

func TestMirrorReceivesMergedArgs(t *testing.T) {
	var (
		mu   sync.Mutex
		got  []any
		msgs []string
	)
	SetMirror(func(_ context.Context, _ Level, msg string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, msg)
		got = append(got, args...)
	})
	t.Cleanup(func() { SetMirror(nil) })

	var buf bytes.Buffer
	logger := New(Options{Level: LevelWarn, Output: &buf}).With("query", "q-1")
	logger.InfoContext(context.Background(), "below level")
	logger.WarnContext(context.Background(), "sub query failed", "stage", "schedule")

	mu.Lock()
	defer mu.Unlock()
	if len(msgs) != 1 || msgs[0] != "sub query failed" {
		t.Fatalf("unexpected mirrored messages: %v", msgs)
	}
	if len(got) != 4 || got[0] != "query" || got[3] != "schedule" {
		t.Fatalf("unexpected mirrored args: %v", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"WARNING": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q)=%v want %v", raw, got, want)
		}
	}
}
