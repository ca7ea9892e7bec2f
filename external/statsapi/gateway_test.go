package statsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/riskibarqy/venue-insights/internal/platform/resilience"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, rateLimit int) (*Gateway, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	gw := NewGateway(Config{
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
		RateLimit: rateLimit,
		Backoff: resilience.BackoffConfig{
			MaxRetries: 2,
			Initial:    time.Millisecond,
			Max:        5 * time.Millisecond,
			Multiplier: 2,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
		Logger:         logging.NewNop(),
	})
	return gw, &hits
}

func TestGateway_CacheHitSkipsNetwork(t *testing.T) {
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"people":[]}`))
	}, 0)

	stats := &CallStats{}
	ctx := WithCallStats(context.Background(), stats)
	params := Params{"names": "Aaron Judge", "sportId": "1"}

	first, err := gw.Fetch(ctx, "people/search", params)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := gw.Fetch(ctx, "people/search", Params{"sportId": "1", "names": "Aaron Judge"})
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly one network call, got %d", got)
	}
	if string(first) != string(second) {
		t.Fatalf("cached body differs: %s vs %s", first, second)
	}
	if stats.NetworkCalls() != 1 || stats.CacheHits() != 1 {
		t.Fatalf("unexpected call stats calls=%d hits=%d", stats.NetworkCalls(), stats.CacheHits())
	}
}

func TestGateway_RetriesTransientAndCountsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gw, _ := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"dates":[]}`))
	}, 0)

	stats := &CallStats{}
	body, err := gw.Fetch(WithCallStats(context.Background(), stats), "schedule", Params{"sportId": "1"}, Expensive())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != `{"dates":[]}` {
		t.Fatalf("unexpected body %s", body)
	}
	if stats.Retries() != 1 || gw.Stats().Retries != 1 {
		t.Fatalf("expected one retry, call=%d gateway=%d", stats.Retries(), gw.Stats().Retries)
	}
}

func TestGateway_FatalStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Object not found"}`))
	}, 0)

	_, err := gw.Fetch(context.Background(), "game/1/playByPlay", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsFatal(err) || IsTransient(err) {
		t.Fatalf("expected fatal classification, got %v", err)
	}
	if StatusOf(err) != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", StatusOf(err))
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("fatal status must not be retried, got %d calls", got)
	}
}

func TestGateway_RateLimitedStatusIsTransient(t *testing.T) {
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, 0)

	_, err := gw.Fetch(context.Background(), "venues", Params{"sportId": "1"})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 1 attempt + 2 retries, got %d", got)
	}
	if gw.Stats().Failures != 1 {
		t.Fatalf("expected one recorded failure, got %d", gw.Stats().Failures)
	}
}

func TestGateway_MalformedJSONIsFatalAndNotCached(t *testing.T) {
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"allPlays":[`))
	}, 0)

	for i := 0; i < 2; i++ {
		_, err := gw.Fetch(context.Background(), "game/2/playByPlay", nil)
		if !IsFatal(err) {
			t.Fatalf("expected fatal error for malformed json, got %v", err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("malformed responses must not be cached, got %d calls", got)
	}
}

func TestGateway_ContextDeadlineIsReturnedUnmarked(t *testing.T) {
	t.Parallel()

	gw, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		_, _ = w.Write([]byte(`{}`))
	}, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := gw.Fetch(ctx, "schedule", Params{"season": "2024"})
	if err == nil {
		t.Fatalf("expected deadline error")
	}
	if err != context.DeadlineExceeded {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestGateway_SharedFetchOutlivesFirstCallerDeadline(t *testing.T) {
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"dates":[]}`))
	}, 0)
	params := Params{"season": "2024"}

	shortCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	shortErr := make(chan error, 1)
	go func() {
		_, err := gw.Fetch(shortCtx, "schedule", params)
		shortErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	stats := &CallStats{}
	body, err := gw.Fetch(WithCallStats(context.Background(), stats), "schedule", params)
	if err != nil {
		t.Fatalf("caller without deadline inherited another caller's error: %v", err)
	}
	if string(body) != `{"dates":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if stats.CacheHits() != 1 || stats.NetworkCalls() != 0 {
		t.Fatalf("joined fetch must count as a cache hit, hits=%d calls=%d", stats.CacheHits(), stats.NetworkCalls())
	}

	if err := <-shortErr; err != context.DeadlineExceeded {
		t.Fatalf("expected the short caller to hit its own deadline, got %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one shared network call, got %d", got)
	}
}

func TestGateway_ConcurrentCallsShareRateLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the limiter for several seconds")
	}
	t.Parallel()

	gw, hits := newTestGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}, 120)

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)
	started := time.Now()
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := gw.Fetch(context.Background(), "people/"+strconv.Itoa(i)+"/stats", Params{"stats": "career"}); err != nil {
				t.Errorf("fetch %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if elapsed := time.Since(started); elapsed < 4400*time.Millisecond {
		t.Fatalf("10 calls at 2/s finished in %s", elapsed)
	}
	if got := hits.Load(); got != callers {
		t.Fatalf("expected %d network calls, got %d", callers, got)
	}
}

func TestParamsCanonicalIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := Params{"names": "Shohei Ohtani", "sportId": "1"}
	b := Params{}
	b.Set("sportId", "1").Set("names", "Shohei Ohtani")

	if a.Canonical() != b.Canonical() {
		t.Fatalf("canonical forms differ: %q vs %q", a.Canonical(), b.Canonical())
	}
	if a.Canonical() != "names=Shohei+Ohtani&sportId=1" {
		t.Fatalf("unexpected canonical form %q", a.Canonical())
	}
	if cacheKey("schedule", nil) != "schedule?" {
		t.Fatalf("unexpected empty params key %q", cacheKey("schedule", nil))
	}
}
