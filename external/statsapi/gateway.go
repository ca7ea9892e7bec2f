package statsapi

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/venue-insights/internal/platform/cache"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/riskibarqy/venue-insights/internal/platform/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL      = "https://statsapi.mlb.com/api/v1"
	DefaultTimeout      = 30 * time.Second
	DefaultRateLimit    = 60
	DefaultCacheTTL     = 5 * time.Minute
	DefaultExpensiveTTL = 30 * time.Minute
)

type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimit      int // requests per minute across all callers; <= 0 disables limiting
	CacheTTL       time.Duration
	ExpensiveTTL   time.Duration
	Backoff        resilience.BackoffConfig
	CircuitBreaker resilience.CircuitBreakerConfig
	Transport      Transport
	Logger         *logging.Logger
}

// Stats is a snapshot of gateway-wide counters.
type Stats struct {
	NetworkCalls int64
	CacheHits    int64
	Retries      int64
	Failures     int64
}

// Gateway is the single entry point to the provider. It owns the process-wide
// rate limiter and response cache; both are safe for concurrent use.
type Gateway struct {
	baseURL      string
	transport    Transport
	limiter      *resilience.RateLimiter
	cache        *cache.Store[[]byte]
	cacheTTL     time.Duration
	expensiveTTL time.Duration
	backoff      resilience.BackoffConfig
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
	fetchBudget  time.Duration
	logger       *logging.Logger
	tracer       trace.Tracer
	metrics      *instruments

	networkCalls atomic.Int64
	cacheHits    atomic.Int64
	retries      atomic.Int64
	failures     atomic.Int64
}

func NewGateway(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "statsapi_gateway")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(nil, timeout)
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	expensiveTTL := cfg.ExpensiveTTL
	if expensiveTTL <= 0 {
		expensiveTTL = DefaultExpensiveTTL
	}

	backoff := resilience.NormalizeBackoffConfig(cfg.Backoff)
	// upper bound for one shared fetch: every attempt at full timeout plus
	// the longest backoff between them
	fetchBudget := time.Duration(backoff.MaxRetries+1)*timeout + time.Duration(backoff.MaxRetries)*backoff.Max

	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker)
	breaker.OnTransition(func(from, to resilience.CircuitState) {
		logger.Warn("statsapi circuit state changed", "from", string(from), "to", string(to))
	})

	return &Gateway{
		baseURL:      baseURL,
		transport:    transport,
		limiter:      resilience.NewRateLimiter(cfg.RateLimit),
		cache:        cache.NewStore[[]byte](cacheTTL),
		cacheTTL:     cacheTTL,
		expensiveTTL: expensiveTTL,
		backoff:      backoff,
		breaker:      breaker,
		fetchBudget:  fetchBudget,
		logger:       logger,
		tracer:       otel.Tracer(instrumentationName),
		metrics:      newInstruments(),
	}
}

type fetchOptions struct {
	ttl       time.Duration
	expensive bool
}

type FetchOption func(*fetchOptions)

// Expensive caches the response with the long TTL class.
func Expensive() FetchOption {
	return func(o *fetchOptions) { o.expensive = true }
}

// WithTTL overrides the cache TTL for one call.
func WithTTL(ttl time.Duration) FetchOption {
	return func(o *fetchOptions) { o.ttl = ttl }
}

// Fetch returns the JSON body for endpoint+params. Cached bodies are shared;
// callers must treat the returned slice as read-only. A caller that joins an
// in-flight request for the same key counts it as a cache hit.
func (g *Gateway) Fetch(ctx context.Context, endpoint string, params Params, opts ...FetchOption) ([]byte, error) {
	endpoint = strings.Trim(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, crerr.Mark(crerr.New("endpoint is required"), ErrFatal)
	}

	options := fetchOptions{ttl: g.cacheTTL}
	for _, opt := range opts {
		opt(&options)
	}
	if options.expensive && options.ttl == g.cacheTTL {
		options.ttl = g.expensiveTTL
	}

	stats := callStatsFrom(ctx)
	key := cacheKey(endpoint, params)
	if body, ok := g.cache.Get(ctx, key); ok {
		g.cacheHits.Add(1)
		stats.addCacheHit()
		g.metrics.recordCacheHit(ctx, endpoint)
		return body, nil
	}

	// The shared fetch is detached from any single caller so one query's
	// deadline or cancellation never fails the others joined on the key.
	// Each caller still stops waiting when its own ctx is done.
	results := make(chan flightResult, 1)
	go func() {
		var led bool
		body, _, err := g.flight.Do(key, func() ([]byte, error) {
			led = true
			if cached, ok := g.cache.Get(ctx, key); ok {
				return cached, nil
			}
			flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.fetchBudget)
			defer cancel()
			fetched, fetchErr := g.fetchWithRetry(flightCtx, endpoint, params)
			if fetchErr != nil {
				if isContextError(fetchErr) {
					fetchErr = crerr.Mark(crerr.Wrapf(fetchErr, "statsapi endpoint=%s exceeded fetch budget %s", endpoint, g.fetchBudget), ErrTransient)
				}
				return nil, fetchErr
			}
			g.cache.SetWithTTL(ctx, key, fetched, options.ttl)
			return fetched, nil
		})
		results <- flightResult{body: body, err: err, joined: !led}
	}()

	select {
	case <-ctx.Done():
		g.failures.Add(1)
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			g.failures.Add(1)
			return nil, res.err
		}
		if res.joined {
			g.cacheHits.Add(1)
			stats.addCacheHit()
			g.metrics.recordCacheHit(ctx, endpoint)
		}
		return res.body, nil
	}
}

type flightResult struct {
	body   []byte
	err    error
	joined bool
}

func isContextError(err error) bool {
	return crerr.Is(err, context.DeadlineExceeded) || crerr.Is(err, context.Canceled)
}

func (g *Gateway) fetchWithRetry(ctx context.Context, endpoint string, params Params) ([]byte, error) {
	ctx, span := g.tracer.Start(ctx, "statsapi.fetch", trace.WithAttributes(
		attribute.String("statsapi.endpoint", endpointFamily(endpoint)),
	))
	defer span.End()

	fullURL := g.baseURL + "/" + endpoint
	if query := params.Canonical(); query != "" {
		fullURL += "?" + query
	}

	stats := callStatsFrom(ctx)
	var lastErr error
	for attempt := 0; attempt <= g.backoff.MaxRetries; attempt++ {
		if attempt > 0 {
			g.retries.Add(1)
			stats.addRetry()
			g.metrics.recordRetry(ctx, endpoint)

			delay := g.backoff.Delay(attempt - 1)
			if retryAfter := retryAfterOf(lastErr); retryAfter > delay {
				delay = min(retryAfter, g.backoff.Max)
			}
			g.logger.WarnContext(ctx, "statsapi retrying request",
				"endpoint", endpoint,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			if err := resilience.Sleep(ctx, delay); err != nil {
				return nil, g.fail(span, err)
			}
		}

		body, err := g.attempt(ctx, endpoint, fullURL)
		if err == nil {
			span.SetAttributes(attribute.Int("statsapi.attempts", attempt+1))
			return body, nil
		}
		lastErr = err
		if !IsTransient(err) {
			break
		}
	}

	g.logger.WarnContext(ctx, "statsapi request failed",
		"endpoint", endpoint,
		"transient", IsTransient(lastErr),
		"error", lastErr,
	)
	return nil, g.fail(span, lastErr)
}

// attempt performs one rate-limited round trip and classifies the outcome.
func (g *Gateway) attempt(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	if err := g.breaker.Allow(); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "statsapi endpoint=%s", endpoint), ErrTransient)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		g.breaker.RecordSuccess()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// the limiter refuses waits that cannot finish before the deadline
		return nil, context.DeadlineExceeded
	}

	g.networkCalls.Add(1)
	callStatsFrom(ctx).addCall()
	started := time.Now()
	resp, err := g.transport.Get(ctx, fullURL)
	if err != nil {
		classified := classifyTransportError(ctx, err)
		if IsTransient(classified) {
			g.breaker.RecordFailure()
		} else {
			g.breaker.RecordSuccess()
		}
		g.metrics.recordRequest(ctx, endpoint, "transport_error", time.Since(started))
		return nil, classified
	}

	if resp.Status < 200 || resp.Status >= 300 {
		statusErr := classifyStatus(endpoint, resp.Status, resp.Body)
		if resp.Status >= 500 {
			g.breaker.RecordFailure()
		} else {
			g.breaker.RecordSuccess()
		}
		g.metrics.recordRequest(ctx, endpoint, "status_"+statusClass(resp.Status), time.Since(started))
		if resp.RetryAfter > 0 {
			statusErr = withRetryAfter(statusErr, resp.RetryAfter)
		}
		return nil, statusErr
	}

	g.breaker.RecordSuccess()
	if !sonic.Valid(resp.Body) {
		g.metrics.recordRequest(ctx, endpoint, "malformed", time.Since(started))
		return nil, crerr.Mark(crerr.Newf("malformed json from endpoint=%s body=%s", endpoint, abbreviateBody(resp.Body)), ErrFatal)
	}
	g.metrics.recordRequest(ctx, endpoint, "ok", time.Since(started))
	return resp.Body, nil
}

func (g *Gateway) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Stats returns gateway-wide counters since construction.
func (g *Gateway) Stats() Stats {
	return Stats{
		NetworkCalls: g.networkCalls.Load(),
		CacheHits:    g.cacheHits.Load(),
		Retries:      g.retries.Load(),
		Failures:     g.failures.Load(),
	}
}

// RunCacheJanitor evicts expired responses until ctx is done.
func (g *Gateway) RunCacheJanitor(ctx context.Context, interval time.Duration) {
	g.cache.RunJanitor(ctx, interval)
}

// Decode unmarshals a provider body. Decode failures are fatal.
func Decode(raw []byte, target any) error {
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Mark(crerr.Wrap(err, "decode provider document"), ErrFatal)
	}
	return nil
}

func statusClass(status int) string {
	switch {
	case status == 429:
		return "429"
	case status >= 500:
		return "5xx"
	default:
		return "4xx"
	}
}

type retryAfterError struct {
	error
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.error }

func withRetryAfter(err error, after time.Duration) error {
	return &retryAfterError{error: err, after: after}
}

func retryAfterOf(err error) time.Duration {
	var ra *retryAfterError
	if crerr.As(err, &ra) {
		return ra.after
	}
	return 0
}
