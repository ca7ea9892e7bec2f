package statsapi

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodyBytes = 16 << 20

// Response is a raw provider reply.
type Response struct {
	Status     int
	Body       []byte
	RetryAfter time.Duration
}

// Transport performs one GET against the provider. It does not retry.
type Transport interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

type HTTPTransport struct {
	client  *http.Client
	maxBody int
}

// NewHTTPTransport wraps client (or a fresh one) with otel instrumentation.
func NewHTTPTransport(client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	if client.Timeout <= 0 {
		client.Timeout = timeout
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "statsapi " + r.Method
		}),
	)
	return &HTTPTransport{client: client, maxBody: maxBodyBytes}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(t.maxBody)+1))
	if err != nil {
		return Response{}, err
	}
	if len(body) > t.maxBody {
		return Response{}, errBodyTooLarge(t.maxBody)
	}
	return Response{
		Status:     resp.StatusCode,
		Body:       body,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

type FastHTTPTransport struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func NewFastHTTPTransport(timeout time.Duration) *FastHTTPTransport {
	return &FastHTTPTransport{
		client: &fasthttp.Client{
			Name:                "venue-insights",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodyBytes,
		},
		timeout: timeout,
	}
}

// Get runs the request on its own goroutine so a cancelled ctx returns
// immediately even when ctx has no deadline.
func (t *FastHTTPTransport) Get(ctx context.Context, rawURL string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	deadline := time.Now().Add(t.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := t.do(rawURL, deadline)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case res := <-done:
		return res.resp, res.err
	}
}

func (t *FastHTTPTransport) do(rawURL string, deadline time.Time) (Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if err := t.client.DoDeadline(req, resp, deadline); err != nil {
		if crerr.Is(err, fasthttp.ErrBodyTooLarge) {
			return Response{}, errBodyTooLarge(t.client.MaxResponseBodySize)
		}
		return Response{}, err
	}

	return Response{
		Status:     resp.StatusCode(),
		Body:       append([]byte(nil), resp.Body()...),
		RetryAfter: parseRetryAfter(string(resp.Header.Peek("Retry-After"))),
	}, nil
}

func errBodyTooLarge(limit int) error {
	return crerr.Mark(crerr.Newf("provider response too large: limit %d bytes", limit), ErrFatal)
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
