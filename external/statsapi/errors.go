package statsapi

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"syscall"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/venue-insights/internal/platform/resilience"
)

var (
	// ErrTransient marks failures worth retrying: timeouts, 5xx, 429, resets.
	ErrTransient = crerr.New("statsapi transient failure")
	// ErrFatal marks failures that will not improve on retry: 4xx, malformed JSON,
	// oversized bodies.
	ErrFatal = crerr.New("statsapi fatal failure")
)

// StatusError carries a non-2xx provider response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status=%d endpoint=%s body=%s", e.Status, e.Endpoint, e.Body)
}

func IsTransient(err error) bool {
	return err != nil && crerr.Is(err, ErrTransient)
}

func IsFatal(err error) bool {
	return err != nil && crerr.Is(err, ErrFatal)
}

// StatusOf returns the provider status code carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if crerr.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

func isRetryableStatus(status int) bool {
	return status == 429 || status >= 500
}

func classifyStatus(endpoint string, status int, body []byte) error {
	statusErr := &StatusError{Endpoint: endpoint, Status: status, Body: abbreviateBody(body)}
	if isRetryableStatus(status) {
		return crerr.Mark(statusErr, ErrTransient)
	}
	return crerr.Mark(statusErr, ErrFatal)
}

// classifyTransportError marks network level failures. Context errors are
// returned unmarked so callers can tell a query deadline from a provider fault.
func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if IsFatal(err) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return crerr.Mark(crerr.Wrap(err, "provider request timed out"), ErrTransient)
	}

	var netErr net.Error
	switch {
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return crerr.Mark(crerr.Wrap(err, "provider request timed out"), ErrTransient)
	case stderrors.Is(err, syscall.ECONNRESET), stderrors.Is(err, syscall.ECONNREFUSED), stderrors.Is(err, syscall.EPIPE):
		return crerr.Mark(crerr.Wrap(err, "provider connection failed"), ErrTransient)
	case crerr.Is(err, resilience.ErrCircuitOpen):
		return crerr.Mark(err, ErrTransient)
	default:
		return crerr.Mark(crerr.Wrap(err, "provider request failed"), ErrTransient)
	}
}

func abbreviateBody(body []byte) string {
	text := string(body)
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
