package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// EntityNotFoundError names the entity a free-text query failed to resolve.
type EntityNotFoundError struct {
	Entity string
	Query  string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Query)
}

func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func playerNotFound(query string) error {
	return &EntityNotFoundError{Entity: "player", Query: query}
}

func venueNotFound(query string) error {
	return &EntityNotFoundError{Entity: "venue", Query: query}
}

// classifySubQuery maps a sub-query failure to its report record.
func classifySubQuery(err error) (kind venueperf.ErrorKind, retryable bool, message string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return venueperf.KindDeadlineExceeded, true, "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return venueperf.KindDeadlineExceeded, true, "query canceled"
	case errors.Is(err, ErrNotFound):
		return venueperf.KindEntityNotFound, false, err.Error()
	case statsapi.IsFatal(err):
		return venueperf.KindProviderFatal, false, err.Error()
	default:
		return venueperf.KindProviderTransient, true, err.Error()
	}
}

func newSubQueryError(stage venueperf.Stage, err error) venueperf.SubQueryError {
	kind, retryable, message := classifySubQuery(err)
	return venueperf.SubQueryError{
		Stage:     stage,
		Kind:      kind,
		Message:   message,
		Retryable: retryable,
	}
}
