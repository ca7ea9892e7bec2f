package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

// ProviderGateway is the rate-limited, cached provider client shared by every
// component of a query.
type ProviderGateway interface {
	Fetch(ctx context.Context, endpoint string, params statsapi.Params, opts ...statsapi.FetchOption) ([]byte, error)
}

func fetchDocument(ctx context.Context, gateway ProviderGateway, req statsapi.Request, target any) error {
	raw, err := gateway.Fetch(ctx, req.Endpoint, req.Params, req.Options()...)
	if err != nil {
		return err
	}
	return statsapi.Decode(raw, target)
}

var queryValidator = validator.New(validator.WithRequiredStructEnabled())

func validateQuery(ctx context.Context, q venueperf.Query) error {
	if err := queryValidator.StructCtx(ctx, q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
