package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// EntityResolver turns free-text player and venue names into canonical ids.
type EntityResolver struct {
	gateway ProviderGateway
	logger  *logging.Logger
}

func NewEntityResolver(gateway ProviderGateway, logger *logging.Logger) *EntityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &EntityResolver{
		gateway: gateway,
		logger:  logger.With("component", "entity_resolver"),
	}
}

// ResolvePlayer returns the first search result whose name contains the query
// (case-insensitive). When none matches, the first raw result is used.
func (r *EntityResolver) ResolvePlayer(ctx context.Context, name string) (venueperf.CanonicalPlayer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.ResolvePlayer", attribute.String("player.query", name))
	defer span.End()

	query := strings.TrimSpace(name)
	if query == "" {
		return venueperf.CanonicalPlayer{}, playerNotFound(name)
	}

	var doc statsapi.PeopleSearchResponse
	if err := fetchDocument(ctx, r.gateway, statsapi.PeopleSearch(query), &doc); err != nil {
		return venueperf.CanonicalPlayer{}, err
	}
	if len(doc.People) == 0 {
		return venueperf.CanonicalPlayer{}, playerNotFound(query)
	}

	person, matched := firstMatch(query, doc.People, statsapi.Person.Name)
	if !matched {
		person = doc.People[0]
		r.logger.DebugContext(ctx, "no player name matched, using first result",
			"query", query,
			"candidate", person.Name(),
			"candidates", len(doc.People),
		)
	}

	team := person.Team()
	return venueperf.CanonicalPlayer{
		ID:              person.ID,
		DisplayName:     person.Name(),
		PrimaryPosition: person.PositionAbbreviation(),
		CurrentTeamID:   team.ID,
		CurrentTeamName: strings.TrimSpace(team.Name),
	}, nil
}

// ResolveVenue returns the first venue whose name contains the query
// (case-insensitive). There is no fallback for venues.
func (r *EntityResolver) ResolveVenue(ctx context.Context, name string) (venueperf.CanonicalVenue, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EntityResolver.ResolveVenue", attribute.String("venue.query", name))
	defer span.End()

	query := strings.TrimSpace(name)
	if query == "" {
		return venueperf.CanonicalVenue{}, venueNotFound(name)
	}

	var doc statsapi.VenuesResponse
	if err := fetchDocument(ctx, r.gateway, statsapi.Venues(), &doc); err != nil {
		return venueperf.CanonicalVenue{}, err
	}

	venue, matched := firstMatch(query, doc.Venues, func(v statsapi.Venue) string { return v.Name })
	if !matched {
		return venueperf.CanonicalVenue{}, venueNotFound(query)
	}

	return venueperf.CanonicalVenue{
		ID:    venue.ID,
		Name:  strings.TrimSpace(venue.Name),
		City:  venue.City(),
		State: venue.StateCode(),
	}, nil
}

// firstMatch keeps provider order: the first candidate containing query wins.
func firstMatch[T any](query string, items []T, name func(T) string) (T, bool) {
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, item := range items {
		if strings.Contains(strings.ToLower(name(item)), needle) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
