package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// ScheduleScanner lists completed regular season games played at a venue.
type ScheduleScanner struct {
	gateway ProviderGateway
	logger  *logging.Logger
}

func NewScheduleScanner(gateway ProviderGateway, logger *logging.Logger) *ScheduleScanner {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScheduleScanner{
		gateway: gateway,
		logger:  logger.With("component", "schedule_scanner"),
	}
}

// GamesAtVenue scans one season. The result is deduplicated by game id and
// sorted chronologically. A failure is returned to the caller, who records
// it against the season and moves on.
func (s *ScheduleScanner) GamesAtVenue(ctx context.Context, venueID int64, season int) ([]venueperf.GameReference, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleScanner.GamesAtVenue",
		attribute.Int64("venue.id", venueID),
		attribute.Int("season", season),
	)
	defer span.End()

	var doc statsapi.ScheduleResponse
	if err := fetchDocument(ctx, s.gateway, statsapi.Schedule(season), &doc); err != nil {
		return nil, err
	}

	games := make([]venueperf.GameReference, 0)
	skipped := 0
	for _, day := range doc.Dates {
		for _, game := range day.Games {
			if game.GamePk == 0 || game.VenueID() != venueID {
				continue
			}
			if !game.IsFinal() {
				skipped++
				continue
			}
			home, away := game.Home(), game.Away()
			games = append(games, venueperf.GameReference{
				GameID:       game.GamePk,
				Date:         game.Day(day.Date),
				StartTime:    game.StartTime(),
				Season:       game.SeasonYear(season),
				HomeTeamID:   home.ID,
				HomeTeamName: teamName(home),
				AwayTeamID:   away.ID,
				AwayTeamName: teamName(away),
				VenueID:      venueID,
				Status:       game.State(),
			})
		}
	}

	games = venueperf.DedupGames(games)
	venueperf.SortGames(games)

	s.logger.DebugContext(ctx, "season scanned",
		"venue_id", venueID,
		"season", season,
		"games", len(games),
		"skipped_not_final", skipped,
	)
	return games, nil
}

// MergeSeasonGames combines per-season scans into one chronological list
// without duplicates.
func MergeSeasonGames(perSeason ...[]venueperf.GameReference) []venueperf.GameReference {
	total := 0
	for _, games := range perSeason {
		total += len(games)
	}
	merged := make([]venueperf.GameReference, 0, total)
	for _, games := range perSeason {
		merged = append(merged, games...)
	}
	merged = venueperf.DedupGames(merged)
	venueperf.SortGames(merged)
	return merged
}

func teamName(team statsapi.TeamRef) string {
	if name := strings.TrimSpace(team.Name); name != "" {
		return name
	}
	return venueperf.Unknown
}
