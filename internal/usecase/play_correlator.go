package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// PlayCorrelator extracts one batter's plate appearances and pitches from a
// game's play-by-play feed.
type PlayCorrelator struct {
	gateway ProviderGateway
	logger  *logging.Logger
}

func NewPlayCorrelator(gateway ProviderGateway, logger *logging.Logger) *PlayCorrelator {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayCorrelator{
		gateway: gateway,
		logger:  logger.With("component", "play_correlator"),
	}
}

// DataGapCounts tallies fields the feed left out for the correlated batter.
type DataGapCounts struct {
	PitchesWithoutCoordinates int
	PitchesWithoutVelocity    int
	PitchesWithoutType        int
	PlaysWithoutInning        int
}

func (c DataGapCounts) Total() int {
	return c.PitchesWithoutCoordinates + c.PitchesWithoutVelocity + c.PitchesWithoutType + c.PlaysWithoutInning
}

// Describe renders the non-zero counters in a fixed order.
func (c DataGapCounts) Describe() string {
	parts := make([]string, 0, 4)
	if c.PitchesWithoutCoordinates > 0 {
		parts = append(parts, fmt.Sprintf("%d pitches without coordinates", c.PitchesWithoutCoordinates))
	}
	if c.PitchesWithoutVelocity > 0 {
		parts = append(parts, fmt.Sprintf("%d pitches without velocity", c.PitchesWithoutVelocity))
	}
	if c.PitchesWithoutType > 0 {
		parts = append(parts, fmt.Sprintf("%d pitches without pitch type", c.PitchesWithoutType))
	}
	if c.PlaysWithoutInning > 0 {
		parts = append(parts, fmt.Sprintf("%d plays without inning", c.PlaysWithoutInning))
	}
	return strings.Join(parts, ", ")
}

type CorrelationResult struct {
	GameID           int64
	PlateAppearances []venueperf.PlateAppearanceEvent
	Pitches          []venueperf.PitchEvent
	Gaps             DataGapCounts
}

// Correlate keeps the plays whose batter is playerID. Missing optional
// fields become explicit "unknown" or zero values and are counted as gaps.
// Pitch sequence numbers are game-wide, so they stay stable whatever batter
// is selected.
func (c *PlayCorrelator) Correlate(ctx context.Context, game venueperf.GameReference, playerID int64) (CorrelationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayCorrelator.Correlate",
		attribute.Int64("game.id", game.GameID),
		attribute.Int64("player.id", playerID),
	)
	defer span.End()

	var doc statsapi.PlayByPlayResponse
	if err := fetchDocument(ctx, c.gateway, statsapi.PlayByPlay(game.GameID), &doc); err != nil {
		return CorrelationResult{}, err
	}

	result := CorrelationResult{
		GameID:           game.GameID,
		PlateAppearances: make([]venueperf.PlateAppearanceEvent, 0),
		Pitches:          make([]venueperf.PitchEvent, 0),
	}

	sequence := 0
	for playIndex, play := range doc.Plays() {
		if play.About != nil && play.About.IsComplete != nil && !*play.About.IsComplete {
			continue
		}
		batterID := play.BatterID()
		if batterID != playerID {
			sequence += countPitches(play.PlayEvents)
			continue
		}

		pa := venueperf.PlateAppearanceEvent{
			GameID:      game.GameID,
			Season:      game.Season,
			Inning:      play.Inning(),
			HalfInning:  play.HalfInning(),
			AtBatIndex:  play.AtBatIndex(playIndex),
			BatterID:    batterID,
			PitcherID:   play.PitcherID(),
			EventType:   play.EventType(),
			Description: play.Description(),
			RBI:         play.RBI(),
			RunsScored:  play.RunsScored(),
		}
		if pa.Inning == 0 || pa.HalfInning == venueperf.Unknown {
			result.Gaps.PlaysWithoutInning++
		}

		ordinal := 0
		for _, event := range play.PlayEvents {
			if loc := hitLocationOf(event); loc != nil {
				pa.HitLocation = loc
			}
			if !event.IsPitch {
				continue
			}
			ordinal++
			sequence++
			pitch := venueperf.PitchEvent{
				GameID:      game.GameID,
				Season:      game.Season,
				Inning:      pa.Inning,
				HalfInning:  pa.HalfInning,
				AtBatIndex:  pa.AtBatIndex,
				PitchNumber: event.Number(ordinal),
				SequenceNo:  sequence,
				BatterID:    batterID,
				PitcherID:   pa.PitcherID,
				Outcome:     event.Outcome(),
				OutcomeCode: event.OutcomeCode(),
				PitchType:   event.PitchType(),
				Balls:       event.Balls(),
				Strikes:     event.Strikes(),
			}
			if speed, ok := event.StartSpeed(); ok {
				pitch.StartSpeed = &speed
			} else {
				result.Gaps.PitchesWithoutVelocity++
			}
			if x, y, ok := event.Location(); ok {
				pitch.Coordinates = &venueperf.Coordinates{X: x, Y: y}
			} else {
				result.Gaps.PitchesWithoutCoordinates++
			}
			if pitch.PitchType == venueperf.Unknown {
				result.Gaps.PitchesWithoutType++
			}
			result.Pitches = append(result.Pitches, pitch)
		}
		pa.PitchCount = ordinal
		result.PlateAppearances = append(result.PlateAppearances, pa)
	}

	if result.Gaps.Total() > 0 {
		c.logger.DebugContext(ctx, "play feed has gaps",
			"game_id", game.GameID,
			"gaps", result.Gaps.Describe(),
		)
	}
	return result, nil
}

func countPitches(events []statsapi.PlayEvent) int {
	n := 0
	for _, event := range events {
		if event.IsPitch {
			n++
		}
	}
	return n
}

func hitLocationOf(event statsapi.PlayEvent) *venueperf.HitLocation {
	x, y, ok := event.HitLocation()
	if !ok {
		return nil
	}
	loc := &venueperf.HitLocation{
		Coordinates: venueperf.Coordinates{X: x, Y: y},
		Trajectory:  venueperf.Unknown,
	}
	if event.HitData.LaunchSpeed != nil {
		speed := *event.HitData.LaunchSpeed
		loc.LaunchSpeed = &speed
	}
	if trajectory := strings.TrimSpace(event.HitData.Trajectory); trajectory != "" {
		loc.Trajectory = trajectory
	}
	return loc
}
