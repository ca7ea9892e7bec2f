package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

const (
	analysisDepthPitch           = "pitch_level"
	analysisDepthPlateAppearance = "plate_appearance"
)

var (
	hitEvents = map[string]struct{}{
		"single":   {},
		"double":   {},
		"triple":   {},
		"home run": {},
	}
	strikeoutEvents = map[string]struct{}{
		"strikeout":             {},
		"strikeout double play": {},
		"strikeout triple play": {},
	}
	walkEvents = map[string]struct{}{
		"walk":        {},
		"intent walk": {},
	}
	// plate appearances that do not count as an at-bat
	nonAtBatEvents = map[string]struct{}{
		"walk":                 {},
		"intent walk":          {},
		"hit by pitch":         {},
		"sac fly":              {},
		"sac bunt":             {},
		"sac fly double play":  {},
		"sac bunt double play": {},
		"catcher interference": {},
	}
)

type outcomeTally struct {
	PlateAppearances int
	Pitches          int
	Hits             int
	HomeRuns         int
	Strikeouts       int
	Walks            int
	RBI              int
	RunsScored       int
	AtBats           int
	HitLocations     int
}

func tallyPlateAppearances(items []venueperf.PlateAppearanceEvent) outcomeTally {
	var tally outcomeTally
	for _, pa := range items {
		event := strings.ToLower(strings.TrimSpace(pa.EventType))
		tally.PlateAppearances++
		tally.Pitches += pa.PitchCount
		tally.RBI += pa.RBI
		tally.RunsScored += pa.RunsScored
		if _, ok := hitEvents[event]; ok {
			tally.Hits++
		}
		if event == "home run" {
			tally.HomeRuns++
		}
		if _, ok := strikeoutEvents[event]; ok {
			tally.Strikeouts++
		}
		if _, ok := walkEvents[event]; ok {
			tally.Walks++
		}
		if _, ok := nonAtBatEvents[event]; !ok && event != venueperf.Unknown {
			tally.AtBats++
		}
		if pa.HitLocation != nil {
			tally.HitLocations++
		}
	}
	return tally
}

func (t outcomeTally) gameSummary(correlated bool) venueperf.GameSummary {
	return venueperf.GameSummary{
		Correlated:       correlated,
		PlateAppearances: t.PlateAppearances,
		Pitches:          t.Pitches,
		Hits:             t.Hits,
		HomeRuns:         t.HomeRuns,
		Strikeouts:       t.Strikeouts,
		Walks:            t.Walks,
		RBI:              t.RBI,
	}
}

func (t outcomeTally) battingAverage() float64 {
	if t.AtBats == 0 {
		return 0
	}
	return roundTo(float64(t.Hits)/float64(t.AtBats), 3)
}

func buildPitchLevelAnalysis(pitches []venueperf.PitchEvent, plateAppearances int) *venueperf.PitchLevelAnalysis {
	analysis := &venueperf.PitchLevelAnalysis{
		TotalPitchesTracked: len(pitches),
		OutcomeBreakdown:    make(map[string]int),
		PitchTypeBreakdown:  make(map[string]int),
	}

	var (
		speedSum   float64
		speedCount int
	)
	for _, pitch := range pitches {
		analysis.OutcomeBreakdown[pitch.Outcome]++
		analysis.PitchTypeBreakdown[pitch.PitchType]++
		if pitch.StartSpeed != nil {
			speedSum += *pitch.StartSpeed
			speedCount++
		}
		if pitch.Coordinates != nil {
			analysis.PitchesWithCoordinates++
		}
	}
	if plateAppearances > 0 {
		analysis.AveragePitchesPerPA = roundTo(float64(len(pitches))/float64(plateAppearances), 2)
	}
	if speedCount > 0 {
		avg := roundTo(speedSum/float64(speedCount), 1)
		analysis.AverageVelocity = &avg
	}
	return analysis
}

// summaryMessage states what was analyzed against what was requested, e.g.
// "Aaron Judge at Dodger Stadium: analyzed 1 of 2 seasons and 1 of 2 games; ...".
func summaryMessage(player venueperf.CanonicalPlayer, venue venueperf.CanonicalVenue, seasons []int, summary venueperf.PerformanceSummary, failures int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s: analyzed %d of %d seasons and %d of %d games",
		player.DisplayName,
		venue.Name,
		summary.SeasonsScanned,
		summary.SeasonsRequested,
		summary.TotalGamesAnalyzed,
		summary.TotalVenueGamesFound,
	)
	if summary.TotalVenueGamesFound == 0 {
		fmt.Fprintf(&b, "; no completed games found for seasons %s", joinInts(seasons))
	} else {
		if summary.GamesSelected < summary.TotalVenueGamesFound {
			fmt.Fprintf(&b, " (most recent %d selected)", summary.GamesSelected)
		}
		fmt.Fprintf(&b, "; %s in %s",
			countOf(summary.PlateAppearances, "plate appearance", "plate appearances"),
			countOf(summary.GamesWithAppearances, "game", "games"),
		)
	}
	if failures > 0 {
		fmt.Fprintf(&b, "; %s failed", countOf(failures, "sub-query", "sub-queries"))
	}
	return b.String()
}

func countOf(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + plural
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
