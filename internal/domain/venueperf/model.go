package venueperf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// State is the engine lifecycle position recorded on every report.
type State string

const (
	StateResolving   State = "resolving"
	StateScanning    State = "scanning"
	StateCorrelating State = "correlating"
	StateFetching    State = "fetching"
	StateMerging     State = "merging"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

type Stage string

const (
	StageResolve     Stage = "resolve"
	StageSchedule    Stage = "schedule"
	StageCorrelate   Stage = "correlate"
	StageCareerStats Stage = "career_stats"
	StageSeasonStats Stage = "season_stats"
	StageSplits      Stage = "situational_split"
)

type ErrorKind string

const (
	KindEntityNotFound    ErrorKind = "entity_not_found"
	KindProviderTransient ErrorKind = "provider_transient"
	KindProviderFatal     ErrorKind = "provider_fatal"
	KindPartialDataGap    ErrorKind = "partial_data_gap"
	KindDeadlineExceeded  ErrorKind = "deadline_exceeded"
)

type StatGroup string

const (
	GroupHitting  StatGroup = "hitting"
	GroupPitching StatGroup = "pitching"
)

const (
	HalfInningTop    = "top"
	HalfInningBottom = "bottom"
	Unknown          = "unknown"
)

// Query is the inbound request for one venue performance report.
type Query struct {
	PlayerName         string `json:"player_name" validate:"required,max=120"`
	VenueName          string `json:"venue_name" validate:"required,max=120"`
	Seasons            []int  `json:"seasons" validate:"required,min=1,max=10,dive,gte=1901,lte=2100"`
	IncludePitchDetail bool   `json:"include_pitch_detail"`
}

// Normalized trims names and returns seasons sorted ascending without duplicates.
func (q Query) Normalized() Query {
	out := Query{
		PlayerName:         strings.TrimSpace(q.PlayerName),
		VenueName:          strings.TrimSpace(q.VenueName),
		IncludePitchDetail: q.IncludePitchDetail,
	}
	seen := make(map[int]struct{}, len(q.Seasons))
	for _, season := range q.Seasons {
		if _, ok := seen[season]; ok {
			continue
		}
		seen[season] = struct{}{}
		out.Seasons = append(out.Seasons, season)
	}
	sort.Ints(out.Seasons)
	return out
}

type CanonicalPlayer struct {
	ID              int64  `json:"id"`
	DisplayName     string `json:"display_name"`
	PrimaryPosition string `json:"primary_position"`
	CurrentTeamID   int64  `json:"current_team_id,omitempty"`
	CurrentTeamName string `json:"current_team_name,omitempty"`
}

// StatGroup is pitching for pitchers and hitting for everyone else.
func (p CanonicalPlayer) StatGroup() StatGroup {
	if strings.EqualFold(p.PrimaryPosition, "P") || strings.EqualFold(p.PrimaryPosition, "Pitcher") {
		return GroupPitching
	}
	return GroupHitting
}

type CanonicalVenue struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type GameReference struct {
	GameID       int64     `json:"game_id"`
	Date         string    `json:"date"`
	StartTime    time.Time `json:"start_time"`
	Season       int       `json:"season"`
	HomeTeamID   int64     `json:"home_team_id"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamID   int64     `json:"away_team_id"`
	AwayTeamName string    `json:"away_team_name"`
	VenueID      int64     `json:"venue_id"`
	Status       string    `json:"status"`
}

// Matchup renders "Away @ Home".
func (g GameReference) Matchup() string {
	return g.AwayTeamName + " @ " + g.HomeTeamName
}

type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PitchEvent struct {
	GameID      int64        `json:"game_id"`
	Season      int          `json:"season"`
	Inning      int          `json:"inning"`
	HalfInning  string       `json:"half_inning"`
	AtBatIndex  int          `json:"at_bat_index"`
	PitchNumber int          `json:"pitch_number"`
	SequenceNo  int          `json:"sequence_no"`
	BatterID    int64        `json:"batter_id"`
	PitcherID   int64        `json:"pitcher_id"`
	Outcome     string       `json:"outcome"`
	OutcomeCode string       `json:"outcome_code"`
	PitchType   string       `json:"pitch_type"`
	Balls       int          `json:"balls"`
	Strikes     int          `json:"strikes"`
	StartSpeed  *float64     `json:"start_speed,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type HitLocation struct {
	Coordinates
	LaunchSpeed *float64 `json:"launch_speed,omitempty"`
	Trajectory  string   `json:"trajectory"`
}

type PlateAppearanceEvent struct {
	GameID      int64        `json:"game_id"`
	Season      int          `json:"season"`
	Inning      int          `json:"inning"`
	HalfInning  string       `json:"half_inning"`
	AtBatIndex  int          `json:"at_bat_index"`
	BatterID    int64        `json:"batter_id"`
	PitcherID   int64        `json:"pitcher_id"`
	EventType   string       `json:"event_type"`
	Description string       `json:"description"`
	RBI         int          `json:"rbi"`
	RunsScored  int          `json:"runs_scored"`
	PitchCount  int          `json:"pitch_count"`
	HitLocation *HitLocation `json:"hit_location,omitempty"`
}

// SeasonStatBlock holds provider metrics for one (player, season, group[, split]).
// Season is zero for career blocks.
type SeasonStatBlock struct {
	PlayerID  int64     `json:"player_id"`
	Season    int       `json:"season,omitempty"`
	Group     StatGroup `json:"group"`
	SplitCode string    `json:"split_code,omitempty"`
	Metrics   Metrics   `json:"metrics"`
}

type SubQueryError struct {
	Stage     Stage     `json:"stage"`
	Kind      ErrorKind `json:"kind"`
	Season    int       `json:"season,omitempty"`
	GameID    int64     `json:"game_id,omitempty"`
	SplitCode string    `json:"split_code,omitempty"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e SubQueryError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Stage))
	if e.Season != 0 {
		b.WriteString(" season=")
		b.WriteString(strconv.Itoa(e.Season))
	}
	if e.GameID != 0 {
		b.WriteString(" game=")
		b.WriteString(strconv.FormatInt(e.GameID, 10))
	}
	if e.SplitCode != "" {
		b.WriteString(" split=")
		b.WriteString(e.SplitCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// GameSummary is the per-game roll-up shown next to each venue game.
type GameSummary struct {
	Correlated       bool `json:"correlated"`
	PlateAppearances int  `json:"plate_appearances"`
	Pitches          int  `json:"pitches"`
	Hits             int  `json:"hits"`
	HomeRuns         int  `json:"home_runs"`
	Strikeouts       int  `json:"strikeouts"`
	Walks            int  `json:"walks"`
	RBI              int  `json:"rbi"`
}

type VenueGame struct {
	GameReference
	Matchup string      `json:"matchup"`
	Summary GameSummary `json:"summary"`
}

type PerformanceSummary struct {
	SeasonsRequested     int     `json:"seasons_requested"`
	SeasonsScanned       int     `json:"seasons_scanned"`
	SeasonsWithData      []int   `json:"seasons_with_data"`
	TotalVenueGamesFound int     `json:"total_venue_games_found"`
	GamesSelected        int     `json:"games_selected_for_analysis"`
	TotalGamesAnalyzed   int     `json:"total_games_analyzed"`
	GamesWithAppearances int     `json:"games_with_appearances"`
	PlateAppearances     int     `json:"plate_appearances"`
	PitchesTracked       int     `json:"pitches_tracked"`
	Hits                 int     `json:"hits"`
	HomeRuns             int     `json:"home_runs"`
	Strikeouts           int     `json:"strikeouts"`
	Walks                int     `json:"walks"`
	RBI                  int     `json:"rbi"`
	RunsScored           int     `json:"runs_scored"`
	AtBats               int     `json:"at_bats"`
	BattingAverage       float64 `json:"batting_average"`
	HitLocationsTracked  int     `json:"hit_locations_tracked"`
	AnalysisDepth        string  `json:"analysis_depth"`
	Partial              bool    `json:"partial"`
	Message              string  `json:"message"`
}

type PitchLevelAnalysis struct {
	TotalPitchesTracked    int            `json:"total_pitches_tracked"`
	OutcomeBreakdown       map[string]int `json:"pitch_outcome_breakdown"`
	PitchTypeBreakdown     map[string]int `json:"pitch_type_breakdown"`
	AveragePitchesPerPA    float64        `json:"average_pitches_per_pa"`
	AverageVelocity        *float64       `json:"average_velocity,omitempty"`
	PitchesWithCoordinates int            `json:"pitches_with_coordinates"`
}

// Diagnostics carries per-query provider counters. It is not part of the
// serialized report so two runs over the same data stay byte-identical.
type Diagnostics struct {
	NetworkCalls int64
	CacheHits    int64
	Retries      int64
	Elapsed      time.Duration
}

type Report struct {
	State              State                              `json:"state"`
	Query              Query                              `json:"query"`
	Player             *CanonicalPlayer                   `json:"player,omitempty"`
	Venue              *CanonicalVenue                    `json:"venue,omitempty"`
	SeasonsAnalyzed    []int                              `json:"seasons_analyzed"`
	GamesAtVenue       []VenueGame                        `json:"games_at_venue"`
	PlateAppearances   []PlateAppearanceEvent             `json:"plate_appearances"`
	PitchEvents        []PitchEvent                       `json:"pitch_events"`
	SeasonStats        map[int]SeasonStatBlock            `json:"season_stats,omitempty"`
	CareerStats        *SeasonStatBlock                   `json:"career_stats,omitempty"`
	SituationalSplits  map[int]map[string]SeasonStatBlock `json:"situational_splits,omitempty"`
	PerformanceSummary *PerformanceSummary                `json:"performance_summary,omitempty"`
	PitchLevelAnalysis *PitchLevelAnalysis                `json:"pitch_level_analysis,omitempty"`
	Errors             []SubQueryError                    `json:"errors"`
	DataGaps           []SubQueryError                    `json:"data_gaps"`
	Diagnostics        Diagnostics                        `json:"-"`
}

// Key identifies a report by (player, venue, sorted seasons).
func (r Report) Key() string {
	if r.Player == nil || r.Venue == nil {
		return ""
	}
	return ReportKey(r.Player.ID, r.Venue.ID, r.SeasonsAnalyzed)
}

func ReportKey(playerID, venueID int64, seasons []int) string {
	sorted := append([]int(nil), seasons...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for _, season := range sorted {
		parts = append(parts, strconv.Itoa(season))
	}
	return fmt.Sprintf("%d:%d:%s", playerID, venueID, strings.Join(parts, ","))
}

// Partial reports whether any sub-query failed.
func (r Report) Partial() bool {
	return len(r.Errors) > 0
}
