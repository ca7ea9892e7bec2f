package statsapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Provider documents. Optional members are pointers and every accessor
// documents the value it returns when the member is absent.

const unknown = "unknown"

type PersonRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CodeDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type Position struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Abbreviation string `json:"abbreviation"`
}

type PeopleSearchResponse struct {
	People []Person `json:"people"`
}

type Person struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"fullName"`
	PrimaryPosition *Position `json:"primaryPosition"`
	CurrentTeam     *TeamRef  `json:"currentTeam"`
	Active          *bool     `json:"active"`
}

// Name is the trimmed full name, "unknown" when blank.
func (p Person) Name() string {
	return orUnknown(p.FullName)
}

// PositionAbbreviation is the primary position abbreviation ("P", "RF"), "unknown" when absent.
func (p Person) PositionAbbreviation() string {
	if p.PrimaryPosition == nil {
		return unknown
	}
	return orUnknown(firstNonEmpty(p.PrimaryPosition.Abbreviation, p.PrimaryPosition.Code))
}

// Team returns the current team, zero value when absent.
func (p Person) Team() TeamRef {
	if p.CurrentTeam == nil {
		return TeamRef{}
	}
	return *p.CurrentTeam
}

type VenuesResponse struct {
	Venues []Venue `json:"venues"`
}

type Venue struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location"`
}

type Location struct {
	City        string `json:"city"`
	State       string `json:"state"`
	StateAbbrev string `json:"stateAbbrev"`
}

// City is "unknown" when the venue has no location block.
func (v Venue) City() string {
	if v.Location == nil {
		return unknown
	}
	return orUnknown(v.Location.City)
}

// StateCode prefers the abbreviation, then the full state name, then "unknown".
func (v Venue) StateCode() string {
	if v.Location == nil {
		return unknown
	}
	return orUnknown(firstNonEmpty(v.Location.StateAbbrev, v.Location.State))
}

type ScheduleResponse struct {
	Dates []ScheduleDate `json:"dates"`
}

type ScheduleDate struct {
	Date  string         `json:"date"`
	Games []ScheduleGame `json:"games"`
}

type ScheduleGame struct {
	GamePk       int64       `json:"gamePk"`
	GameDate     string      `json:"gameDate"`
	OfficialDate string      `json:"officialDate"`
	Season       string      `json:"season"`
	GameType     string      `json:"gameType"`
	Status       *GameStatus `json:"status"`
	Teams        *GameTeams  `json:"teams"`
	Venue        *TeamRef    `json:"venue"`
}

type GameStatus struct {
	AbstractGameState string `json:"abstractGameState"`
	DetailedState     string `json:"detailedState"`
	CodedGameState    string `json:"codedGameState"`
}

type GameTeams struct {
	Home *GameTeam `json:"home"`
	Away *GameTeam `json:"away"`
}

type GameTeam struct {
	Team *TeamRef `json:"team"`
}

// VenueID is 0 when the game has no venue block.
func (g ScheduleGame) VenueID() int64 {
	if g.Venue == nil {
		return 0
	}
	return g.Venue.ID
}

// StartTime parses gameDate; zero time when absent or malformed.
func (g ScheduleGame) StartTime() time.Time {
	raw := strings.TrimSpace(g.GameDate)
	if raw == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC()
	}
	return time.Time{}
}

// Day is the official date, falling back to the schedule day and then to the
// date part of gameDate.
func (g ScheduleGame) Day(scheduleDay string) string {
	if day := strings.TrimSpace(g.OfficialDate); day != "" {
		return day
	}
	if day := strings.TrimSpace(scheduleDay); day != "" {
		return day
	}
	if start := g.StartTime(); !start.IsZero() {
		return start.Format(time.DateOnly)
	}
	return unknown
}

// SeasonYear parses the season string, returning fallback when absent.
func (g ScheduleGame) SeasonYear(fallback int) int {
	if season, err := strconv.Atoi(strings.TrimSpace(g.Season)); err == nil && season > 0 {
		return season
	}
	return fallback
}

// State is the abstract game state ("Final", "Live", "Preview"), "unknown" when absent.
func (g ScheduleGame) State() string {
	if g.Status == nil {
		return unknown
	}
	return orUnknown(g.Status.AbstractGameState)
}

// IsFinal is true when the status says Final or the status block is missing.
func (g ScheduleGame) IsFinal() bool {
	state := g.State()
	return state == unknown || strings.EqualFold(state, "Final")
}

func (g ScheduleGame) Home() TeamRef {
	if g.Teams == nil || g.Teams.Home == nil || g.Teams.Home.Team == nil {
		return TeamRef{Name: unknown}
	}
	return *g.Teams.Home.Team
}

func (g ScheduleGame) Away() TeamRef {
	if g.Teams == nil || g.Teams.Away == nil || g.Teams.Away.Team == nil {
		return TeamRef{Name: unknown}
	}
	return *g.Teams.Away.Team
}

// PlayByPlayResponse accepts both the bare playByPlay document and the live
// feed shape that nests plays under liveData.
type PlayByPlayResponse struct {
	AllPlays []Play    `json:"allPlays"`
	LiveData *LiveData `json:"liveData"`
}

type LiveData struct {
	Plays *struct {
		AllPlays []Play `json:"allPlays"`
	} `json:"plays"`
}

func (r PlayByPlayResponse) Plays() []Play {
	if len(r.AllPlays) > 0 {
		return r.AllPlays
	}
	if r.LiveData != nil && r.LiveData.Plays != nil {
		return r.LiveData.Plays.AllPlays
	}
	return nil
}

type Play struct {
	Result     *PlayResult `json:"result"`
	About      *PlayAbout  `json:"about"`
	Matchup    *Matchup    `json:"matchup"`
	PlayEvents []PlayEvent `json:"playEvents"`
	Runners    []Runner    `json:"runners"`
}

type PlayResult struct {
	Type        string `json:"type"`
	Event       string `json:"event"`
	EventType   string `json:"eventType"`
	Description string `json:"description"`
	RBI         *int   `json:"rbi"`
}

type PlayAbout struct {
	AtBatIndex *int   `json:"atBatIndex"`
	HalfInning string `json:"halfInning"`
	Inning     *int   `json:"inning"`
	IsComplete *bool  `json:"isComplete"`
}

type Matchup struct {
	Batter  *PersonRef `json:"batter"`
	Pitcher *PersonRef `json:"pitcher"`
}

type Runner struct {
	Movement *RunnerMovement `json:"movement"`
	Details  *RunnerDetails  `json:"details"`
}

type RunnerMovement struct {
	Start string `json:"start"`
	End   string `json:"end"`
	IsOut *bool  `json:"isOut"`
}

type RunnerDetails struct {
	Runner         *PersonRef `json:"runner"`
	IsScoringEvent *bool      `json:"isScoringEvent"`
}

// BatterID is 0 when the matchup is missing.
func (p Play) BatterID() int64 {
	if p.Matchup == nil || p.Matchup.Batter == nil {
		return 0
	}
	return p.Matchup.Batter.ID
}

// PitcherID is 0 when the matchup is missing.
func (p Play) PitcherID() int64 {
	if p.Matchup == nil || p.Matchup.Pitcher == nil {
		return 0
	}
	return p.Matchup.Pitcher.ID
}

// Inning is 0 when unknown.
func (p Play) Inning() int {
	if p.About == nil || p.About.Inning == nil {
		return 0
	}
	return *p.About.Inning
}

// HalfInning is "top", "bottom" or "unknown".
func (p Play) HalfInning() string {
	if p.About == nil {
		return unknown
	}
	switch half := strings.ToLower(strings.TrimSpace(p.About.HalfInning)); half {
	case "top", "bottom":
		return half
	default:
		return unknown
	}
}

// AtBatIndex returns fallback when the provider omitted the index.
func (p Play) AtBatIndex(fallback int) int {
	if p.About == nil || p.About.AtBatIndex == nil {
		return fallback
	}
	return *p.About.AtBatIndex
}

// EventType is the result event ("Home Run", "Strikeout"), "unknown" when absent.
func (p Play) EventType() string {
	if p.Result == nil {
		return unknown
	}
	return orUnknown(p.Result.Event)
}

// Description is empty when absent.
func (p Play) Description() string {
	if p.Result == nil {
		return ""
	}
	return strings.TrimSpace(p.Result.Description)
}

// RBI is 0 when absent.
func (p Play) RBI() int {
	if p.Result == nil || p.Result.RBI == nil {
		return 0
	}
	return *p.Result.RBI
}

// RunsScored counts distinct runners whose movement ends at home plate.
func (p Play) RunsScored() int {
	seen := make(map[int64]struct{}, len(p.Runners))
	anonymous := 0
	for _, runner := range p.Runners {
		scored := runner.Movement != nil && strings.EqualFold(runner.Movement.End, "score")
		if !scored && runner.Details != nil && runner.Details.IsScoringEvent != nil {
			scored = *runner.Details.IsScoringEvent
		}
		if !scored {
			continue
		}
		if runner.Details == nil || runner.Details.Runner == nil || runner.Details.Runner.ID == 0 {
			anonymous++
			continue
		}
		seen[runner.Details.Runner.ID] = struct{}{}
	}
	return len(seen) + anonymous
}

type PlayEvent struct {
	Index       *int          `json:"index"`
	IsPitch     bool          `json:"isPitch"`
	PitchNumber *int          `json:"pitchNumber"`
	Type        string        `json:"type"`
	Details     *EventDetails `json:"details"`
	Count       *Count        `json:"count"`
	PitchData   *PitchData    `json:"pitchData"`
	HitData     *HitData      `json:"hitData"`
}

type EventDetails struct {
	Description string           `json:"description"`
	Code        string           `json:"code"`
	Call        *CodeDescription `json:"call"`
	Type        *CodeDescription `json:"type"`
	IsInPlay    *bool            `json:"isInPlay"`
}

type Count struct {
	Balls   *int `json:"balls"`
	Strikes *int `json:"strikes"`
	Outs    *int `json:"outs"`
}

type PitchData struct {
	StartSpeed  *float64          `json:"startSpeed"`
	Coordinates *PitchCoordinates `json:"coordinates"`
}

type PitchCoordinates struct {
	X  *float64 `json:"x"`
	Y  *float64 `json:"y"`
	PX *float64 `json:"pX"`
	PZ *float64 `json:"pZ"`
}

type HitData struct {
	LaunchSpeed *float64        `json:"launchSpeed"`
	Trajectory  string          `json:"trajectory"`
	Coordinates *HitCoordinates `json:"coordinates"`
}

type HitCoordinates struct {
	CoordX *float64 `json:"coordX"`
	CoordY *float64 `json:"coordY"`
}

// Number is the pitch number within the plate appearance, fallback when absent.
func (e PlayEvent) Number(fallback int) int {
	if e.PitchNumber == nil {
		return fallback
	}
	return *e.PitchNumber
}

// Outcome prefers the call description, then the event description, then "unknown".
func (e PlayEvent) Outcome() string {
	if e.Details == nil {
		return unknown
	}
	if e.Details.Call != nil && strings.TrimSpace(e.Details.Call.Description) != "" {
		return strings.TrimSpace(e.Details.Call.Description)
	}
	return orUnknown(e.Details.Description)
}

// OutcomeCode prefers the call code, then the details code, then "unknown".
func (e PlayEvent) OutcomeCode() string {
	if e.Details == nil {
		return unknown
	}
	if e.Details.Call != nil && strings.TrimSpace(e.Details.Call.Code) != "" {
		return strings.TrimSpace(e.Details.Call.Code)
	}
	return orUnknown(e.Details.Code)
}

// PitchType is the pitch type description ("Four-Seam Fastball"), "unknown" when absent.
func (e PlayEvent) PitchType() string {
	if e.Details == nil || e.Details.Type == nil {
		return unknown
	}
	return orUnknown(firstNonEmpty(e.Details.Type.Description, e.Details.Type.Code))
}

// Balls and Strikes are 0 when the count block is absent.
func (e PlayEvent) Balls() int {
	if e.Count == nil || e.Count.Balls == nil {
		return 0
	}
	return *e.Count.Balls
}

func (e PlayEvent) Strikes() int {
	if e.Count == nil || e.Count.Strikes == nil {
		return 0
	}
	return *e.Count.Strikes
}

// StartSpeed reports ok=false when velocity was not tracked.
func (e PlayEvent) StartSpeed() (float64, bool) {
	if e.PitchData == nil || e.PitchData.StartSpeed == nil {
		return 0, false
	}
	return *e.PitchData.StartSpeed, true
}

// Location reports ok=false unless both plate coordinates are present.
func (e PlayEvent) Location() (x, y float64, ok bool) {
	if e.PitchData == nil || e.PitchData.Coordinates == nil {
		return 0, 0, false
	}
	c := e.PitchData.Coordinates
	if c.X == nil || c.Y == nil {
		return 0, 0, false
	}
	return *c.X, *c.Y, true
}

// HitLocation reports ok=false unless the event has batted-ball coordinates.
func (e PlayEvent) HitLocation() (x, y float64, ok bool) {
	if e.HitData == nil || e.HitData.Coordinates == nil {
		return 0, 0, false
	}
	c := e.HitData.Coordinates
	if c.CoordX == nil || c.CoordY == nil {
		return 0, 0, false
	}
	return *c.CoordX, *c.CoordY, true
}

type StatsResponse struct {
	Stats []StatsEntry `json:"stats"`
}

type StatsEntry struct {
	Type   *DisplayName `json:"type"`
	Group  *DisplayName `json:"group"`
	Splits []StatSplit  `json:"splits"`
}

type DisplayName struct {
	DisplayName string `json:"displayName"`
}

type StatSplit struct {
	Season string           `json:"season"`
	Split  *CodeDescription `json:"split"`
	Stat   json.RawMessage  `json:"stat"`
}

// FirstSplit returns the first split of the first entry matching group
// (any group when blank). ok=false when the provider returned no splits.
func (r StatsResponse) FirstSplit(group string) (StatSplit, bool) {
	for _, entry := range r.Stats {
		if group != "" && entry.Group != nil && !strings.EqualFold(entry.Group.DisplayName, group) {
			continue
		}
		if len(entry.Splits) > 0 {
			return entry.Splits[0], true
		}
	}
	return StatSplit{}, false
}

func orUnknown(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return unknown
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
