package usecase

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/venue-insights/external/statsapi"
)

// fixtureGateway answers from canned documents keyed by endpoint and
// canonical params. Unknown requests fail with a fatal 404.
type fixtureGateway struct {
	mu       sync.Mutex
	bodies   map[string][]byte
	failures map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
}

func newFixtureGateway() *fixtureGateway {
	return &fixtureGateway{
		bodies:   make(map[string][]byte),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
	}
}

func (g *fixtureGateway) respond(req statsapi.Request, body string) *fixtureGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bodies[req.String()] = []byte(body)
	return g
}

func (g *fixtureGateway) fail(req statsapi.Request, err error) *fixtureGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[req.String()] = err
	return g
}

func (g *fixtureGateway) delay(req statsapi.Request, d time.Duration) *fixtureGateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delays[req.String()] = d
	return g
}

func (g *fixtureGateway) Fetch(ctx context.Context, endpoint string, params statsapi.Params, _ ...statsapi.FetchOption) ([]byte, error) {
	key := statsapi.Request{Endpoint: endpoint, Params: params}.String()

	g.mu.Lock()
	g.calls[key]++
	body, hasBody := g.bodies[key]
	failure := g.failures[key]
	wait := g.delays[key]
	g.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return nil, failure
	}
	if !hasBody {
		return nil, crerr.Mark(&statsapi.StatusError{Endpoint: endpoint, Status: 404}, statsapi.ErrFatal)
	}
	return append([]byte(nil), body...), nil
}

func (g *fixtureGateway) callCount(req statsapi.Request) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[req.String()]
}

func transientFailure(endpoint string) error {
	return crerr.Mark(&statsapi.StatusError{Endpoint: endpoint, Status: 503, Body: "upstream unavailable"}, statsapi.ErrTransient)
}

func fatalFailure(endpoint string) error {
	return crerr.Mark(&statsapi.StatusError{Endpoint: endpoint, Status: 400, Body: "bad request"}, statsapi.ErrFatal)
}

const (
	judgeID          int64 = 592450
	dodgerStadiumID  int64 = 22
	dodgersGame2023  int64 = 717500
	dodgersGame2024  int64 = 745600
	yankeeGame2023   int64 = 717400
	dodgersPreview24 int64 = 745601
)

const peopleSearchJudge = `{"people":[{"id":592450,"fullName":"Aaron Judge","primaryPosition":{"code":"9","abbreviation":"RF"},"currentTeam":{"id":147,"name":"New York Yankees"},"active":true}]}`

const venuesList = `{"venues":[
	{"id":1,"name":"Angel Stadium","location":{"city":"Anaheim","stateAbbrev":"CA"}},
	{"id":22,"name":"Dodger Stadium","location":{"city":"Los Angeles","state":"California","stateAbbrev":"CA"}},
	{"id":3313,"name":"Yankee Stadium","location":{"city":"Bronx","stateAbbrev":"NY"}}
]}`

const schedule2023 = `{"dates":[
	{"date":"2023-06-02","games":[
		{"gamePk":717400,"gameDate":"2023-06-02T23:05:00Z","officialDate":"2023-06-02","season":"2023","gameType":"R",
		 "status":{"abstractGameState":"Final"},
		 "teams":{"home":{"team":{"id":147,"name":"New York Yankees"}},"away":{"team":{"id":142,"name":"Minnesota Twins"}}},
		 "venue":{"id":3313,"name":"Yankee Stadium"}}
	]},
	{"date":"2023-06-03","games":[
		{"gamePk":717500,"gameDate":"2023-06-04T02:10:00Z","officialDate":"2023-06-03","season":"2023","gameType":"R",
		 "status":{"abstractGameState":"Final"},
		 "teams":{"home":{"team":{"id":119,"name":"Los Angeles Dodgers"}},"away":{"team":{"id":147,"name":"New York Yankees"}}},
		 "venue":{"id":22,"name":"Dodger Stadium"}}
	]}
]}`

const schedule2024 = `{"dates":[
	{"date":"2024-06-01","games":[
		{"gamePk":745600,"gameDate":"2024-06-02T02:10:00Z","officialDate":"2024-06-01","season":"2024","gameType":"R",
		 "status":{"abstractGameState":"Final"},
		 "teams":{"home":{"team":{"id":119,"name":"Los Angeles Dodgers"}},"away":{"team":{"id":147,"name":"New York Yankees"}}},
		 "venue":{"id":22,"name":"Dodger Stadium"}},
		{"gamePk":745601,"gameDate":"2024-06-02T20:10:00Z","officialDate":"2024-06-02","season":"2024","gameType":"R",
		 "status":{"abstractGameState":"Preview"},
		 "teams":{"home":{"team":{"id":119,"name":"Los Angeles Dodgers"}},"away":{"team":{"id":147,"name":"New York Yankees"}}},
		 "venue":{"id":22,"name":"Dodger Stadium"}}
	]}
]}`

const playByPlay2023 = `{"allPlays":[
	{"result":{"event":"Groundout","description":"Gleyber Torres grounds out to shortstop.","rbi":0},
	 "about":{"atBatIndex":0,"halfInning":"top","inning":1,"isComplete":true},
	 "matchup":{"batter":{"id":650402,"fullName":"Gleyber Torres"},"pitcher":{"id":669160,"fullName":"Michael Grove"}},
	 "playEvents":[
		{"isPitch":true,"pitchNumber":1,"details":{"call":{"code":"B","description":"Ball"},"type":{"code":"FF","description":"Four-Seam Fastball"}},"count":{"balls":1,"strikes":0},"pitchData":{"startSpeed":95.1,"coordinates":{"x":110.2,"y":180.4}}},
		{"isPitch":true,"pitchNumber":2,"details":{"call":{"code":"X","description":"In play, out(s)"},"type":{"code":"SL","description":"Slider"}},"count":{"balls":1,"strikes":0},"pitchData":{"startSpeed":86.0,"coordinates":{"x":120.0,"y":190.0}}}
	 ]},
	{"result":{"event":"Home Run","description":"Aaron Judge homers on a fly ball to left center field.","rbi":1},
	 "about":{"atBatIndex":1,"halfInning":"top","inning":1,"isComplete":true},
	 "matchup":{"batter":{"id":592450,"fullName":"Aaron Judge"},"pitcher":{"id":669160,"fullName":"Michael Grove"}},
	 "playEvents":[
		{"isPitch":true,"pitchNumber":1,"details":{"call":{"code":"C","description":"Called Strike"},"type":{"code":"FF","description":"Four-Seam Fastball"}},"count":{"balls":0,"strikes":1},"pitchData":{"startSpeed":94.2,"coordinates":{"x":101.5,"y":170.0}}},
		{"isPitch":false,"type":"action","details":{"description":"Mound visit."}},
		{"isPitch":true,"pitchNumber":2,"details":{"call":{"code":"B","description":"Ball"},"type":{"code":"CU","description":"Curveball"}},"count":{"balls":1,"strikes":1},"pitchData":{"startSpeed":79.8}},
		{"isPitch":true,"pitchNumber":3,"details":{"call":{"code":"X","description":"In play, run(s)"},"type":{"code":"FF","description":"Four-Seam Fastball"}},"count":{"balls":1,"strikes":1},"pitchData":{"startSpeed":95.6,"coordinates":{"x":98.3,"y":160.1}},"hitData":{"launchSpeed":110.4,"trajectory":"fly_ball","coordinates":{"coordX":80.5,"coordY":40.2}}}
	 ],
	 "runners":[{"movement":{"start":"","end":"score","isOut":false},"details":{"runner":{"id":592450},"isScoringEvent":true}}]}
]}`

const playByPlay2024 = `{"liveData":{"plays":{"allPlays":[
	{"result":{"event":"Strikeout","description":"Gleyber Torres strikes out swinging."},
	 "about":{"atBatIndex":0,"halfInning":"top","inning":1,"isComplete":true},
	 "matchup":{"batter":{"id":650402},"pitcher":{"id":605141}},
	 "playEvents":[
		{"isPitch":true,"pitchNumber":1,"details":{"call":{"code":"S","description":"Swinging Strike"},"type":{"code":"FF","description":"Four-Seam Fastball"}},"pitchData":{"startSpeed":96.0,"coordinates":{"x":100,"y":150}}}
	 ]}
]}}}`

const careerHitting = `{"stats":[{"type":{"displayName":"career"},"group":{"displayName":"hitting"},"splits":[{"stat":{"gamesPlayed":1012,"homeRuns":315,"avg":".281","ops":".994","summary":"n/a"}}]}]}`

const seasonHitting2023 = `{"stats":[{"type":{"displayName":"season"},"group":{"displayName":"hitting"},"splits":[{"season":"2023","stat":{"gamesPlayed":106,"homeRuns":37,"avg":".267"}}]}]}`

const seasonHitting2024 = `{"stats":[{"type":{"displayName":"season"},"group":{"displayName":"hitting"},"splits":[{"season":"2024","stat":{"gamesPlayed":158,"homeRuns":58,"avg":".322"}}]}]}`

const splitsVL = `{"stats":[{"type":{"displayName":"statSplits"},"group":{"displayName":"hitting"},"splits":[
	{"split":{"code":"vr","description":"vs Right"},"stat":{"avg":".250"}},
	{"split":{"code":"vl","description":"vs Left"},"stat":{"avg":".320","homeRuns":12}}
]}]}`

func statsReq(kind statsapi.StatsKind, season int, codes ...string) statsapi.Request {
	return statsapi.PlayerStats(judgeID, statsapi.StatsQuery{Kind: kind, Group: "hitting", Season: season, SitCodes: codes})
}

// newJudgeFixture serves every call of the Aaron Judge at Dodger Stadium
// query for 2023 and 2024 with split code "vl".
func newJudgeFixture() *fixtureGateway {
	return newFixtureGateway().
		respond(statsapi.PeopleSearch("Aaron Judge"), peopleSearchJudge).
		respond(statsapi.Venues(), venuesList).
		respond(statsapi.Schedule(2023), schedule2023).
		respond(statsapi.Schedule(2024), schedule2024).
		respond(statsapi.PlayByPlay(dodgersGame2023), playByPlay2023).
		respond(statsapi.PlayByPlay(dodgersGame2024), playByPlay2024).
		respond(statsReq(statsapi.StatsCareer, 0), careerHitting).
		respond(statsReq(statsapi.StatsSeason, 2023), seasonHitting2023).
		respond(statsReq(statsapi.StatsSeason, 2024), seasonHitting2024).
		respond(statsReq(statsapi.StatsSplits, 2023, "vl"), splitsVL).
		respond(statsReq(statsapi.StatsSplits, 2024, "vl"), splitsVL)
}
