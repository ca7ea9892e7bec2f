package statsapi

import (
	"fmt"
	"strconv"
	"strings"
)

const sportIDMLB = "1"

// Request names one provider call: endpoint, params and cache class.
type Request struct {
	Endpoint  string
	Params    Params
	Expensive bool
}

func (r Request) Options() []FetchOption {
	if r.Expensive {
		return []FetchOption{Expensive()}
	}
	return nil
}

func (r Request) String() string {
	if query := r.Params.Canonical(); query != "" {
		return r.Endpoint + "?" + query
	}
	return r.Endpoint
}

func PeopleSearch(name string) Request {
	return Request{
		Endpoint: "people/search",
		Params: Params{
			"names":   strings.TrimSpace(name),
			"sportId": sportIDMLB,
			"limit":   "25",
		},
	}
}

func Venues() Request {
	return Request{
		Endpoint:  "venues",
		Params:    Params{"sportId": sportIDMLB},
		Expensive: true,
	}
}

// SeasonWindow is the date range scanned for a season: March 1 to November 30.
func SeasonWindow(season int) (start, end string) {
	return fmt.Sprintf("%04d-03-01", season), fmt.Sprintf("%04d-11-30", season)
}

func Schedule(season int) Request {
	start, end := SeasonWindow(season)
	return Request{
		Endpoint: "schedule",
		Params: Params{
			"sportId":   sportIDMLB,
			"startDate": start,
			"endDate":   end,
			"gameType":  "R",
		},
		Expensive: true,
	}
}

func PlayByPlay(gamePk int64) Request {
	return Request{
		Endpoint:  "game/" + strconv.FormatInt(gamePk, 10) + "/playByPlay",
		Params:    Params{},
		Expensive: true,
	}
}

type StatsKind string

const (
	StatsCareer StatsKind = "career"
	StatsSeason StatsKind = "season"
	StatsSplits StatsKind = "statSplits"
)

type StatsQuery struct {
	Kind     StatsKind
	Group    string
	Season   int
	SitCodes []string
}

func PlayerStats(playerID int64, q StatsQuery) Request {
	params := Params{
		"stats":    string(q.Kind),
		"group":    q.Group,
		"gameType": "R",
	}
	if q.Season > 0 {
		params.SetInt("season", int64(q.Season))
	}
	if len(q.SitCodes) > 0 {
		params.Set("sitCodes", strings.Join(q.SitCodes, ","))
	}
	return Request{
		Endpoint: "people/" + strconv.FormatInt(playerID, 10) + "/stats",
		Params:   params,
	}
}
