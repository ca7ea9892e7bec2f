package venueperf

import (
	"sort"
	"strings"
)

func halfInningRank(half string) int {
	switch strings.ToLower(half) {
	case HalfInningTop:
		return 0
	case HalfInningBottom:
		return 1
	default:
		return 2
	}
}

// SortGames orders games chronologically, breaking ties by game id.
func SortGames(games []GameReference) {
	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i], games[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.GameID < b.GameID
	})
}

// DedupGames keeps the first occurrence of every game id.
func DedupGames(games []GameReference) []GameReference {
	seen := make(map[int64]struct{}, len(games))
	out := make([]GameReference, 0, len(games))
	for _, game := range games {
		if _, ok := seen[game.GameID]; ok {
			continue
		}
		seen[game.GameID] = struct{}{}
		out = append(out, game)
	}
	return out
}

func SortPlateAppearances(items []PlateAppearanceEvent) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.Inning != b.Inning {
			return a.Inning < b.Inning
		}
		if ra, rb := halfInningRank(a.HalfInning), halfInningRank(b.HalfInning); ra != rb {
			return ra < rb
		}
		return a.AtBatIndex < b.AtBatIndex
	})
}

func SortPitches(items []PitchEvent) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.Inning != b.Inning {
			return a.Inning < b.Inning
		}
		if ra, rb := halfInningRank(a.HalfInning), halfInningRank(b.HalfInning); ra != rb {
			return ra < rb
		}
		return a.SequenceNo < b.SequenceNo
	})
}

var stageRank = map[Stage]int{
	StageResolve:     0,
	StageSchedule:    1,
	StageCorrelate:   2,
	StageCareerStats: 3,
	StageSeasonStats: 4,
	StageSplits:      5,
}

// SortErrors orders sub-query errors by stage, season, game, split and message
// so completion order never leaks into a report.
func SortErrors(items []SubQueryError) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := stageRank[a.Stage], stageRank[b.Stage]; ra != rb {
			return ra < rb
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		if a.SplitCode != b.SplitCode {
			return a.SplitCode < b.SplitCode
		}
		return a.Message < b.Message
	})
}
