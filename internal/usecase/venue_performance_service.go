package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultEngineWorkers      = 6
	MaxEngineWorkers          = 32
	DefaultMaxCorrelatedGames = 20
	DefaultQueryTimeout       = 60 * time.Second
)

// DefaultSplitCodes are the situational splits fetched per season:
// vs left, vs right, home, away, runners in scoring position, bases empty,
// late and close.
var DefaultSplitCodes = []string{"vl", "vr", "h", "a", "risp", "r0", "lc"}

type VenuePerformanceConfig struct {
	Workers            int
	MaxCorrelatedGames int
	QueryTimeout       time.Duration
	SplitCodes         []string
}

func (c VenuePerformanceConfig) normalize() VenuePerformanceConfig {
	if c.Workers <= 0 {
		c.Workers = DefaultEngineWorkers
	}
	if c.Workers > MaxEngineWorkers {
		c.Workers = MaxEngineWorkers
	}
	if c.MaxCorrelatedGames <= 0 {
		c.MaxCorrelatedGames = DefaultMaxCorrelatedGames
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	c.SplitCodes = append([]string(nil), c.SplitCodes...)
	return c
}

// VenuePerformanceService drives one query through
// resolving -> scanning -> correlating -> fetching -> merging -> done.
// Only a resolution failure ends in failed; every later sub-query failure is
// recorded on the report and the query continues.
type VenuePerformanceService struct {
	resolver   *EntityResolver
	scanner    *ScheduleScanner
	correlator *PlayCorrelator
	fetcher    *StatFetcher
	cfg        VenuePerformanceConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewVenuePerformanceService(gateway ProviderGateway, cfg VenuePerformanceConfig, logger *logging.Logger) *VenuePerformanceService {
	if logger == nil {
		logger = logging.Default()
	}
	return &VenuePerformanceService{
		resolver:   NewEntityResolver(gateway, logger),
		scanner:    NewScheduleScanner(gateway, logger),
		correlator: NewPlayCorrelator(gateway, logger),
		fetcher:    NewStatFetcher(gateway, logger),
		cfg:        cfg.normalize(),
		logger:     logger.With("component", "venue_performance"),
		now:        time.Now,
	}
}

// queryRun is the mutable state of one query: lifecycle position and the
// shared error accumulator written by worker tasks.
type queryRun struct {
	mu     sync.Mutex
	state  venueperf.State
	errs   []venueperf.SubQueryError
	logger *logging.Logger
}

func (r *queryRun) enter(ctx context.Context, state venueperf.State) {
	r.mu.Lock()
	from := r.state
	r.state = state
	r.mu.Unlock()
	r.logger.DebugContext(ctx, "query state changed", "from", string(from), "to", string(state))
}

func (r *queryRun) record(ctx context.Context, subErr venueperf.SubQueryError) {
	r.mu.Lock()
	r.errs = append(r.errs, subErr)
	r.mu.Unlock()
	r.logger.WarnContext(ctx, "sub query failed",
		"stage", string(subErr.Stage),
		"kind", string(subErr.Kind),
		"season", subErr.Season,
		"game_id", subErr.GameID,
		"split_code", subErr.SplitCode,
		"retryable", subErr.Retryable,
		"error", subErr.Message,
	)
}

func (r *queryRun) errors() []venueperf.SubQueryError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]venueperf.SubQueryError, len(r.errs))
	copy(out, r.errs)
	venueperf.SortErrors(out)
	return out
}

// submit runs task on the pool. A task that starts after the query context
// is done is not attempted; its failure is recorded as deadline exceeded.
func (r *queryRun) submit(ctx context.Context, pool *ants.Pool, wg *sync.WaitGroup, task func() error, fail func(error)) {
	wg.Add(1)
	err := pool.Submit(func() {
		defer wg.Done()
		if ctxErr := ctx.Err(); ctxErr != nil {
			fail(ctxErr)
			return
		}
		if err := task(); err != nil {
			fail(err)
		}
	})
	if err != nil {
		wg.Done()
		fail(fmt.Errorf("%w: submit task: %v", ErrDependencyUnavailable, err))
	}
}

type statOutcome struct {
	mu      sync.Mutex
	career  *venueperf.SeasonStatBlock
	seasons map[int]venueperf.SeasonStatBlock
	splits  map[int]map[string]venueperf.SeasonStatBlock
}

func newStatOutcome() *statOutcome {
	return &statOutcome{
		seasons: make(map[int]venueperf.SeasonStatBlock),
		splits:  make(map[int]map[string]venueperf.SeasonStatBlock),
	}
}

// BuildReport executes the query under a single deadline and returns the
// assembled report. A failed report is returned together with a non-nil
// error; a partial report is returned with a nil error.
func (s *VenuePerformanceService) BuildReport(ctx context.Context, input venueperf.Query) (venueperf.Report, error) {
	if err := validateQuery(ctx, input); err != nil {
		return venueperf.Report{}, err
	}
	q := input.Normalized()
	started := s.now()

	callStats := &statsapi.CallStats{}
	ctx = statsapi.WithCallStats(ctx, callStats)
	ctx, span := startUsecaseSpan(ctx, "usecase.VenuePerformanceService.BuildReport",
		attribute.String("player.query", q.PlayerName),
		attribute.String("venue.query", q.VenueName),
		attribute.IntSlice("seasons", q.Seasons),
	)
	defer span.End()

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	run := &queryRun{logger: s.logger.With("player", q.PlayerName, "venue", q.VenueName)}
	run.enter(ctx, venueperf.StateResolving)

	player, err := s.resolver.ResolvePlayer(queryCtx, q.PlayerName)
	if err != nil {
		return s.failed(ctx, run, q, callStats, started, err)
	}
	venue, err := s.resolver.ResolveVenue(queryCtx, q.VenueName)
	if err != nil {
		return s.failed(ctx, run, q, callStats, started, err)
	}
	span.SetAttributes(attribute.Int64("player.id", player.ID), attribute.Int64("venue.id", venue.ID))

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return venueperf.Report{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	group := player.StatGroup()
	stats := newStatOutcome()

	run.enter(ctx, venueperf.StateScanning)
	var statsBranch conc.WaitGroup
	statsBranch.Go(func() {
		s.fetchStats(queryCtx, run, pool, player.ID, group, q.Seasons, stats)
	})

	perSeason, scanned := s.scanSeasons(queryCtx, run, pool, venue.ID, q.Seasons)
	games := MergeSeasonGames(perSeason...)
	selected := mostRecentGames(games, s.cfg.MaxCorrelatedGames)

	run.enter(ctx, venueperf.StateCorrelating)
	correlations := s.correlateGames(queryCtx, run, pool, selected, player.ID)

	run.enter(ctx, venueperf.StateFetching)
	statsBranch.Wait()

	run.enter(ctx, venueperf.StateMerging)
	report := s.merge(q, player, venue, games, selected, correlations, scanned, stats, run.errors())
	report.Diagnostics = s.diagnostics(callStats, started)

	run.enter(ctx, venueperf.StateDone)
	report.State = venueperf.StateDone

	s.logger.InfoContext(ctx, "venue performance report built",
		"player_id", player.ID,
		"venue_id", venue.ID,
		"seasons", q.Seasons,
		"games_found", len(games),
		"games_analyzed", report.PerformanceSummary.TotalGamesAnalyzed,
		"plate_appearances", len(report.PlateAppearances),
		"errors", len(report.Errors),
		"network_calls", report.Diagnostics.NetworkCalls,
		"cache_hits", report.Diagnostics.CacheHits,
		"retries", report.Diagnostics.Retries,
		"elapsed_ms", report.Diagnostics.Elapsed.Milliseconds(),
	)
	return report, nil
}

func (s *VenuePerformanceService) failed(
	ctx context.Context,
	run *queryRun,
	q venueperf.Query,
	callStats *statsapi.CallStats,
	started time.Time,
	cause error,
) (venueperf.Report, error) {
	run.enter(ctx, venueperf.StateFailed)

	subErr := newSubQueryError(venueperf.StageResolve, cause)
	report := venueperf.Report{
		State:       venueperf.StateFailed,
		Query:       q,
		Errors:      []venueperf.SubQueryError{subErr},
		Diagnostics: s.diagnostics(callStats, started),
	}

	s.logger.WarnContext(ctx, "venue performance query failed",
		"kind", string(subErr.Kind),
		"error", cause,
	)

	if errors.Is(cause, ErrNotFound) {
		return report, cause
	}
	return report, fmt.Errorf("%w: %w", ErrDependencyUnavailable, cause)
}

func (s *VenuePerformanceService) scanSeasons(
	ctx context.Context,
	run *queryRun,
	pool *ants.Pool,
	venueID int64,
	seasons []int,
) ([][]venueperf.GameReference, []int) {
	perSeason := make([][]venueperf.GameReference, len(seasons))
	ok := make([]bool, len(seasons))

	var workers sync.WaitGroup
	for i, season := range seasons {
		run.submit(ctx, pool, &workers, func() error {
			games, err := s.scanner.GamesAtVenue(ctx, venueID, season)
			if err != nil {
				return err
			}
			perSeason[i] = games
			ok[i] = true
			return nil
		}, func(err error) {
			subErr := newSubQueryError(venueperf.StageSchedule, err)
			subErr.Season = season
			run.record(ctx, subErr)
		})
	}
	workers.Wait()

	scanned := make([]int, 0, len(seasons))
	for i, season := range seasons {
		if ok[i] {
			scanned = append(scanned, season)
		}
	}
	return perSeason, scanned
}

func (s *VenuePerformanceService) correlateGames(
	ctx context.Context,
	run *queryRun,
	pool *ants.Pool,
	games []venueperf.GameReference,
	playerID int64,
) []*CorrelationResult {
	results := make([]*CorrelationResult, len(games))

	var workers sync.WaitGroup
	for i, game := range games {
		run.submit(ctx, pool, &workers, func() error {
			result, err := s.correlator.Correlate(ctx, game, playerID)
			if err != nil {
				return err
			}
			results[i] = &result
			return nil
		}, func(err error) {
			subErr := newSubQueryError(venueperf.StageCorrelate, err)
			subErr.Season = game.Season
			subErr.GameID = game.GameID
			run.record(ctx, subErr)
		})
	}
	workers.Wait()
	return results
}

func (s *VenuePerformanceService) fetchStats(
	ctx context.Context,
	run *queryRun,
	pool *ants.Pool,
	playerID int64,
	group venueperf.StatGroup,
	seasons []int,
	out *statOutcome,
) {
	var workers sync.WaitGroup

	run.submit(ctx, pool, &workers, func() error {
		block, err := s.fetcher.CareerStats(ctx, playerID, group)
		if err != nil {
			return err
		}
		out.mu.Lock()
		out.career = &block
		out.mu.Unlock()
		return nil
	}, func(err error) {
		run.record(ctx, newSubQueryError(venueperf.StageCareerStats, err))
	})

	for _, season := range seasons {
		run.submit(ctx, pool, &workers, func() error {
			block, err := s.fetcher.SeasonStats(ctx, playerID, season, group)
			if err != nil {
				return err
			}
			out.mu.Lock()
			out.seasons[season] = block
			out.mu.Unlock()
			return nil
		}, func(err error) {
			subErr := newSubQueryError(venueperf.StageSeasonStats, err)
			subErr.Season = season
			run.record(ctx, subErr)
		})

		if len(s.cfg.SplitCodes) == 0 {
			continue
		}
		run.submit(ctx, pool, &workers, func() error {
			blocks, errs := s.fetcher.SituationalSplits(ctx, playerID, season, group, s.cfg.SplitCodes)
			for _, subErr := range errs {
				run.record(ctx, subErr)
			}
			if len(blocks) > 0 {
				out.mu.Lock()
				out.splits[season] = blocks
				out.mu.Unlock()
			}
			return nil
		}, func(err error) {
			for _, code := range s.cfg.SplitCodes {
				subErr := newSubQueryError(venueperf.StageSplits, err)
				subErr.Season = season
				subErr.SplitCode = code
				run.record(ctx, subErr)
			}
		})
	}

	workers.Wait()
}

func (s *VenuePerformanceService) merge(
	q venueperf.Query,
	player venueperf.CanonicalPlayer,
	venue venueperf.CanonicalVenue,
	games []venueperf.GameReference,
	selected []venueperf.GameReference,
	correlations []*CorrelationResult,
	scanned []int,
	stats *statOutcome,
	errs []venueperf.SubQueryError,
) venueperf.Report {
	byGame := make(map[int64]*CorrelationResult, len(correlations))
	plateAppearances := make([]venueperf.PlateAppearanceEvent, 0)
	pitches := make([]venueperf.PitchEvent, 0)
	gaps := make([]venueperf.SubQueryError, 0)
	for i, result := range correlations {
		if result == nil {
			continue
		}
		byGame[result.GameID] = result
		plateAppearances = append(plateAppearances, result.PlateAppearances...)
		pitches = append(pitches, result.Pitches...)
		if result.Gaps.Total() > 0 {
			gaps = append(gaps, venueperf.SubQueryError{
				Stage:   venueperf.StageCorrelate,
				Kind:    venueperf.KindPartialDataGap,
				Season:  selected[i].Season,
				GameID:  result.GameID,
				Message: result.Gaps.Describe(),
			})
		}
	}
	venueperf.SortPlateAppearances(plateAppearances)
	venueperf.SortPitches(pitches)
	venueperf.SortErrors(gaps)

	venueGames := make([]venueperf.VenueGame, 0, len(games))
	seasonsWithData := make([]int, 0)
	gamesWithAppearances := 0
	for _, game := range games {
		summary := venueperf.GameSummary{}
		if result, ok := byGame[game.GameID]; ok {
			summary = tallyPlateAppearances(result.PlateAppearances).gameSummary(true)
			if summary.PlateAppearances > 0 {
				gamesWithAppearances++
			}
		}
		venueGames = append(venueGames, venueperf.VenueGame{
			GameReference: game,
			Matchup:       game.Matchup(),
			Summary:       summary,
		})
		seasonsWithData = append(seasonsWithData, game.Season)
	}
	seasonsWithData = uniqueSortedInts(seasonsWithData)

	tally := tallyPlateAppearances(plateAppearances)
	analysis := buildPitchLevelAnalysis(pitches, tally.PlateAppearances)

	summary := venueperf.PerformanceSummary{
		SeasonsRequested:     len(q.Seasons),
		SeasonsScanned:       len(scanned),
		SeasonsWithData:      seasonsWithData,
		TotalVenueGamesFound: len(games),
		GamesSelected:        len(selected),
		TotalGamesAnalyzed:   len(byGame),
		GamesWithAppearances: gamesWithAppearances,
		PlateAppearances:     tally.PlateAppearances,
		PitchesTracked:       len(pitches),
		Hits:                 tally.Hits,
		HomeRuns:             tally.HomeRuns,
		Strikeouts:           tally.Strikeouts,
		Walks:                tally.Walks,
		RBI:                  tally.RBI,
		RunsScored:           tally.RunsScored,
		AtBats:               tally.AtBats,
		BattingAverage:       tally.battingAverage(),
		HitLocationsTracked:  tally.HitLocations,
		AnalysisDepth:        analysisDepthPlateAppearance,
		Partial:              len(errs) > 0,
	}
	if q.IncludePitchDetail {
		summary.AnalysisDepth = analysisDepthPitch
	} else {
		pitches = make([]venueperf.PitchEvent, 0)
	}
	summary.Message = summaryMessage(player, venue, q.Seasons, summary, len(errs))

	report := venueperf.Report{
		Query:              q,
		Player:             &player,
		Venue:              &venue,
		SeasonsAnalyzed:    append([]int(nil), q.Seasons...),
		GamesAtVenue:       venueGames,
		PlateAppearances:   plateAppearances,
		PitchEvents:        pitches,
		PerformanceSummary: &summary,
		PitchLevelAnalysis: analysis,
		Errors:             errs,
		DataGaps:           gaps,
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	report.CareerStats = stats.career
	if len(stats.seasons) > 0 {
		report.SeasonStats = stats.seasons
	}
	if len(stats.splits) > 0 {
		report.SituationalSplits = stats.splits
	}
	return report
}

func (s *VenuePerformanceService) diagnostics(callStats *statsapi.CallStats, started time.Time) venueperf.Diagnostics {
	return venueperf.Diagnostics{
		NetworkCalls: callStats.NetworkCalls(),
		CacheHits:    callStats.CacheHits(),
		Retries:      callStats.Retries(),
		Elapsed:      s.now().Sub(started),
	}
}

// mostRecentGames keeps the last limit games of a chronological list.
func mostRecentGames(games []venueperf.GameReference, limit int) []venueperf.GameReference {
	if limit <= 0 || len(games) <= limit {
		return append([]venueperf.GameReference(nil), games...)
	}
	return append([]venueperf.GameReference(nil), games[len(games)-limit:]...)
}

func uniqueSortedInts(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
