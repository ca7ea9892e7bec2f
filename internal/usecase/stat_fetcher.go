package usecase

import (
	"context"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const defaultSplitConcurrency = 4

// StatFetcher loads career, season and situational stat blocks. Every call is
// an independent sub-query.
type StatFetcher struct {
	gateway          ProviderGateway
	logger           *logging.Logger
	splitConcurrency int
}

func NewStatFetcher(gateway ProviderGateway, logger *logging.Logger) *StatFetcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatFetcher{
		gateway:          gateway,
		logger:           logger.With("component", "stat_fetcher"),
		splitConcurrency: defaultSplitConcurrency,
	}
}

func (f *StatFetcher) CareerStats(ctx context.Context, playerID int64, group venueperf.StatGroup) (venueperf.SeasonStatBlock, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatFetcher.CareerStats", attribute.Int64("player.id", playerID))
	defer span.End()

	return f.fetchBlock(ctx, playerID, group, statsapi.StatsQuery{
		Kind:  statsapi.StatsCareer,
		Group: string(group),
	}, "")
}

func (f *StatFetcher) SeasonStats(ctx context.Context, playerID int64, season int, group venueperf.StatGroup) (venueperf.SeasonStatBlock, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatFetcher.SeasonStats",
		attribute.Int64("player.id", playerID),
		attribute.Int("season", season),
	)
	defer span.End()

	block, err := f.fetchBlock(ctx, playerID, group, statsapi.StatsQuery{
		Kind:   statsapi.StatsSeason,
		Group:  string(group),
		Season: season,
	}, "")
	block.Season = season
	return block, err
}

// Split fetches one situational split ("vl", "risp", ...) for a season.
func (f *StatFetcher) Split(ctx context.Context, playerID int64, season int, group venueperf.StatGroup, code string) (venueperf.SeasonStatBlock, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatFetcher.Split",
		attribute.Int64("player.id", playerID),
		attribute.Int("season", season),
		attribute.String("split.code", code),
	)
	defer span.End()

	block, err := f.fetchBlock(ctx, playerID, group, statsapi.StatsQuery{
		Kind:     statsapi.StatsSplits,
		Group:    string(group),
		Season:   season,
		SitCodes: []string{code},
	}, code)
	block.Season = season
	block.SplitCode = code
	return block, err
}

// SituationalSplits fetches every code concurrently. A failed code is
// returned in errs and does not affect the others.
func (f *StatFetcher) SituationalSplits(
	ctx context.Context,
	playerID int64,
	season int,
	group venueperf.StatGroup,
	codes []string,
) (map[string]venueperf.SeasonStatBlock, []venueperf.SubQueryError) {
	var (
		mu     sync.Mutex
		blocks = make(map[string]venueperf.SeasonStatBlock, len(codes))
		errs   []venueperf.SubQueryError
	)

	p := pool.New().WithMaxGoroutines(max(f.splitConcurrency, 1))
	for _, code := range codes {
		p.Go(func() {
			block, err := f.Split(ctx, playerID, season, group, code)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				subErr := newSubQueryError(venueperf.StageSplits, err)
				subErr.Season = season
				subErr.SplitCode = code
				errs = append(errs, subErr)
				return
			}
			blocks[code] = block
		})
	}
	p.Wait()

	venueperf.SortErrors(errs)
	return blocks, errs
}

func (f *StatFetcher) fetchBlock(
	ctx context.Context,
	playerID int64,
	group venueperf.StatGroup,
	q statsapi.StatsQuery,
	splitCode string,
) (venueperf.SeasonStatBlock, error) {
	block := venueperf.SeasonStatBlock{
		PlayerID: playerID,
		Group:    group,
		Metrics:  venueperf.Metrics{},
	}

	var doc statsapi.StatsResponse
	if err := fetchDocument(ctx, f.gateway, statsapi.PlayerStats(playerID, q), &doc); err != nil {
		return block, err
	}

	split, ok := pickSplit(doc, string(group), splitCode)
	if !ok {
		return block, nil
	}

	metrics, skipped, err := venueperf.ParseMetrics(split.Stat)
	if err != nil {
		return block, crerr.Mark(crerr.Wrapf(err, "stats %s", q.Kind), statsapi.ErrFatal)
	}
	if len(skipped) > 0 {
		f.logger.DebugContext(ctx, "non numeric metrics skipped",
			"player_id", playerID,
			"kind", string(q.Kind),
			"keys", strings.Join(skipped, ","),
		)
	}
	block.Metrics = metrics
	return block, nil
}

// pickSplit returns the split tagged with code. Without a code it returns the
// first split of the group. A split query never borrows another code's split.
func pickSplit(doc statsapi.StatsResponse, group, code string) (statsapi.StatSplit, bool) {
	if code == "" {
		return doc.FirstSplit(group)
	}
	for _, entry := range doc.Stats {
		if entry.Group != nil && !strings.EqualFold(entry.Group.DisplayName, group) {
			continue
		}
		for _, split := range entry.Splits {
			if split.Split != nil && strings.EqualFold(split.Split.Code, code) {
				return split, true
			}
		}
	}
	return statsapi.StatSplit{}, false
}
