package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/venue-insights/external/statsapi"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	usecasemock "github.com/riskibarqy/venue-insights/internal/mocks/usecase"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestStatFetcher_SituationalSplits_EachCodeIndependent(t *testing.T) {
	t.Parallel()

	gateway := newFixtureGateway().
		respond(statsReq(statsapi.StatsSplits, 2024, "vl"), splitsVL).
		fail(statsReq(statsapi.StatsSplits, 2024, "risp"), transientFailure("people/592450/stats"))

	blocks, errs := NewStatFetcher(gateway, logging.NewNop()).
		SituationalSplits(context.Background(), judgeID, 2024, venueperf.GroupHitting, []string{"risp", "vl", "h"})

	if _, ok := blocks["vl"]; !ok || len(blocks) != 1 {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
	if blocks["vl"].SplitCode != "vl" || blocks["vl"].Season != 2024 {
		t.Fatalf("unexpected vl block: %+v", blocks["vl"])
	}
	if len(errs) != 2 || errs[0].SplitCode != "h" || errs[1].SplitCode != "risp" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if errs[0].Retryable || !errs[1].Retryable {
		t.Fatalf("unexpected retryable flags: %+v", errs)
	}
}

func TestStatFetcher_CareerStats_UsesGroupAndKeepsOrder(t *testing.T) {
	t.Parallel()

	gateway := usecasemock.NewProviderGateway(t)
	gateway.
		On("Fetch", mock.Anything, "people/543037/stats", mock.MatchedBy(func(p statsapi.Params) bool {
			return p["stats"] == "career" && p["group"] == "pitching" && p["gameType"] == "R"
		})).
		Return([]byte(`{"stats":[{"group":{"displayName":"pitching"},"splits":[{"stat":{"era":"2.95","wins":120,"strikeOuts":1900}}]}]}`), nil).
		Once()

	pitcher := venueperf.CanonicalPlayer{ID: 543037, PrimaryPosition: "P"}
	block, err := NewStatFetcher(gateway, logging.NewNop()).CareerStats(context.Background(), pitcher.ID, pitcher.StatGroup())
	if err != nil {
		t.Fatalf("career stats: %v", err)
	}
	if block.Group != venueperf.GroupPitching || block.Season != 0 {
		t.Fatalf("unexpected block: %+v", block)
	}
	if keys := block.Metrics.Keys(); len(keys) != 3 || keys[0] != "era" || keys[2] != "strikeOuts" {
		t.Fatalf("unexpected metric order: %v", keys)
	}
}

func TestStatFetcher_SeasonStats_EmptySplitsIsEmptyBlock(t *testing.T) {
	t.Parallel()

	gateway := newFixtureGateway().respond(statsReq(statsapi.StatsSeason, 2016), `{"stats":[]}`)

	block, err := NewStatFetcher(gateway, logging.NewNop()).SeasonStats(context.Background(), judgeID, 2016, venueperf.GroupHitting)
	if err != nil {
		t.Fatalf("season stats: %v", err)
	}
	if block.Season != 2016 || block.Metrics == nil || len(block.Metrics) != 0 {
		t.Fatalf("unexpected block: %+v", block)
	}
}

func TestStatFetcher_Split_IgnoresOtherCodes(t *testing.T) {
	t.Parallel()

	onlyRight := `{"stats":[{"group":{"displayName":"hitting"},"splits":[{"split":{"code":"vr","description":"vs Right"},"stat":{"avg":".250"}}]}]}`
	gateway := newFixtureGateway().respond(statsReq(statsapi.StatsSplits, 2024, "vl"), onlyRight)

	block, err := NewStatFetcher(gateway, logging.NewNop()).Split(context.Background(), judgeID, 2024, venueperf.GroupHitting, "vl")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if block.SplitCode != "vl" || len(block.Metrics) != 0 {
		t.Fatalf("vs-right figures must not be reported as vs-left: %+v", block)
	}
}
