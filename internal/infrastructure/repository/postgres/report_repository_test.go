package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

func TestBuildReportInsert(t *testing.T) {
	created := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	item := venueperf.ArchivedReport{
		ID:       "0192a7a4-report",
		Key:      "592450:22:2023,2024",
		PlayerID: 592450,
		VenueID:  22,
		Seasons:  []int{2023, 2024},
		State:    venueperf.StateDone,
		Report: venueperf.Report{
			State:           venueperf.StateDone,
			SeasonsAnalyzed: []int{2023, 2024},
		},
		CreatedAt: created,
	}

	query, args, err := buildReportInsert(item)
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	wantPrefix := "INSERT INTO venue_reports (public_id, report_key, player_id, venue_id, seasons, state, partial, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	if !strings.HasPrefix(query, wantPrefix) || !strings.HasSuffix(query, "ON CONFLICT (public_id) DO NOTHING") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 9 {
		t.Fatalf("unexpected arg count: %d", len(args))
	}
	seasons, ok := args[4].(pq.Int64Array)
	if !ok || len(seasons) != 2 || seasons[1] != 2024 {
		t.Fatalf("unexpected seasons arg: %#v", args[4])
	}
	payload, ok := args[7].(string)
	if !ok || !strings.Contains(payload, `"seasons_analyzed":[2023,2024]`) {
		t.Fatalf("unexpected payload arg: %#v", args[7])
	}
}

func TestReportFromRow(t *testing.T) {
	row := venueReportTableModel{
		ID:        7,
		PublicID:  "rep-7",
		ReportKey: "1:2:2024",
		PlayerID:  1,
		VenueID:   2,
		Seasons:   pq.Int64Array{2024},
		State:     "done",
		Partial:   true,
		Payload:   `{"state":"done","seasons_analyzed":[2024],"errors":[{"stage":"schedule","kind":"provider_transient","season":2024,"message":"boom","retryable":true}]}`,
		CreatedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("WIB", 7*3600)),
	}

	item, err := reportFromRow(row)
	if err != nil {
		t.Fatalf("report from row: %v", err)
	}
	if item.ID != "rep-7" || item.Seasons[0] != 2024 || item.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Report.Errors) != 1 || !item.Report.Errors[0].Retryable {
		t.Fatalf("unexpected decoded report: %+v", item.Report)
	}

	row.Payload = "{not json"
	if _, err := reportFromRow(row); err == nil {
		t.Fatalf("expected decode error")
	}
}
