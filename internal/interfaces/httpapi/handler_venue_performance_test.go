package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/riskibarqy/venue-insights/internal/usecase"
)

type stubReportBuilder struct {
	mu      sync.Mutex
	queries []venueperf.Query
	report  venueperf.Report
	err     error
}

func (s *stubReportBuilder) BuildReport(_ context.Context, query venueperf.Query) (venueperf.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	return s.report, s.err
}

func (s *stubReportBuilder) calls() []venueperf.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]venueperf.Query(nil), s.queries...)
}

type stubArchiver struct {
	mu       sync.Mutex
	saved    map[string]venueperf.ArchivedReport
	archErr  error
	lastKey  string
	lastSize int
}

func newStubArchiver() *stubArchiver {
	return &stubArchiver{saved: make(map[string]venueperf.ArchivedReport)}
}

func (s *stubArchiver) Archive(_ context.Context, report venueperf.Report) (venueperf.ArchivedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.archErr != nil {
		return venueperf.ArchivedReport{}, s.archErr
	}
	item := venueperf.ArchivedReport{
		ID:        fmt.Sprintf("report-%d", len(s.saved)+1),
		Key:       report.Key(),
		PlayerID:  report.Player.ID,
		VenueID:   report.Venue.ID,
		Seasons:   report.SeasonsAnalyzed,
		State:     report.State,
		Partial:   report.Partial(),
		Report:    report,
		CreatedAt: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	s.saved[item.ID] = item
	return item, nil
}

func (s *stubArchiver) Get(_ context.Context, reportID string) (venueperf.ArchivedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.saved[reportID]
	if !ok {
		return venueperf.ArchivedReport{}, fmt.Errorf("%w: report %s", usecase.ErrNotFound, reportID)
	}
	return item, nil
}

func (s *stubArchiver) History(_ context.Context, key string, limit int) ([]venueperf.ArchivedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKey, s.lastSize = key, limit
	var out []venueperf.ArchivedReport
	for _, item := range s.saved {
		if item.Key == key {
			out = append(out, item)
		}
	}
	return out, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func judgeAtDodgerStadium() venueperf.Report {
	return venueperf.Report{
		State:            venueperf.StateDone,
		Query:            venueperf.Query{PlayerName: "Aaron Judge", VenueName: "Dodger Stadium", Seasons: []int{2023, 2024}},
		Player:           &venueperf.CanonicalPlayer{ID: 592450, DisplayName: "Aaron Judge", PrimaryPosition: "RF"},
		Venue:            &venueperf.CanonicalVenue{ID: 22, Name: "Dodger Stadium", City: "Los Angeles", State: "CA"},
		SeasonsAnalyzed:  []int{2023, 2024},
		GamesAtVenue:     []venueperf.VenueGame{},
		PlateAppearances: []venueperf.PlateAppearanceEvent{},
		PitchEvents:      []venueperf.PitchEvent{},
		Errors:           []venueperf.SubQueryError{},
		DataGaps:         []venueperf.SubQueryError{},
		Diagnostics:      venueperf.Diagnostics{NetworkCalls: 9, CacheHits: 2, Retries: 1, Elapsed: 1500 * time.Millisecond},
	}
}

func newTestRouter(builder ReportBuilder, archive ReportArchiver, store Pinger) http.Handler {
	handler := NewHandler(builder, archive, store, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), true, []string{"*"})
}

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       map[string]any `json:"data"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestGetVenuePerformance_ServesReportWithDiagnostics(t *testing.T) {
	t.Parallel()

	builder := &stubReportBuilder{report: judgeAtDodgerStadium()}
	archive := newStubArchiver()
	router := newTestRouter(builder, archive, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance?player=Aaron+Judge&venue=Dodger+Stadium&seasons=2024,2023&include_pitch_detail=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(headerReportID); got != "report-1" {
		t.Fatalf("unexpected report id header: %q", got)
	}
	if rec.Header().Get(headerProviderCalls) != "9" || rec.Header().Get(headerProviderHits) != "2" || rec.Header().Get(headerProviderRetry) != "1" {
		t.Fatalf("unexpected diagnostics headers: %v", rec.Header())
	}
	if got := rec.Header().Get(headerReportDuration); got != "1500" {
		t.Fatalf("unexpected duration header: %q", got)
	}

	body := decodeEnvelope(t, rec)
	if body.Data["state"] != string(venueperf.StateDone) {
		t.Fatalf("unexpected state: %v", body.Data["state"])
	}
	player, _ := body.Data["player"].(map[string]any)
	if player["display_name"] != "Aaron Judge" {
		t.Fatalf("unexpected player: %v", body.Data["player"])
	}

	calls := builder.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one build, got %d", len(calls))
	}
	if got := calls[0]; got.PlayerName != "Aaron Judge" || !got.IncludePitchDetail || len(got.Seasons) != 2 {
		t.Fatalf("unexpected query: %+v", got)
	}
}

func TestGetVenuePerformance_RepeatedSeasonParams(t *testing.T) {
	t.Parallel()

	builder := &stubReportBuilder{report: judgeAtDodgerStadium()}
	router := newTestRouter(builder, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance?player=Judge&venue=Dodger&season=2023&season=2024", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(headerReportID) != "" {
		t.Fatalf("did not expect report id without an archive")
	}
	if got := builder.calls()[0].Seasons; len(got) != 2 || got[0] != 2023 || got[1] != 2024 {
		t.Fatalf("unexpected seasons: %v", got)
	}
}

func TestGetVenuePerformance_InvalidQuery(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing player":   "/v1/analytics/venue-performance?venue=Dodger+Stadium&seasons=2023",
		"missing seasons":  "/v1/analytics/venue-performance?player=Judge&venue=Dodger+Stadium",
		"bad season":       "/v1/analytics/venue-performance?player=Judge&venue=Dodger+Stadium&seasons=twenty",
		"season too early": "/v1/analytics/venue-performance?player=Judge&venue=Dodger+Stadium&seasons=1850",
		"bad detail flag":  "/v1/analytics/venue-performance?player=Judge&venue=Dodger+Stadium&seasons=2023&include_pitch_detail=maybe",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			builder := &stubReportBuilder{report: judgeAtDodgerStadium()}
			rec := httptest.NewRecorder()
			newTestRouter(builder, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(builder.calls()) != 0 {
				t.Fatalf("expected no build for invalid query")
			}
		})
	}
}

func TestPostVenuePerformance_PlayerNotFound(t *testing.T) {
	t.Parallel()

	builder := &stubReportBuilder{err: &usecase.EntityNotFoundError{Entity: "player", Query: "Nobody Atall"}}
	router := newTestRouter(builder, newStubArchiver(), nil)

	payload := `{"player_name":"Nobody Atall","venue_name":"Dodger Stadium","seasons":[2023]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/venue-performance", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body.Error == nil || body.Error.Message != "player not found: Nobody Atall" {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
}

func TestPostVenuePerformance_MalformedJSON(t *testing.T) {
	t.Parallel()

	builder := &stubReportBuilder{}
	req := httptest.NewRequest(http.MethodPost, "/v1/analytics/venue-performance", strings.NewReader(`{"player_name":`))
	rec := httptest.NewRecorder()
	newTestRouter(builder, nil, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPostVenuePerformance_ProviderUnavailable(t *testing.T) {
	t.Parallel()

	builder := &stubReportBuilder{err: fmt.Errorf("%w: people search: 503", usecase.ErrDependencyUnavailable)}
	payload := `{"player_name":"Aaron Judge","venue_name":"Dodger Stadium","seasons":[2023]}`
	rec := httptest.NewRecorder()
	newTestRouter(builder, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analytics/venue-performance", strings.NewReader(payload)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestPostVenuePerformance_ArchiveFailureStillServesReport(t *testing.T) {
	t.Parallel()

	archive := newStubArchiver()
	archive.archErr = errors.New("disk full")
	builder := &stubReportBuilder{report: judgeAtDodgerStadium()}

	payload := `{"player_name":"Aaron Judge","venue_name":"Dodger Stadium","seasons":[2023,2024]}`
	rec := httptest.NewRecorder()
	newTestRouter(builder, archive, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/analytics/venue-performance", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(headerReportID) != "" {
		t.Fatalf("did not expect report id after archive failure")
	}
}

func TestGetArchivedReport_RoundTrip(t *testing.T) {
	t.Parallel()

	archive := newStubArchiver()
	builder := &stubReportBuilder{report: judgeAtDodgerStadium()}
	router := newTestRouter(builder, archive, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance?player=Judge&venue=Dodger&seasons=2023,2024", nil))
	reportID := rec.Header().Get(headerReportID)
	if reportID == "" {
		t.Fatalf("expected archived report id")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance/reports/"+reportID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body.Data["id"] != reportID || body.Data["key"] != "592450:22:2023,2024" {
		t.Fatalf("unexpected archived report: %v", body.Data)
	}
	if body.Data["created_at"] != "2024-10-01T12:00:00Z" {
		t.Fatalf("unexpected created_at: %v", body.Data["created_at"])
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance/reports/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown report, got %d", rec.Code)
	}
}

func TestListReportHistory_BuildsKey(t *testing.T) {
	t.Parallel()

	archive := newStubArchiver()
	if _, err := archive.Archive(context.Background(), judgeAtDodgerStadium()); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	router := newTestRouter(&stubReportBuilder{}, archive, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance/reports?player_id=592450&venue_id=22&seasons=2024,2023&limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if archive.lastKey != "592450:22:2023,2024" || archive.lastSize != 5 {
		t.Fatalf("unexpected history lookup: key=%q limit=%d", archive.lastKey, archive.lastSize)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance/reports?venue_id=22&seasons=2023", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without player_id, got %d", rec.Code)
	}
}

func TestArchiveRoutesWithoutArchive(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(&stubReportBuilder{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance/reports/abc", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(&stubReportBuilder{}, nil, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newTestRouter(&stubReportBuilder{}, nil, stubPinger{err: errors.New("connection refused")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analytics/venue-performance", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestOpenAPIServed(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(&stubReportBuilder{}, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/v1/analytics/venue-performance") {
		t.Fatalf("unexpected openapi response: %d", rec.Code)
	}
}
