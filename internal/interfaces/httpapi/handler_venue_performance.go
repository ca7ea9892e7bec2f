package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/usecase"
)

const maxRequestBodyBytes = 64 << 10

const (
	headerReportID       = "X-Report-ID"
	headerProviderCalls  = "X-Provider-Calls"
	headerProviderHits   = "X-Provider-Cache-Hits"
	headerProviderRetry  = "X-Provider-Retries"
	headerReportDuration = "X-Report-Duration-Ms"
)

type venuePerformanceRequest struct {
	PlayerName         string `json:"player_name" validate:"required,max=120"`
	VenueName          string `json:"venue_name" validate:"required,max=120"`
	Seasons            []int  `json:"seasons" validate:"required,min=1,max=10,dive,gte=1901,lte=2100"`
	IncludePitchDetail bool   `json:"include_pitch_detail"`
}

func (req venuePerformanceRequest) query() venueperf.Query {
	return venueperf.Query{
		PlayerName:         req.PlayerName,
		VenueName:          req.VenueName,
		Seasons:            req.Seasons,
		IncludePitchDetail: req.IncludePitchDetail,
	}
}

type reportHistoryRequest struct {
	PlayerID int64 `validate:"required,gt=0"`
	VenueID  int64 `validate:"required,gt=0"`
	Seasons  []int `validate:"required,min=1,dive,gte=1901,lte=2100"`
	Limit    int   `validate:"gte=0,lte=100"`
}

type archivedReportDTO struct {
	ID        string           `json:"id"`
	Key       string           `json:"key"`
	Partial   bool             `json:"partial"`
	CreatedAt string           `json:"created_at"`
	Report    venueperf.Report `json:"report"`
}

type archivedReportSummaryDTO struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	PlayerID  int64  `json:"player_id"`
	VenueID   int64  `json:"venue_id"`
	Seasons   []int  `json:"seasons"`
	Partial   bool   `json:"partial"`
	CreatedAt string `json:"created_at"`
}

// GetVenuePerformance reads the query from the URL:
// ?player=&venue=&seasons=2023,2024&include_pitch_detail=true. Repeated
// season= parameters are accepted as well.
func (h *Handler) GetVenuePerformance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetVenuePerformance")
	defer span.End()

	req, err := venuePerformanceRequestFromURL(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.serveVenuePerformance(w, r.WithContext(ctx), req)
}

func (h *Handler) PostVenuePerformance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PostVenuePerformance")
	defer span.End()

	var req venuePerformanceRequest
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	h.serveVenuePerformance(w, r.WithContext(ctx), req)
}

func (h *Handler) serveVenuePerformance(w http.ResponseWriter, r *http.Request, req venuePerformanceRequest) {
	ctx := r.Context()
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.reports.BuildReport(ctx, req.query())
	if err != nil {
		h.logger.WarnContext(ctx, "build venue performance report failed",
			"player", req.PlayerName,
			"venue", req.VenueName,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	if h.archive != nil {
		archived, err := h.archive.Archive(ctx, report)
		if err != nil {
			// The report is still served; only the id is missing.
			h.logger.WarnContext(ctx, "archive report failed", "key", report.Key(), "error", err)
		} else {
			w.Header().Set(headerReportID, archived.ID)
		}
	}

	setDiagnosticsHeaders(w, report.Diagnostics)
	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) GetArchivedReport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetArchivedReport")
	defer span.End()

	if h.archive == nil {
		writeError(ctx, w, fmt.Errorf("%w: report archive is disabled", usecase.ErrDependencyUnavailable))
		return
	}

	reportID := strings.TrimSpace(r.PathValue("reportID"))
	item, err := h.archive.Get(ctx, reportID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	w.Header().Set(headerReportID, item.ID)
	writeSuccess(ctx, w, http.StatusOK, archivedReportDTO{
		ID:        item.ID,
		Key:       item.Key,
		Partial:   item.Partial,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		Report:    item.Report,
	})
}

// ListReportHistory lists archived reports for ?player_id=&venue_id=&seasons=,
// newest first.
func (h *Handler) ListReportHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListReportHistory")
	defer span.End()

	if h.archive == nil {
		writeError(ctx, w, fmt.Errorf("%w: report archive is disabled", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := reportHistoryRequestFromURL(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.archive.History(ctx, venueperf.ReportKey(req.PlayerID, req.VenueID, req.Seasons), req.Limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]archivedReportSummaryDTO, 0, len(items))
	for _, item := range items {
		out = append(out, archivedReportSummaryDTO{
			ID:        item.ID,
			Key:       item.Key,
			PlayerID:  item.PlayerID,
			VenueID:   item.VenueID,
			Seasons:   item.Seasons,
			Partial:   item.Partial,
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func setDiagnosticsHeaders(w http.ResponseWriter, d venueperf.Diagnostics) {
	h := w.Header()
	h.Set(headerProviderCalls, strconv.FormatInt(d.NetworkCalls, 10))
	h.Set(headerProviderHits, strconv.FormatInt(d.CacheHits, 10))
	h.Set(headerProviderRetry, strconv.FormatInt(d.Retries, 10))
	h.Set(headerReportDuration, strconv.FormatInt(d.Elapsed.Milliseconds(), 10))
}

func venuePerformanceRequestFromURL(r *http.Request) (venuePerformanceRequest, error) {
	values := r.URL.Query()
	req := venuePerformanceRequest{
		PlayerName: strings.TrimSpace(values.Get("player")),
		VenueName:  strings.TrimSpace(values.Get("venue")),
	}

	seasons, err := parseSeasons(append(values["seasons"], values["season"]...))
	if err != nil {
		return venuePerformanceRequest{}, err
	}
	req.Seasons = seasons

	if raw := strings.TrimSpace(values.Get("include_pitch_detail")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return venuePerformanceRequest{}, fmt.Errorf("%w: include_pitch_detail must be a boolean", usecase.ErrInvalidInput)
		}
		req.IncludePitchDetail = v
	}
	return req, nil
}

func reportHistoryRequestFromURL(r *http.Request) (reportHistoryRequest, error) {
	values := r.URL.Query()

	var (
		req reportHistoryRequest
		err error
	)
	if req.PlayerID, err = parseInt64Param(values.Get("player_id"), "player_id"); err != nil {
		return reportHistoryRequest{}, err
	}
	if req.VenueID, err = parseInt64Param(values.Get("venue_id"), "venue_id"); err != nil {
		return reportHistoryRequest{}, err
	}
	if req.Seasons, err = parseSeasons(append(values["seasons"], values["season"]...)); err != nil {
		return reportHistoryRequest{}, err
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if req.Limit, err = strconv.Atoi(raw); err != nil {
			return reportHistoryRequest{}, fmt.Errorf("%w: limit must be an integer", usecase.ErrInvalidInput)
		}
	}
	return req, nil
}

func parseInt64Param(raw, name string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return v, nil
}

// parseSeasons accepts comma separated lists across any number of values.
func parseSeasons(values []string) ([]int, error) {
	var out []int
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			season, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid season %q", usecase.ErrInvalidInput, part)
			}
			out = append(out, season)
		}
	}
	return out, nil
}
