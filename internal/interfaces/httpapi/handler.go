package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"github.com/riskibarqy/venue-insights/internal/usecase"
)

// ReportBuilder runs one venue performance query.
type ReportBuilder interface {
	BuildReport(ctx context.Context, query venueperf.Query) (venueperf.Report, error)
}

// ReportArchiver persists finished reports and reads them back.
type ReportArchiver interface {
	Archive(ctx context.Context, report venueperf.Report) (venueperf.ArchivedReport, error)
	Get(ctx context.Context, reportID string) (venueperf.ArchivedReport, error)
	History(ctx context.Context, key string, limit int) ([]venueperf.ArchivedReport, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	reports   ReportBuilder
	archive   ReportArchiver
	store     Pinger
	logger    *logging.Logger
	validator *validator.Validate
}

// NewHandler wires the analytics handlers. archive and store may be nil; the
// report is then returned without an id and readiness only covers the process.
func NewHandler(reports ReportBuilder, archive ReportArchiver, store Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		reports:   reports,
		archive:   archive,
		store:     store,
		logger:    logger.With("component", "httpapi"),
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Readyz")
	defer span.End()

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "report store not ready", "error", err)
			writeError(ctx, w, fmt.Errorf("%w: report store: %v", usecase.ErrDependencyUnavailable, err))
			return
		}
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
