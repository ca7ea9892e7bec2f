package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	"github.com/riskibarqy/venue-insights/internal/platform/id"
	"github.com/riskibarqy/venue-insights/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ReportArchiveService keeps finished reports so they can be fetched again by id.
type ReportArchiveService struct {
	repo   venueperf.ReportRepository
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewReportArchiveService(repo venueperf.ReportRepository, ids id.Generator, logger *logging.Logger) *ReportArchiveService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &ReportArchiveService{
		repo:   repo,
		ids:    ids,
		logger: logger.With("component", "report_archive"),
		now:    time.Now,
	}
}

// Archive stores a done report. Failed reports carry no entity ids and are rejected.
func (s *ReportArchiveService) Archive(ctx context.Context, report venueperf.Report) (venueperf.ArchivedReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportArchiveService.Archive")
	defer span.End()

	if report.State != venueperf.StateDone || report.Player == nil || report.Venue == nil {
		return venueperf.ArchivedReport{}, fmt.Errorf("%w: only done reports can be archived, state=%s", ErrInvalidInput, report.State)
	}

	reportID, err := s.ids.NewID()
	if err != nil {
		return venueperf.ArchivedReport{}, fmt.Errorf("generate report id: %w", err)
	}

	item := venueperf.ArchivedReport{
		ID:        reportID,
		Key:       report.Key(),
		PlayerID:  report.Player.ID,
		VenueID:   report.Venue.ID,
		Seasons:   append([]int(nil), report.SeasonsAnalyzed...),
		State:     report.State,
		Partial:   report.Partial(),
		Report:    report,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return venueperf.ArchivedReport{}, fmt.Errorf("save report: %w", err)
	}

	span.SetAttributes(attribute.String("report.id", reportID))
	s.logger.InfoContext(ctx, "report archived", "report_id", reportID, "key", item.Key, "partial", item.Partial)
	return item, nil
}

func (s *ReportArchiveService) Get(ctx context.Context, reportID string) (venueperf.ArchivedReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportArchiveService.Get", attribute.String("report.id", reportID))
	defer span.End()

	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return venueperf.ArchivedReport{}, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}

	item, exists, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return venueperf.ArchivedReport{}, fmt.Errorf("get report: %w", err)
	}
	if !exists {
		return venueperf.ArchivedReport{}, fmt.Errorf("%w: report=%s", ErrNotFound, reportID)
	}
	return item, nil
}

// History lists archived reports for the same (player, venue, seasons), newest first.
func (s *ReportArchiveService) History(ctx context.Context, key string, limit int) ([]venueperf.ArchivedReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReportArchiveService.History", attribute.String("report.key", key))
	defer span.End()

	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: report key is required", ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	items, err := s.repo.ListByKey(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return items, nil
}
