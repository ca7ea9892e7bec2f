package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	qb "github.com/riskibarqy/venue-insights/internal/platform/querybuilder"
)

const venueReportsTable = "venue_reports"

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Save(ctx context.Context, item venueperf.ArchivedReport) error {
	query, args, err := buildReportInsert(item)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert venue report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, reportID string) (venueperf.ArchivedReport, bool, error) {
	query, args, err := qb.Select("*").From(venueReportsTable).
		Where(qb.Eq("public_id", reportID)).
		ToSQL()
	if err != nil {
		return venueperf.ArchivedReport{}, false, fmt.Errorf("build get venue report query: %w", err)
	}

	var row venueReportTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return venueperf.ArchivedReport{}, false, nil
		}
		return venueperf.ArchivedReport{}, false, fmt.Errorf("get venue report: %w", err)
	}

	item, err := reportFromRow(row)
	if err != nil {
		return venueperf.ArchivedReport{}, false, err
	}
	return item, true, nil
}

func (r *ReportRepository) ListByKey(ctx context.Context, key string, limit int) ([]venueperf.ArchivedReport, error) {
	query, args, err := qb.Select("*").From(venueReportsTable).
		Where(qb.Eq("report_key", key)).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list venue reports query: %w", err)
	}

	var rows []venueReportTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select venue reports: %w", err)
	}

	out := make([]venueperf.ArchivedReport, 0, len(rows))
	for _, row := range rows {
		item, err := reportFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func buildReportInsert(item venueperf.ArchivedReport) (string, []any, error) {
	payload, err := venueperf.EncodeReport(item.Report)
	if err != nil {
		return "", nil, fmt.Errorf("encode venue report %s: %w", item.ID, err)
	}

	seasons := make(pq.Int64Array, 0, len(item.Seasons))
	for _, season := range item.Seasons {
		seasons = append(seasons, int64(season))
	}

	query, args, err := qb.InsertModel(venueReportsTable, venueReportInsertModel{
		PublicID:  item.ID,
		ReportKey: item.Key,
		PlayerID:  item.PlayerID,
		VenueID:   item.VenueID,
		Seasons:   seasons,
		State:     string(item.State),
		Partial:   item.Partial,
		Payload:   string(payload),
		CreatedAt: item.CreatedAt,
	}, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		return "", nil, fmt.Errorf("build insert venue report query: %w", err)
	}
	return query, args, nil
}

func reportFromRow(row venueReportTableModel) (venueperf.ArchivedReport, error) {
	report, err := venueperf.DecodeReport([]byte(row.Payload))
	if err != nil {
		return venueperf.ArchivedReport{}, fmt.Errorf("decode venue report %s: %w", row.PublicID, err)
	}

	seasons := make([]int, 0, len(row.Seasons))
	for _, season := range row.Seasons {
		seasons = append(seasons, int(season))
	}

	return venueperf.ArchivedReport{
		ID:        row.PublicID,
		Key:       row.ReportKey,
		PlayerID:  row.PlayerID,
		VenueID:   row.VenueID,
		Seasons:   seasons,
		State:     venueperf.State(row.State),
		Partial:   row.Partial,
		Report:    report,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}
