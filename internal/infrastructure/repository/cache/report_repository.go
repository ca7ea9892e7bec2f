package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	basecache "github.com/riskibarqy/venue-insights/internal/platform/cache"
)

type cachedReportByID struct {
	value  venueperf.ArchivedReport
	exists bool
}

// ReportRepository serves GetByID from memory. Archived reports are
// immutable, so Save primes the cache instead of invalidating it.
type ReportRepository struct {
	next  venueperf.ReportRepository
	cache *basecache.Store[cachedReportByID]
	ttl   time.Duration
}

func NewReportRepository(next venueperf.ReportRepository, ttl time.Duration) *ReportRepository {
	return &ReportRepository{
		next:  next,
		cache: basecache.NewStore[cachedReportByID](ttl),
		ttl:   ttl,
	}
}

func (r *ReportRepository) Save(ctx context.Context, item venueperf.ArchivedReport) error {
	if err := r.next.Save(ctx, item); err != nil {
		return err
	}
	r.cache.SetWithTTL(ctx, reportIDKey(item.ID), cachedReportByID{value: item, exists: true}, r.ttl)
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, reportID string) (venueperf.ArchivedReport, bool, error) {
	cached, _, err := r.cache.GetOrLoad(ctx, reportIDKey(reportID), r.ttl, func(ctx context.Context) (cachedReportByID, error) {
		item, exists, err := r.next.GetByID(ctx, reportID)
		if err != nil {
			return cachedReportByID{}, err
		}
		return cachedReportByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return venueperf.ArchivedReport{}, false, err
	}
	return cached.value, cached.exists, nil
}

// ListByKey always reads through; new reports for a key arrive constantly.
func (r *ReportRepository) ListByKey(ctx context.Context, key string, limit int) ([]venueperf.ArchivedReport, error) {
	return r.next.ListByKey(ctx, key, limit)
}

func reportIDKey(reportID string) string {
	return "report:id:" + reportID
}

// RunJanitor evicts expired entries until ctx is done.
func (r *ReportRepository) RunJanitor(ctx context.Context, interval time.Duration) {
	r.cache.RunJanitor(ctx, interval)
}
