package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

type ReportRepository struct {
	mu    sync.RWMutex
	items map[string]venueperf.ArchivedReport
	byKey map[string][]string
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{
		items: make(map[string]venueperf.ArchivedReport),
		byKey: make(map[string][]string),
	}
}

func (r *ReportRepository) Save(_ context.Context, item venueperf.ArchivedReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		r.byKey[item.Key] = append(r.byKey[item.Key], item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *ReportRepository) GetByID(_ context.Context, reportID string) (venueperf.ArchivedReport, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[reportID]
	if !ok {
		return venueperf.ArchivedReport{}, false, nil
	}
	return item, true, nil
}

// ListByKey returns newest first; reports saved at the same instant keep
// reverse insertion order.
func (r *ReportRepository) ListByKey(_ context.Context, key string, limit int) ([]venueperf.ArchivedReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byKey[key]
	out := make([]venueperf.ArchivedReport, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, r.items[ids[i]])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
