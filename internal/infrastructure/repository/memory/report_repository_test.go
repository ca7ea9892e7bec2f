package memory

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
)

func TestReportRepository_ListByKeyNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewReportRepository()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	items := []venueperf.ArchivedReport{
		{ID: "a", Key: "1:22:2023", CreatedAt: base},
		{ID: "b", Key: "1:22:2023", CreatedAt: base.Add(time.Hour)},
		{ID: "c", Key: "1:22:2024", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "d", Key: "1:22:2023", CreatedAt: base.Add(time.Hour)},
	}
	for _, item := range items {
		if err := repo.Save(ctx, item); err != nil {
			t.Fatalf("save %s: %v", item.ID, err)
		}
	}

	got, err := repo.ListByKey(ctx, "1:22:2023", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "d" || got[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}

	item, ok, err := repo.GetByID(ctx, "c")
	if err != nil || !ok || item.Key != "1:22:2024" {
		t.Fatalf("get c: item=%+v ok=%v err=%v", item, ok, err)
	}
	if _, ok, _ := repo.GetByID(ctx, "missing"); ok {
		t.Fatalf("missing report must not be found")
	}
}
