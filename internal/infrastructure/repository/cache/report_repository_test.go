package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/venue-insights/internal/domain/venueperf"
	venueperfmock "github.com/riskibarqy/venue-insights/internal/mocks/domain/venueperf"
	"github.com/stretchr/testify/mock"
)

func TestReportRepository_GetByIDReadsThroughOnce(t *testing.T) {
	t.Parallel()

	next := venueperfmock.NewReportRepository(t)
	next.
		On("GetByID", mock.Anything, "rep-1").
		Return(venueperf.ArchivedReport{ID: "rep-1", Key: "1:2:2024"}, true, nil).
		Once()

	repo := NewReportRepository(next, time.Minute)
	for i := 0; i < 3; i++ {
		item, ok, err := repo.GetByID(context.Background(), "rep-1")
		if err != nil || !ok || item.Key != "1:2:2024" {
			t.Fatalf("get %d: item=%+v ok=%v err=%v", i, item, ok, err)
		}
	}
}

func TestReportRepository_SavePrimesCache(t *testing.T) {
	t.Parallel()

	item := venueperf.ArchivedReport{ID: "rep-2", Key: "1:2:2023"}
	next := venueperfmock.NewReportRepository(t)
	next.On("Save", mock.Anything, item).Return(nil).Once()

	repo := NewReportRepository(next, time.Minute)
	if err := repo.Save(context.Background(), item); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := repo.GetByID(context.Background(), "rep-2")
	if err != nil || !ok || got.ID != "rep-2" {
		t.Fatalf("expected primed entry, got item=%+v ok=%v err=%v", got, ok, err)
	}
	next.AssertNotCalled(t, "GetByID", mock.Anything, "rep-2")
}
