package venueperf

import (
	"context"
	"time"
)

// ArchivedReport is a finished report handed to the persistence collaborator.
type ArchivedReport struct {
	ID        string
	Key       string
	PlayerID  int64
	VenueID   int64
	Seasons   []int
	State     State
	Partial   bool
	Report    Report
	CreatedAt time.Time
}

type ReportRepository interface {
	Save(ctx context.Context, item ArchivedReport) error
	GetByID(ctx context.Context, id string) (ArchivedReport, bool, error)
	ListByKey(ctx context.Context, key string, limit int) ([]ArchivedReport, error)
}
