package postgres

import (
	"time"

	"github.com/lib/pq"
)

type venueReportTableModel struct {
	ID        int64         `db:"id"`
	PublicID  string        `db:"public_id"`
	ReportKey string        `db:"report_key"`
	PlayerID  int64         `db:"player_id"`
	VenueID   int64         `db:"venue_id"`
	Seasons   pq.Int64Array `db:"seasons"`
	State     string        `db:"state"`
	Partial   bool          `db:"partial"`
	Payload   string        `db:"payload"`
	CreatedAt time.Time     `db:"created_at"`
}

type venueReportInsertModel struct {
	PublicID  string        `db:"public_id"`
	ReportKey string        `db:"report_key"`
	PlayerID  int64         `db:"player_id"`
	VenueID   int64         `db:"venue_id"`
	Seasons   pq.Int64Array `db:"seasons"`
	State     string        `db:"state"`
	Partial   bool          `db:"partial"`
	Payload   string        `db:"payload"`
	CreatedAt time.Time     `db:"created_at,omitempty"`
}
