package domain

import "time"

type Court struct {
	ID      int64  `json:"id"`
	VenueID int64  `json:"venue_id"`
	Name    string `json:"name"`
	Active  bool   `json:"active"`
}

// PriceRow is one time-of-day rate band of a court's price table.
// Minutes are venue wall-clock minutes, the range is [StartMinute, EndMinute).
type PriceRow struct {
	ID              int64  `json:"id"`
	CourtID         int64  `json:"court_id"`
	NormalRateCents int64  `json:"normal_rate_cents"`
	LessonRateCents *int64 `json:"lesson_rate_cents,omitempty"`
	StartMinute     int    `json:"start_minute"`
	EndMinute       int    `json:"end_minute"`
	Active          bool   `json:"active"`
}

// ScheduleBlock is an administrative blackout period.
// An empty CourtIDs set blocks the whole venue; nil minutes block full days.
type ScheduleBlock struct {
	ID          int64
	VenueID     int64
	CourtIDs    []int64
	StartDate   time.Time
	EndDate     time.Time
	StartMinute *int
	EndMinute   *int
	Title       string
}

func (b *ScheduleBlock) Covers(court Court) bool {
	if len(b.CourtIDs) == 0 {
		return b.VenueID == court.VenueID
	}
	for _, id := range b.CourtIDs {
		if id == court.ID {
			return true
		}
	}
	return false
}

func (b *ScheduleBlock) FullDay() bool {
	return b.StartMinute == nil || b.EndMinute == nil
}
