package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// Terminal reports whether no further status transitions are allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Participant is either a registered athlete or a free-text guest name.
type Participant struct {
	AthleteID *int64 `json:"athlete_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

type Booking struct {
	ID                   int64             `json:"id"`
	CourtID              int64             `json:"court_id"`
	AthleteID            *int64            `json:"athlete_id,omitempty"`
	CustomerName         string            `json:"customer_name,omitempty"`
	CustomerPhone        string            `json:"customer_phone,omitempty"`
	StartAt              time.Time         `json:"start_at"`
	DurationMinutes      int               `json:"duration_minutes"`
	Status               BookingStatus     `json:"status"`
	HourlyRateCents      *int64            `json:"hourly_rate_cents"`
	ComputedTotalCents   *int64            `json:"computed_total_cents"`
	NegotiatedTotalCents *int64            `json:"negotiated_total_cents,omitempty"`
	Notes                string            `json:"notes,omitempty"`
	IsLesson             bool              `json:"is_lesson"`
	InstructorID         *int64            `json:"instructor_id,omitempty"`
	SeriesID             *string           `json:"series_id,omitempty"`
	Recurrence           *RecurrenceConfig `json:"recurrence,omitempty"`
	Participants         []Participant     `json:"participants,omitempty"`
	CreatedBy            int64             `json:"created_by"`
	UpdatedBy            int64             `json:"updated_by"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (b *Booking) EndAt() time.Time {
	return b.StartAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

// IsHouse reports a booking without any customer reference.
func (b *Booking) IsHouse() bool {
	return b.AthleteID == nil && b.CustomerName == "" && b.CustomerPhone == ""
}

func (b *Booking) InSeries() bool {
	return b.SeriesID != nil && *b.SeriesID != ""
}

// SlotKey identifies the unit of mutual exclusion for conflict checks.
type SlotKey struct {
	CourtID int64
	Day     string // YYYY-MM-DD in the venue zone
}
