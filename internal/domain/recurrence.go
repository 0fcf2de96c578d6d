package domain

import "time"

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
)

// RecurrenceConfig is stored on the series anchor only.
// At most one of EndDate and OccurrenceCount is set; neither means open-ended.
type RecurrenceConfig struct {
	Type            RecurrenceType `json:"type"`
	Interval        int            `json:"interval"`
	Weekdays        []time.Weekday `json:"weekdays,omitempty"`
	DayOfMonth      int            `json:"day_of_month,omitempty"`
	EndDate         *time.Time     `json:"end_date,omitempty"`
	OccurrenceCount *int           `json:"occurrence_count,omitempty"`
}
