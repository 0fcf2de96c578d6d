// Package pricing resolves hourly rates from a court's time-of-day price table.
package pricing

import (
	"sort"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
)

// Quote is the resolved price. Both fields are nil when no rate row matches.
type Quote struct {
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
	TotalCents      *int64 `json:"total_cents"`
}

// Resolve picks the first active row of the court, by ascending start minute,
// whose [start, end) range contains the wall-clock minute of startAt in loc.
// It never fails; unresolved input yields an empty Quote.
//
// Overlapping rows are resolved by lowest start minute. That ordering is a
// product assumption, not a validated rule.
func Resolve(rows []domain.PriceRow, courtID int64, startAt time.Time, loc *time.Location, durationMinutes int, isLesson bool) Quote {
	if durationMinutes <= 0 {
		return Quote{}
	}
	if loc == nil {
		loc = time.UTC
	}

	candidates := make([]domain.PriceRow, 0, len(rows))
	for _, r := range rows {
		if r.Active && r.CourtID == courtID {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].StartMinute < candidates[j].StartMinute
	})

	local := startAt.In(loc)
	minute := local.Hour()*60 + local.Minute()

	for _, r := range candidates {
		if minute < r.StartMinute || minute >= r.EndMinute {
			continue
		}
		rate := r.NormalRateCents
		if isLesson && r.LessonRateCents != nil {
			rate = *r.LessonRateCents
		}
		total := Total(rate, durationMinutes)
		return Quote{HourlyRateCents: &rate, TotalCents: &total}
	}
	return Quote{}
}

// Total is rate * minutes / 60 in cents, rounded half-up.
func Total(rateCents int64, minutes int) int64 {
	num := rateCents * int64(minutes)
	if num >= 0 {
		return (num + 30) / 60
	}
	return -((-num + 30) / 60)
}
