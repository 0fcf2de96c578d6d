// Package conflict decides whether a candidate slot collides with confirmed
// bookings or blackout blocks.
package conflict

import (
	"sort"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
)

const dayLayout = "2006-01-02"

// Candidate is a slot someone wants to occupy.
type Candidate struct {
	Court           domain.Court
	Start           time.Time
	DurationMinutes int
	ExcludeID       int64
}

func (c Candidate) End() time.Time {
	return c.Start.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// Snapshot is a consistent read of the bookings and blocks around the candidates.
type Snapshot struct {
	Bookings []domain.Booking
	Blocks   []domain.ScheduleBlock
}

// Checker evaluates candidates in the venue time zone.
type Checker struct {
	loc *time.Location
}

func NewChecker(loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{loc: loc}
}

// Overlaps is the half-open interval test: touching endpoints never overlap.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

// Check returns the first entity the candidate collides with, or nil.
func (c *Checker) Check(cand Candidate, snap Snapshot) *domain.Conflict {
	end := cand.End()
	for i := range snap.Bookings {
		b := &snap.Bookings[i]
		if b.Status != domain.BookingStatusConfirmed || b.CourtID != cand.Court.ID {
			continue
		}
		if cand.ExcludeID != 0 && b.ID == cand.ExcludeID {
			continue
		}
		if Overlaps(b.StartAt, b.EndAt(), cand.Start, end) {
			return &domain.Conflict{Start: cand.Start, Kind: domain.ConflictWithBooking, BookingID: b.ID}
		}
	}

	local := cand.Start.In(c.loc)
	day := local.Format(dayLayout)
	startMinute := local.Hour()*60 + local.Minute()
	endMinute := startMinute + cand.DurationMinutes

	for i := range snap.Blocks {
		blk := &snap.Blocks[i]
		if !blk.Covers(cand.Court) {
			continue
		}
		if day < blk.StartDate.Format(dayLayout) || day > blk.EndDate.Format(dayLayout) {
			continue
		}
		if blk.FullDay() || (startMinute < *blk.EndMinute && *blk.StartMinute < endMinute) {
			return &domain.Conflict{Start: cand.Start, Kind: domain.ConflictWithBlock, BlockID: blk.ID, Title: blk.Title}
		}
	}
	return nil
}

// CheckAll validates every candidate against the same snapshot and reports
// all collisions, in candidate order.
func (c *Checker) CheckAll(cands []Candidate, snap Snapshot) []domain.Conflict {
	var out []domain.Conflict
	for _, cand := range cands {
		if conflict := c.Check(cand, snap); conflict != nil {
			out = append(out, *conflict)
		}
	}
	return out
}

// Window returns the smallest time range covering all candidates.
func Window(cands []Candidate) (from, to time.Time) {
	for i, cand := range cands {
		if i == 0 || cand.Start.Before(from) {
			from = cand.Start
		}
		if end := cand.End(); i == 0 || end.After(to) {
			to = end
		}
	}
	return from, to
}

// Days returns the distinct venue-local calendar days the candidates start on.
func (c *Checker) Days(cands []Candidate) (first, last time.Time) {
	for i, cand := range cands {
		local := cand.Start.In(c.loc)
		d := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		if i == 0 || d.Before(first) {
			first = d
		}
		if i == 0 || d.After(last) {
			last = d
		}
	}
	return first, last
}

// Keys lists the (court, day) lock keys of the candidates, sorted and unique.
// A candidate holds a key for every venue-local day its [start, end) touches,
// so slots crossing midnight serialize with both days.
func (c *Checker) Keys(cands []Candidate) []domain.SlotKey {
	seen := make(map[domain.SlotKey]struct{}, len(cands))
	keys := make([]domain.SlotKey, 0, len(cands))
	for _, cand := range cands {
		for _, day := range c.spannedDays(cand) {
			k := domain.SlotKey{CourtID: cand.Court.ID, Day: day}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CourtID != keys[j].CourtID {
			return keys[i].CourtID < keys[j].CourtID
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}

func (c *Checker) spannedDays(cand Candidate) []string {
	local := cand.Start.In(c.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	end := cand.End()

	days := []string{day.Format(dayLayout)}
	for {
		day = day.AddDate(0, 0, 1)
		if !day.Before(end) {
			return days
		}
		days = append(days, day.Format(dayLayout))
	}
}
