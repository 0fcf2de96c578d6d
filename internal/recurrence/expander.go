// Package recurrence expands a series definition into concrete occurrence start times.
package recurrence

import (
	"sort"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
)

// DefaultLimit caps open-ended series when the caller has no configured ceiling.
const DefaultLimit = 104

// Largest accepted interval per type: one year of steps.
const (
	MaxDailyInterval   = 366
	MaxWeeklyInterval  = 52
	MaxMonthlyInterval = 12
)

// Validate rejects malformed configurations. limit is the hard occurrence ceiling.
func Validate(cfg domain.RecurrenceConfig, limit int) error {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if cfg.Interval < 1 {
		return domain.Validationf("recurrence interval must be at least 1, got %d", cfg.Interval)
	}
	if cfg.EndDate != nil && cfg.OccurrenceCount != nil {
		return domain.Validationf("recurrence accepts either end_date or occurrence_count, not both")
	}
	if cfg.OccurrenceCount != nil {
		if *cfg.OccurrenceCount < 1 {
			return domain.Validationf("occurrence_count must be positive")
		}
		if *cfg.OccurrenceCount > limit {
			return domain.Validationf("occurrence_count %d exceeds the maximum of %d", *cfg.OccurrenceCount, limit)
		}
	}

	switch cfg.Type {
	case domain.RecurrenceDaily:
		if cfg.Interval > MaxDailyInterval {
			return domain.Validationf("daily interval must be at most %d, got %d", MaxDailyInterval, cfg.Interval)
		}
	case domain.RecurrenceWeekly:
		if cfg.Interval > MaxWeeklyInterval {
			return domain.Validationf("weekly interval must be at most %d, got %d", MaxWeeklyInterval, cfg.Interval)
		}
		if len(cfg.Weekdays) == 0 {
			return domain.Validationf("weekly recurrence needs at least one weekday")
		}
		for _, wd := range cfg.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return domain.Validationf("invalid weekday %d", wd)
			}
		}
	case domain.RecurrenceMonthly:
		if cfg.Interval > MaxMonthlyInterval {
			return domain.Validationf("monthly interval must be at most %d, got %d", MaxMonthlyInterval, cfg.Interval)
		}
		if cfg.DayOfMonth < 1 || cfg.DayOfMonth > 31 {
			return domain.Validationf("monthly recurrence needs day_of_month in 1..31, got %d", cfg.DayOfMonth)
		}
	default:
		return domain.Validationf("unknown recurrence type %q", cfg.Type)
	}
	return nil
}

// Expand returns the occurrences following anchor, strictly increasing and
// excluding anchor itself. Wall-clock arithmetic uses anchor's location, so
// the local start time survives DST changes. At most limit instants are returned.
func Expand(anchor time.Time, cfg domain.RecurrenceConfig, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := Validate(cfg, limit); err != nil {
		return nil, err
	}

	want := limit
	if cfg.OccurrenceCount != nil {
		want = *cfg.OccurrenceCount
	}

	var endBound time.Time
	if cfg.EndDate != nil {
		e := *cfg.EndDate
		endBound = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, anchor.Location()).AddDate(0, 0, 1)
	}

	next := generator(anchor, cfg)
	out := make([]time.Time, 0, min(want, 16))
	prev := time.Time{}
	for len(out) < want {
		t := next()
		// the generator is strictly increasing; anything else means the
		// date arithmetic left the representable range
		if !prev.IsZero() && !t.After(prev) {
			break
		}
		prev = t
		if !t.After(anchor) {
			continue
		}
		if !endBound.IsZero() && !t.Before(endBound) {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

// generator yields candidate instants in increasing order, possibly including
// some at or before the anchor which Expand discards.
func generator(anchor time.Time, cfg domain.RecurrenceConfig) func() time.Time {
	switch cfg.Type {
	case domain.RecurrenceWeekly:
		return weekly(anchor, cfg.Interval, cfg.Weekdays)
	case domain.RecurrenceMonthly:
		return monthly(anchor, cfg.Interval, cfg.DayOfMonth)
	default:
		k := 0
		return func() time.Time {
			k++
			return anchor.AddDate(0, 0, k*cfg.Interval)
		}
	}
}

func weekly(anchor time.Time, interval int, weekdays []time.Weekday) func() time.Time {
	offsets := weekdayOffsets(weekdays)
	weekStart := atClock(anchor.AddDate(0, 0, -mondayOffset(anchor.Weekday())), 0, 0, 0, 0)

	block, idx := 0, 0
	return func() time.Time {
		if idx == len(offsets) {
			block++
			idx = 0
		}
		day := weekStart.AddDate(0, 0, block*interval*7+offsets[idx])
		idx++
		return atClock(day, anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond())
	}
}

func monthly(anchor time.Time, interval, dayOfMonth int) func() time.Time {
	k := -1
	return func() time.Time {
		k++
		first := time.Date(anchor.Year(), anchor.Month()+time.Month(k*interval), 1, 0, 0, 0, 0, anchor.Location())
		day := min(dayOfMonth, daysIn(first))
		return time.Date(first.Year(), first.Month(), day,
			anchor.Hour(), anchor.Minute(), anchor.Second(), anchor.Nanosecond(), anchor.Location())
	}
}

// weekdayOffsets returns distinct day offsets from Monday, ascending.
func weekdayOffsets(weekdays []time.Weekday) []int {
	seen := make(map[int]struct{}, len(weekdays))
	offsets := make([]int, 0, len(weekdays))
	for _, wd := range weekdays {
		off := mondayOffset(wd)
		if _, ok := seen[off]; ok {
			continue
		}
		seen[off] = struct{}{}
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	return offsets
}

func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func atClock(day time.Time, hour, minute, sec, nsec int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, sec, nsec, day.Location())
}

func daysIn(first time.Time) int {
	return first.AddDate(0, 1, -1).Day()
}
