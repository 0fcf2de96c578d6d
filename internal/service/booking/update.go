package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/courtbooking/internal/conflict"
	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/metrics"
	"github.com/Domenick1991/courtbooking/internal/policy"
	"github.com/Domenick1991/courtbooking/internal/recurrence"
	"github.com/Domenick1991/courtbooking/internal/repository"
)

// UpdateBookingInput is a partial update. Nil fields are left unchanged.
type UpdateBookingInput struct {
	StartAt              *time.Time               `json:"start_at"`
	DurationMinutes      *int                     `json:"duration_minutes"`
	CourtID              *int64                   `json:"court_id"`
	Notes                *string                  `json:"notes"`
	NegotiatedTotalCents *int64                   `json:"negotiated_total_cents"`
	Recurrence           *domain.RecurrenceConfig `json:"recurrence"`
	Participants         *[]domain.Participant    `json:"participants"`
	IsLesson             *bool                    `json:"is_lesson"`
	InstructorID         *int64                   `json:"instructor_id"`
	ApplyToSeries        bool                     `json:"apply_to_series"`
}

// annotationsOnly reports a patch limited to notes and participants.
func (in UpdateBookingInput) annotationsOnly() bool {
	return in.StartAt == nil && in.DurationMinutes == nil && in.CourtID == nil &&
		in.NegotiatedTotalCents == nil && in.Recurrence == nil && in.IsLesson == nil && in.InstructorID == nil
}

func (in UpdateBookingInput) regeneratesSeries(current *domain.Booking) bool {
	return current.InSeries() && in.ApplyToSeries && in.Recurrence != nil && in.Recurrence.Type != ""
}

// apply returns a copy of b with the patch applied.
func (in UpdateBookingInput) apply(b *domain.Booking) *domain.Booking {
	next := *b
	if in.StartAt != nil {
		next.StartAt = in.StartAt.UTC()
	}
	if in.DurationMinutes != nil {
		next.DurationMinutes = *in.DurationMinutes
	}
	if in.CourtID != nil {
		next.CourtID = *in.CourtID
	}
	if in.Notes != nil {
		next.Notes = *in.Notes
	}
	if in.NegotiatedTotalCents != nil {
		v := *in.NegotiatedTotalCents
		next.NegotiatedTotalCents = &v
	}
	if in.Participants != nil {
		next.Participants = append([]domain.Participant(nil), (*in.Participants)...)
	}
	if in.IsLesson != nil {
		next.IsLesson = *in.IsLesson
		if !next.IsLesson && in.InstructorID == nil {
			next.InstructorID = nil
		}
	}
	if in.InstructorID != nil {
		v := *in.InstructorID
		next.InstructorID = &v
	}
	return &next
}

func scheduleChanged(a, b *domain.Booking) bool {
	return a.CourtID != b.CourtID || !a.StartAt.Equal(b.StartAt) || a.DurationMinutes != b.DurationMinutes
}

func (s *BookingService) UpdateBooking(ctx context.Context, actor *domain.Actor, id int64, input UpdateBookingInput) (*Result, error) {
	if actor == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	current, court, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	res := policy.ResourceOf(current, *court)
	if err := policy.Authorize(actor, policy.ActionUpdate, res); err != nil {
		return nil, err
	}

	next := input.apply(current)
	target := court
	if next.CourtID != current.CourtID {
		if target, err = s.catalog.GetCourt(ctx, next.CourtID); err != nil {
			return nil, s.fail("get court", err)
		}
		if err := policy.Authorize(actor, policy.ActionUpdate, policy.ResourceOf(next, *target)); err != nil {
			return nil, err
		}
	}
	if input.NegotiatedTotalCents != nil {
		if err := policy.Authorize(actor, policy.ActionNegotiatePrice, res); err != nil {
			return nil, err
		}
	}

	moved := scheduleChanged(current, next)
	if moved && current.StartAt.Sub(s.clock.Now()) < s.editLock && !policy.Can(actor, policy.ActionBypassEditLock, res) {
		return nil, fmt.Errorf("%w: booking %d starts within %s", domain.ErrEditLock, current.ID, s.editLock)
	}

	if current.Status.Terminal() {
		if !input.annotationsOnly() {
			return nil, fmt.Errorf("%w: only notes and participants of a %s booking can change", domain.ErrStateLock, current.Status)
		}
		if !policy.Can(actor, policy.ActionEditTerminal, res) {
			return nil, fmt.Errorf("%w: booking %d is %s", domain.ErrStateLock, current.ID, current.Status)
		}
	}

	if err := s.validateUpdate(ctx, current, next, target, input); err != nil {
		return nil, err
	}

	if moved || next.IsLesson != current.IsLesson {
		s.price(ctx, next)
	}
	next.UpdatedBy = actor.ID

	if input.regeneratesSeries(current) {
		return s.regenerateSeries(ctx, actor, current, next, *target, *input.Recurrence, moved)
	}
	return s.updateSingle(ctx, current, next, *court, *target, moved)
}

func (s *BookingService) validateUpdate(ctx context.Context, current, next *domain.Booking, target *domain.Court, input UpdateBookingInput) error {
	if next.DurationMinutes <= 0 {
		return domain.Validationf("duration_minutes must be positive")
	}
	if next.CourtID != current.CourtID && !target.Active {
		return domain.Validationf("court %d is not active", target.ID)
	}
	if input.StartAt != nil && !next.StartAt.Equal(current.StartAt) && next.StartAt.Before(s.clock.Now()) {
		return domain.Validationf("start_at must be in the future")
	}
	if input.NegotiatedTotalCents != nil && *input.NegotiatedTotalCents < 0 {
		return domain.Validationf("negotiated_total_cents must not be negative")
	}
	if input.Participants != nil {
		if err := validateParticipants(*input.Participants); err != nil {
			return err
		}
	}
	if input.IsLesson != nil || input.InstructorID != nil {
		return s.validateLesson(ctx, next.IsLesson, next.InstructorID)
	}
	return nil
}

func (s *BookingService) updateSingle(ctx context.Context, current, next *domain.Booking, from, to domain.Court, moved bool) (*Result, error) {
	cand := conflict.Candidate{Court: to, Start: next.StartAt, DurationMinutes: next.DurationMinutes, ExcludeID: current.ID}
	keys := s.checker.Keys([]conflict.Candidate{
		{Court: from, Start: current.StartAt, DurationMinutes: current.DurationMinutes},
		cand,
	})

	err := s.tx.WithinTx(ctx, keys, func(ctx context.Context, store repository.BookingStore) error {
		if err := s.recheck(ctx, store, current); err != nil {
			return err
		}
		if moved && next.Status == domain.BookingStatusConfirmed {
			snap, err := s.snapshot(ctx, store, []conflict.Candidate{cand})
			if err != nil {
				return err
			}
			if c := s.checker.Check(cand, snap); c != nil {
				return &domain.ConflictError{Conflicts: []domain.Conflict{*c}}
			}
		}
		return store.UpdateBooking(ctx, next)
	})
	if err != nil {
		return nil, s.fail("update booking", s.countConflict("update", err))
	}

	s.logger.Info().Int64("booking_id", next.ID).Bool("moved", moved).Msg("booking updated")
	return &Result{Booking: next, Affected: 1}, nil
}

// regenerateSeries replaces every sibling after the edited booking with a
// fresh expansion of cfg. The edited booking becomes the series anchor.
// Deletion, validation and insertion share one transaction.
func (s *BookingService) regenerateSeries(ctx context.Context, actor *domain.Actor, current, next *domain.Booking, court domain.Court, cfg domain.RecurrenceConfig, moved bool) (*Result, error) {
	if err := recurrence.Validate(cfg, s.maxOccurrences); err != nil {
		return nil, err
	}
	instants, err := recurrence.Expand(next.StartAt.In(s.loc), cfg, s.maxOccurrences)
	if err != nil {
		return nil, err
	}
	next.Recurrence = &cfg

	anchorCand := conflict.Candidate{Court: court, Start: next.StartAt, DurationMinutes: next.DurationMinutes, ExcludeID: current.ID}
	cands := make([]conflict.Candidate, 0, len(instants))
	for _, at := range instants {
		cands = append(cands, conflict.Candidate{Court: court, Start: at, DurationMinutes: next.DurationMinutes})
	}
	lockCands := append([]conflict.Candidate{anchorCand}, cands...)
	keys := mergeKeys(s.checker.Keys(lockCands), s.checker.Keys([]conflict.Candidate{
		{Court: domain.Court{ID: current.CourtID}, Start: current.StartAt, DurationMinutes: current.DurationMinutes},
	}))

	var (
		occurrences []domain.Booking
		removed     int64
	)
	err = s.tx.WithinTx(ctx, keys, func(ctx context.Context, store repository.BookingStore) error {
		if err := s.recheck(ctx, store, current); err != nil {
			return err
		}

		var err error
		if removed, err = store.DeleteSeriesWhere(ctx, *current.SeriesID, repository.After(next.StartAt), current.ID); err != nil {
			return err
		}
		if err := store.UpdateBooking(ctx, next); err != nil {
			return err
		}

		checked := cands
		if moved {
			checked = lockCands
		}
		snap, err := s.snapshot(ctx, store, checked)
		if err != nil {
			return err
		}
		if conflicts := s.checker.CheckAll(checked, snap); len(conflicts) > 0 {
			return &domain.ConflictError{Conflicts: conflicts}
		}

		occurrences = make([]domain.Booking, 0, len(instants))
		for _, at := range instants {
			occ := occurrenceOf(next, at, actor.ID)
			if err := store.InsertBooking(ctx, &occ); err != nil {
				return err
			}
			occurrences = append(occurrences, occ)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("regenerate series", s.countConflict("regenerate", err))
	}

	metrics.IncSeriesRegenerated()
	metrics.AddBookingsCreated("series", len(occurrences))
	s.logger.Info().
		Int64("booking_id", next.ID).
		Str("series_id", *next.SeriesID).
		Int64("removed", removed).
		Int("generated", len(occurrences)).
		Msg("series regenerated")
	return &Result{Booking: next, Occurrences: occurrences, Affected: len(occurrences) + 1}, nil
}

// recheck rejects the mutation when the row changed between the unlocked
// read and the locked transaction.
func (s *BookingService) recheck(ctx context.Context, store repository.BookingStore, seen *domain.Booking) error {
	fresh, err := store.GetBooking(ctx, seen.ID)
	if err != nil {
		return err
	}
	if !fresh.UpdatedAt.Equal(seen.UpdatedAt) {
		return fmt.Errorf("%w: booking %d was modified concurrently", domain.ErrConflict, seen.ID)
	}
	return nil
}

func mergeKeys(a, b []domain.SlotKey) []domain.SlotKey {
	seen := make(map[domain.SlotKey]struct{}, len(a)+len(b))
	out := make([]domain.SlotKey, 0, len(a)+len(b))
	for _, k := range append(append([]domain.SlotKey(nil), a...), b...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
