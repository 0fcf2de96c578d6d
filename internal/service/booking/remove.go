package booking

import (
	"context"

	"github.com/Domenick1991/courtbooking/internal/conflict"
	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/metrics"
	"github.com/Domenick1991/courtbooking/internal/policy"
	"github.com/Domenick1991/courtbooking/internal/repository"
)

// CancelBooking sets the target, and with ScopeThisAndFuture every confirmed
// sibling starting at or after it, to CANCELLED.
func (s *BookingService) CancelBooking(ctx context.Context, actor *domain.Actor, id int64, scope Scope) (*Result, error) {
	if actor == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	target, court, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionCancel, policy.ResourceOf(target, *court)); err != nil {
		return nil, err
	}
	if target.Status.Terminal() {
		return nil, domain.Validationf("booking %d is already %s", target.ID, target.Status)
	}

	var cancelled []domain.Booking
	err = s.tx.WithinTx(ctx, s.keysOf(target), func(ctx context.Context, store repository.BookingStore) error {
		if err := s.recheck(ctx, store, target); err != nil {
			return err
		}

		victims := []domain.Booking{*target}
		if scope == ScopeThisAndFuture && target.InSeries() {
			siblings, err := store.ListSeriesWhere(ctx, *target.SeriesID, repository.AtOrAfter(target.StartAt), target.ID)
			if err != nil {
				return err
			}
			for _, sib := range siblings {
				if sib.Status == domain.BookingStatusConfirmed {
					victims = append(victims, sib)
				}
			}
		}

		cancelled = make([]domain.Booking, 0, len(victims))
		for _, b := range victims {
			b.Status = domain.BookingStatusCancelled
			b.UpdatedBy = actor.ID
			if err := store.UpdateBooking(ctx, &b); err != nil {
				return err
			}
			cancelled = append(cancelled, b)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("cancel booking", err)
	}

	metrics.AddBookingsCancelled(len(cancelled))
	s.logger.Info().
		Int64("booking_id", target.ID).
		Str("scope", string(scope)).
		Int("count", len(cancelled)).
		Msg("booking cancelled")
	if s.notifier != nil {
		s.notifier.NotifyCancelled(ctx, &cancelled[0], len(cancelled))
	}
	return &Result{Booking: &cancelled[0], Occurrences: cancelled[1:], Affected: len(cancelled)}, nil
}

// DeleteBooking permanently removes the target, and with ScopeThisAndFuture
// every sibling starting at or after it. The target is always removed by id.
func (s *BookingService) DeleteBooking(ctx context.Context, actor *domain.Actor, id int64, scope Scope) (*Result, error) {
	if actor == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	target, court, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionDelete, policy.ResourceOf(target, *court)); err != nil {
		return nil, err
	}

	var removed int64
	err = s.tx.WithinTx(ctx, s.keysOf(target), func(ctx context.Context, store repository.BookingStore) error {
		if scope == ScopeThisAndFuture && target.InSeries() {
			n, err := store.DeleteSeriesWhere(ctx, *target.SeriesID, repository.AtOrAfter(target.StartAt), target.ID)
			if err != nil {
				return err
			}
			removed += n
		}
		if err := store.DeleteBooking(ctx, target.ID); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return nil, s.fail("delete booking", err)
	}

	metrics.AddBookingsDeleted(int(removed))
	s.logger.Info().
		Int64("booking_id", target.ID).
		Str("scope", string(scope)).
		Int64("count", removed).
		Msg("booking deleted")
	return &Result{Booking: target, Affected: int(removed)}, nil
}

func (s *BookingService) keysOf(b *domain.Booking) []domain.SlotKey {
	return s.checker.Keys([]conflict.Candidate{
		{Court: domain.Court{ID: b.CourtID}, Start: b.StartAt, DurationMinutes: b.DurationMinutes},
	})
}
