package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/courtbooking/internal/kafka"
	"github.com/rs/zerolog"
)

// Sender delivers booking notices. It writes to the log; a mail gateway
// plugs in behind the same method.
type Sender struct {
	logger zerolog.Logger
	loc    *time.Location
}

func NewSender(logger zerolog.Logger, loc *time.Location) *Sender {
	if loc == nil {
		loc = time.UTC
	}
	return &Sender{logger: logger.With().Str("component", "email").Logger(), loc: loc}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info().
		Str("event", event.Type).
		Int64("booking_id", event.BookingID).
		Str("subject", Subject(event, s.loc)).
		Msg("send email")
	return nil
}

// Subject renders the notice title in the venue's local time.
func Subject(event kafka.BookingEvent, loc *time.Location) string {
	when := event.StartAt.In(loc).Format("Mon 02 Jan 2006 15:04")
	switch event.Type {
	case kafka.EventBookingCreated:
		if event.Occurrences > 1 {
			return fmt.Sprintf("Court %d booked from %s (%d sessions)", event.CourtID, when, event.Occurrences)
		}
		return fmt.Sprintf("Court %d booked for %s", event.CourtID, when)
	case kafka.EventBookingCancelled:
		if event.Occurrences > 1 {
			return fmt.Sprintf("%d sessions on court %d cancelled from %s", event.Occurrences, event.CourtID, when)
		}
		return fmt.Sprintf("Court %d booking on %s cancelled", event.CourtID, when)
	case kafka.EventBookingCompleted:
		return fmt.Sprintf("Thanks for playing on court %d", event.CourtID)
	}
	return fmt.Sprintf("Court %d booking update", event.CourtID)
}
