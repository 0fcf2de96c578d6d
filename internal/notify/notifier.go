// Package notify publishes booking events without ever failing the mutation
// that produced them.
package notify

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/Domenick1991/courtbooking/internal/kafka"
	"github.com/Domenick1991/courtbooking/internal/metrics"
	"github.com/rs/zerolog"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

type Notifier struct {
	producer Publisher
	topics   []string
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

type Option func(*Notifier)

func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier publishes every event to each non-empty topic.
func NewNotifier(producer Publisher, logger zerolog.Logger, topics []string, opts ...Option) *Notifier {
	n := &Notifier{
		producer: producer,
		timeout:  5 * time.Second,
		logger:   logger.With().Str("component", "notifier").Logger(),
		now:      time.Now,
	}
	for _, t := range topics {
		if t != "" {
			n.topics = append(n.topics, t)
		}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) NotifyCreated(ctx context.Context, anchor *domain.Booking, occurrences int) {
	n.dispatch(ctx, kafka.EventBookingCreated, anchor, occurrences)
}

func (n *Notifier) NotifyCancelled(ctx context.Context, b *domain.Booking, count int) {
	n.dispatch(ctx, kafka.EventBookingCancelled, b, count)
}

func (n *Notifier) NotifyCompleted(ctx context.Context, b *domain.Booking) {
	n.dispatch(ctx, kafka.EventBookingCompleted, b, 1)
}

// Wait blocks until in-flight notifications finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(ctx context.Context, eventType string, b *domain.Booking, occurrences int) {
	if n == nil || n.producer == nil || len(n.topics) == 0 {
		return
	}
	event := n.event(eventType, b, occurrences)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		n.send(ctx, event)
	}()
}

func (n *Notifier) send(ctx context.Context, event kafka.BookingEvent) {
	key := strconv.FormatInt(event.BookingID, 10)
	for _, topic := range n.topics {
		if err := n.producer.Publish(ctx, topic, key, event); err != nil {
			metrics.IncNotifyFailure(event.Type)
			n.logger.Warn().Err(err).
				Str("topic", topic).
				Str("event", event.Type).
				Int64("booking_id", event.BookingID).
				Msg("failed to publish booking event")
		}
	}
}

func (n *Notifier) event(eventType string, b *domain.Booking, occurrences int) kafka.BookingEvent {
	ev := kafka.BookingEvent{
		Type:            eventType,
		BookingID:       b.ID,
		CourtID:         b.CourtID,
		AthleteID:       b.AthleteID,
		CustomerName:    b.CustomerName,
		StartAt:         b.StartAt.UTC(),
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		Occurrences:     occurrences,
		OccurredAt:      n.now().UTC(),
	}
	if b.SeriesID != nil {
		ev.SeriesID = *b.SeriesID
	}
	return ev
}
