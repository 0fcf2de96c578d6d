package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishRoundTrip(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, zerolog.Nop())

	event := BookingEvent{
		Type:            EventBookingCreated,
		BookingID:       12,
		CourtID:         3,
		SeriesID:        "2b0d6f2e-2a64-4a36-9a62-6a3bd3a1f0c1",
		StartAt:         time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          "CONFIRMED",
		Occurrences:     4,
	}
	require.NoError(t, p.Publish(context.Background(), "bookings.notifications", "12", event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "bookings.notifications", w.msgs[0].Topic)
	assert.Equal(t, []byte("12"), w.msgs[0].Key)

	decoded, err := DecodeBookingEvent(w.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, event, decoded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishErrors(t *testing.T) {
	p := newProducer(&recordingWriter{err: errors.New("broker down")}, zerolog.Nop())
	err := p.Publish(context.Background(), "t", "k", BookingEvent{})
	assert.ErrorContains(t, err, "broker down")

	err = p.Publish(context.Background(), "t", "k", make(chan int))
	assert.ErrorContains(t, err, "marshal")
}

func TestDecodeBookingEvent_Invalid(t *testing.T) {
	_, err := DecodeBookingEvent(kafka.Message{Value: []byte("{"), Offset: 7})
	assert.ErrorContains(t, err, "offset 7")

	_, err = DecodeBookingEvent(kafka.Message{Value: []byte(`{"type":"booking_created"}`), Offset: 8})
	assert.ErrorContains(t, err, "missing type or booking id")
}
