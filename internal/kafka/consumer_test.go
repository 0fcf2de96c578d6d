package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader serves queued messages, then blocks until ctx ends.
type queueReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		return msg, nil
	}
	if r.err != nil {
		return kafka.Message{}, r.err
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) Close() error {
	r.closed = true
	return nil
}

func encoded(t *testing.T, event BookingEvent, offset int64) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw, Offset: offset}
}

func TestConsumer_RunDispatchesAndSkipsGarbage(t *testing.T) {
	created := BookingEvent{Type: EventBookingCreated, BookingID: 4, CourtID: 7, Occurrences: 3}
	cancelled := BookingEvent{Type: EventBookingCancelled, BookingID: 5, CourtID: 7}
	r := &queueReader{msgs: []kafka.Message{
		encoded(t, created, 1),
		{Value: []byte("not json"), Offset: 2},
		{Value: []byte(`{"type":""}`), Offset: 3},
		encoded(t, cancelled, 4),
	}}
	c := newConsumer(r, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var got []BookingEvent
	err := c.Run(ctx, func(_ context.Context, event BookingEvent) error {
		got = append(got, event)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []BookingEvent{created, cancelled}, got)
	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}

func TestConsumer_RunStopsOnHandlerError(t *testing.T) {
	r := &queueReader{msgs: []kafka.Message{
		encoded(t, BookingEvent{Type: EventBookingCompleted, BookingID: 9}, 1),
		encoded(t, BookingEvent{Type: EventBookingCompleted, BookingID: 10}, 2),
	}}
	c := newConsumer(r, zerolog.Nop())

	calls := 0
	err := c.Run(context.Background(), func(context.Context, BookingEvent) error {
		calls++
		return errors.New("smtp down")
	})

	assert.ErrorContains(t, err, "booking 9")
	assert.ErrorContains(t, err, "smtp down")
	assert.Equal(t, 1, calls)
	assert.Len(t, r.msgs, 1)
}

func TestConsumer_RunReportsReadErrors(t *testing.T) {
	c := newConsumer(&queueReader{err: errors.New("group coordinator not available")}, zerolog.Nop())

	err := c.Run(context.Background(), func(context.Context, BookingEvent) error { return nil })
	assert.ErrorContains(t, err, "read booking event")
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
