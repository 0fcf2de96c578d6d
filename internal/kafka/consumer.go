package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// EventHandler processes one decoded booking event.
type EventHandler func(ctx context.Context, event BookingEvent) error

// Consumer feeds booking events from one topic to an EventHandler.
type Consumer struct {
	reader messageReader
	logger zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger zerolog.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}), logger.With().Str("topic", topic).Logger())
}

func newConsumer(r messageReader, logger zerolog.Logger) *Consumer {
	return &Consumer{reader: r, logger: logger.With().Str("component", "kafka_consumer").Logger()}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run reads until ctx is cancelled, which is not an error. Undecodable
// messages are logged and skipped; a handler error stops the loop.
func (c *Consumer) Run(ctx context.Context, handle EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read booking event: %w", err)
		}

		event, err := DecodeBookingEvent(msg)
		if err != nil {
			c.logger.Warn().Err(err).Int("partition", msg.Partition).Msg("skip undecodable event")
			continue
		}
		if err := handle(ctx, event); err != nil {
			return fmt.Errorf("handle %s for booking %d: %w", event.Type, event.BookingID, err)
		}
	}
}

func DecodeBookingEvent(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event at offset %d: %w", msg.Offset, err)
	}
	if event.Type == "" || event.BookingID == 0 {
		return BookingEvent{}, fmt.Errorf("decode booking event at offset %d: missing type or booking id", msg.Offset)
	}
	return event, nil
}
