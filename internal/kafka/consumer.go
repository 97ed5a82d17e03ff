package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	logger observability.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger observability.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume hands every message to handler and commits it afterwards. A
// message the handler rejects is logged and committed so one bad payload
// cannot stall the partition. Consume returns when ctx is done.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "fetch message")
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Error("handle kafka message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "commit message")
		}
	}
}

// ConsumeRefunds decodes RefundRequest messages.
func (c *Consumer) ConsumeRefunds(ctx context.Context, handle func(context.Context, RefundRequest) error) error {
	return c.Consume(ctx, func(ctx context.Context, msg kafka.Message) error {
		var req RefundRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			return errors.Wrap(err, "decode refund request")
		}
		return handle(ctx, req)
	})
}
