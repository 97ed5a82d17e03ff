package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/observability"
	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "booking.notifications"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier puts notifications on a durable queue for the worker.
type RabbitNotifier struct {
	ch     publisher
	queue  string
	logger observability.Logger
}

func NewRabbitNotifier(conn *amqp.Connection, queue string, logger observability.Logger) (*RabbitNotifier, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, errors.Wrapf(err, "declare queue %s", queue)
	}
	return &RabbitNotifier{ch: ch, queue: queue, logger: logger}, nil
}

func (n *RabbitNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.Kind),
		Body:         body,
	}
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		return errors.Wrapf(err, "publish %s", msg.Kind)
	}
	n.logger.Debug("notification queued", "kind", msg.Kind, "reference", msg.Reference)
	return nil
}

// Handler processes one notification taken off the queue.
type Handler func(ctx context.Context, n domain.Notification) error

type Consumer struct {
	conn   *amqp.Connection
	queue  string
	logger observability.Logger
}

func NewConsumer(conn *amqp.Connection, queue string, logger observability.Logger) *Consumer {
	return &Consumer{conn: conn, queue: queue, logger: logger}
}

// Run consumes until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open channel")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set qos", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "declare queue %s", c.queue)
	}
	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "consume %s", c.queue)
	}
	return consume(ctx, deliveries, handle, c.logger)
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func consume(ctx context.Context, deliveries <-chan amqp.Delivery, handle Handler, logger observability.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("deliveries channel closed")
			}
			process(ctx, d.Body, &d, handle, logger)
		}
	}
}

// process rejects bad messages without requeueing them.
func process(ctx context.Context, body []byte, ack acknowledger, handle Handler, logger observability.Logger) {
	var n domain.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		logger.Error("decode notification", "error", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := handle(ctx, n); err != nil {
		logger.Error("handle notification", "kind", n.Kind, "reference", n.Reference, "error", err)
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}
