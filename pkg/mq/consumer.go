package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPermanent wraps failures that must not be redelivered. A handler returning
// an error matching ErrPermanent gets its message acknowledged and dropped;
// any other error triggers a nack with requeue (at-least-once redelivery).
var ErrPermanent = errors.New("permanent delivery failure")

// Delivery is one message pulled off a subscription queue.
type Delivery struct {
	Body        []byte
	MessageID   string
	Attributes  map[string]string
	Timestamp   time.Time
	Redelivered bool
}

type MessageHandler func(ctx context.Context, d Delivery) error

type Consumer struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	handler    MessageHandler
	logger     *zap.Logger
	tag        string
}

// NewConsumer declares a durable queue bound to the events exchange under the
// given routing key and returns a consumer for it. All declarations are
// idempotent, so re-binding an existing (topic, queue) pair is not an error.
func NewConsumer(url, queueName, routingKey string, logger *zap.Logger) (*Consumer, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		routingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		logger:     logger,
		tag:        "push-" + queueName,
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// Stop cancels the consumer subscription so the delivery channel drains and
// StartConsuming returns.
func (c *Consumer) Stop() {
	if c.channel != nil {
		_ = c.channel.Cancel(c.tag, false)
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming consumes the queue until Stop or a channel error. Blocks;
// call in a goroutine. Every message is acked or nacked exactly once, even if
// the handler panics.
func (c *Consumer) StartConsuming() error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.tag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for msg := range deliveries {
		c.handleOne(msg)
	}

	return nil
}

func (c *Consumer) handleOne(msg amqp091.Delivery) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("queue", c.queue.Name),
				zap.Any("panic", r),
			)
			if err := msg.Nack(false, true); err != nil {
				c.logger.Error("Failed to nack message after panic", zap.Error(err))
			}
		}
	}()

	d := Delivery{
		Body:        msg.Body,
		MessageID:   msg.MessageId,
		Timestamp:   msg.Timestamp,
		Redelivered: msg.Redelivered,
	}
	if len(msg.Headers) > 0 {
		d.Attributes = make(map[string]string, len(msg.Headers))
		for k, v := range msg.Headers {
			if s, ok := v.(string); ok {
				d.Attributes[k] = s
			}
		}
	}

	err := c.handler(ctx, d)
	switch {
	case err == nil:
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack message",
				zap.String("queue", c.queue.Name),
				zap.Error(ackErr),
			)
		}
	case errors.Is(err, ErrPermanent):
		c.logger.Warn("Dropping message after permanent failure",
			zap.String("queue", c.queue.Name),
			zap.String("message_id", d.MessageID),
			zap.Error(err),
		)
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ack rejected message", zap.Error(ackErr))
		}
	default:
		c.logger.Error("Handler error, requeueing",
			zap.String("queue", c.queue.Name),
			zap.String("message_id", d.MessageID),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
	}
}
