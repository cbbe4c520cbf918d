package pubsub

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"decp/pkg/metrics"
	"decp/pkg/mq"
)

// eventPublisher is the broker handle the client publishes through.
type eventPublisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte, attributes map[string]string) error
	Close()
}

// Client is the producer-side publish handle. Publishing is strictly
// best-effort: a primary request path must never fail, slow down, or roll back
// because the broker is unreachable, so every failure is logged and swallowed.
type Client struct {
	publisher eventPublisher
	logger    *zap.Logger
}

func NewClient(url string, logger *zap.Logger) (*Client, error) {
	publisher, err := mq.NewPublisher(url)
	if err != nil {
		return nil, err
	}
	return &Client{
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (c *Client) Close() {
	c.publisher.Close()
}

// Publish serializes payload and hands it to the broker under the given topic.
// Returns the assigned message id, or "" when the publish failed (the failure
// is logged, never raised). Derived notifications and metrics for the event
// are silently lost in that case; this is the accepted availability-over-
// durability tradeoff.
func (c *Client) Publish(ctx context.Context, topic string, payload any) string {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("Failed to serialize event payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return ""
	}

	messageID := uuid.NewString()
	if err := c.publisher.Publish(ctx, topic, messageID, body, nil); err != nil {
		c.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return ""
	}

	c.logger.Info("Event published",
		zap.String("topic", topic),
		zap.String("message_id", messageID),
	)
	metrics.EventsPublished.WithLabelValues(topic, "ok").Inc()
	return messageID
}
