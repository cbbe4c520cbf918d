// Package delivery implements broker push delivery: each subscription's queue
// is drained by a Pusher that wraps messages in the push envelope and POSTs
// them to the subscription's endpoint with at-least-once semantics.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"decp/pkg/metrics"
	"decp/pkg/mq"
	"decp/pkg/pubsub"
	"decp/pkg/util"
)

const (
	pushTimeout = 10 * time.Second
	// retryDelay spaces out redeliveries so a down consumer is not hammered
	// in a tight requeue loop.
	retryDelay = time.Second
	// maxAttempts bounds redelivery of a poison message. Beyond it the
	// message is dropped with an error log instead of requeueing forever.
	maxAttempts = 10
)

// Pusher delivers one subscription's messages to its push endpoint.
// Consumer responses map onto broker semantics: 2xx acknowledges, 4xx is a
// permanent reject (no redelivery), anything else — 5xx, timeout, connection
// failure — requeues for redelivery.
type Pusher struct {
	sub     pubsub.Subscription
	project string
	token   string
	client  *http.Client
	retries *util.RetryCounter
	logger  *zap.Logger
}

func NewPusher(sub pubsub.Subscription, project, token string, retries *util.RetryCounter, logger *zap.Logger) *Pusher {
	return &Pusher{
		sub:     sub,
		project: project,
		token:   token,
		client:  &http.Client{Timeout: pushTimeout},
		retries: retries,
		logger:  logger,
	}
}

// Deliver is the queue handler: it builds the push envelope and POSTs it.
// Returning nil acks, mq.ErrPermanent acks-and-drops, any other error nacks
// with requeue.
func (p *Pusher) Deliver(ctx context.Context, d mq.Delivery) error {
	start := time.Now()

	env := pubsub.PushRequest{
		Message: pubsub.Message{
			Data:        d.Body,
			Attributes:  d.Attributes,
			MessageID:   d.MessageID,
			PublishTime: d.Timestamp,
		},
		Subscription: pubsub.SubscriptionPath(p.project, p.sub.Name),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: marshal envelope: %v", mq.ErrPermanent, err)
	}

	endpoint := p.sub.PushEndpoint + "?token=" + url.QueryEscape(p.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", mq.ErrPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.RecordPushDelivery(p.sub.Name, "retry", time.Since(start))
		return p.retryOrDrop(ctx, d.MessageID, fmt.Errorf("push endpoint unreachable: %w", err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if p.retries != nil {
			p.retries.Reset(ctx, p.retryKey(d.MessageID))
		}
		metrics.RecordPushDelivery(p.sub.Name, "ack", time.Since(start))
		p.logger.Debug("Push delivered",
			zap.String("subscription", p.sub.Name),
			zap.String("message_id", d.MessageID),
			zap.Int("status", resp.StatusCode),
		)
		return nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The consumer rejected the message for good; redelivering the same
		// bytes would fail the same way.
		metrics.RecordPushDelivery(p.sub.Name, "reject", time.Since(start))
		return fmt.Errorf("%w: endpoint returned %d", mq.ErrPermanent, resp.StatusCode)

	default:
		metrics.RecordPushDelivery(p.sub.Name, "retry", time.Since(start))
		return p.retryOrDrop(ctx, d.MessageID, fmt.Errorf("push endpoint returned %d", resp.StatusCode))
	}
}

// retryOrDrop decides between requeueing and dropping a repeatedly failing
// message. Without a retry counter (or with Redis down) it always requeues.
func (p *Pusher) retryOrDrop(ctx context.Context, messageID string, cause error) error {
	if p.retries != nil && messageID != "" {
		attempts, err := p.retries.IncrementAndGet(ctx, p.retryKey(messageID))
		if err == nil && attempts >= maxAttempts {
			return fmt.Errorf("%w: %d delivery attempts exhausted: %v", mq.ErrPermanent, maxAttempts, cause)
		}
	}

	select {
	case <-time.After(retryDelay):
	case <-ctx.Done():
	}
	return cause
}

func (p *Pusher) retryKey(messageID string) string {
	return fmt.Sprintf("push-retry:%s:%s", p.sub.Name, messageID)
}
