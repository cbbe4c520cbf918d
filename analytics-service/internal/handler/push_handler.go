package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decp/contracts/events"
	"decp/pkg/metrics"
	"decp/pkg/pubsub"
)

// counterKeys is the fixed eventType → counter mapping. Events without an
// entry are acknowledged as a no-op.
var counterKeys = map[events.Type]string{
	events.TypeUserRegistered: "totalUsers",
	events.TypePostCreated:    "totalPosts",
	events.TypePostLiked:      "totalLikes",
	events.TypeJobPosted:      "totalJobsPosted",
	events.TypeJobApplied:     "totalApplications",
	events.TypeEventCreated:   "totalEvents",
	events.TypeEventRSVP:      "totalRSVPs",
}

// MetricStore applies atomic counter increments. Implemented by the pgx
// repository; tests use an in-memory fake.
type MetricStore interface {
	Increment(ctx context.Context, key string, amount int64) error
}

// Deduper makes at-least-once delivery idempotent by message id. Release
// undoes an acquisition whose effect did not commit, so the broker's
// redelivery is processed instead of skipped.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, messageID string) bool
	Release(ctx context.Context, handler, messageID string)
}

// PushHandler is the broker-facing half of the analytics consumer.
type PushHandler struct {
	verificationToken string
	store             MetricStore
	deduper           Deduper
	logger            *zap.Logger
}

func NewPushHandler(
	verificationToken string,
	store MetricStore,
	deduper Deduper,
	logger *zap.Logger,
) *PushHandler {
	return &PushHandler{
		verificationToken: verificationToken,
		store:             store,
		deduper:           deduper,
		logger:            logger,
	}
}

// HandlePush implements the push webhook contract; see the notification
// consumer for the shared response semantics. The analytics effect is a single
// atomic counter increment per handled event.
func (h *PushHandler) HandlePush(c *gin.Context) {
	if c.Query("token") != h.verificationToken {
		metrics.PushRequestsHandled.WithLabelValues("analytics", "forbidden").Inc()
		c.String(403, "Invalid token")
		return
	}

	var req pubsub.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.PushRequestsHandled.WithLabelValues("analytics", "invalid").Inc()
		c.String(400, "Bad Request: invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		metrics.PushRequestsHandled.WithLabelValues("analytics", "invalid").Inc()
		c.String(400, "Bad Request: invalid payload")
		return
	}

	eventType := events.ResolveType(req.Message.Data, req.Message.Attributes, req.Subscription)
	if eventType == events.TypeUnknown {
		h.logger.Info("No counter mapped for unresolvable event, acknowledging",
			zap.String("subscription", req.SubscriptionName()),
		)
		metrics.PushRequestsHandled.WithLabelValues("analytics", "unknown_type").Inc()
		c.Status(204)
		return
	}

	counterKey, ok := counterKeys[eventType]
	if !ok {
		c.Status(204)
		return
	}

	// A redelivered message must not double-count.
	if req.Message.MessageID != "" &&
		!h.deduper.AcquireOnce(c.Request.Context(), "analytics", req.Message.MessageID) {
		metrics.PushRequestsHandled.WithLabelValues("analytics", "duplicate").Inc()
		c.Status(204)
		return
	}

	if err := h.store.Increment(c.Request.Context(), counterKey, 1); err != nil {
		// Give the dedup slot back before answering 5xx, or the broker's
		// retry would be skipped as a duplicate and the count lost.
		if req.Message.MessageID != "" {
			h.deduper.Release(c.Request.Context(), "analytics", req.Message.MessageID)
		}
		metrics.PushRequestsHandled.WithLabelValues("analytics", "error").Inc()
		c.Status(500)
		return
	}

	h.logger.Info("Incremented counter",
		zap.String("counter", counterKey),
		zap.String("event_type", string(eventType)),
	)
	metrics.PushRequestsHandled.WithLabelValues("analytics", "handled").Inc()
	c.Status(204)
}
