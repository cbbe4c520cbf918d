package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"decp/contracts/events"
	"decp/notification-service/internal/model"
	"decp/notification-service/internal/service"
	"decp/pkg/metrics"
	"decp/pkg/pubsub"
)

// NotificationStore persists notifications. Implemented by the pgx repository;
// tests use an in-memory fake.
type NotificationStore interface {
	Insert(ctx context.Context, n model.Notification) (model.Notification, error)
}

// Deduper makes at-least-once delivery idempotent by message id. Release
// undoes an acquisition whose effect did not commit, so the broker's
// redelivery is processed instead of skipped.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, messageID string) bool
	Release(ctx context.Context, handler, messageID string)
}

// LiveEmitter pushes a created notification to the recipient's live sessions.
// Best-effort: the notification is already durable when it is called.
type LiveEmitter interface {
	EmitToUser(ctx context.Context, userID, event string, payload any)
}

// PushHandler is the broker-facing half of the notification consumer: it
// receives push deliveries, verifies the shared token, and turns events into
// durable notifications.
type PushHandler struct {
	verificationToken string
	store             NotificationStore
	deduper           Deduper
	emitter           LiveEmitter
	logger            *zap.Logger
}

func NewPushHandler(
	verificationToken string,
	store NotificationStore,
	deduper Deduper,
	emitter LiveEmitter,
	logger *zap.Logger,
) *PushHandler {
	return &PushHandler{
		verificationToken: verificationToken,
		store:             store,
		deduper:           deduper,
		emitter:           emitter,
		logger:            logger,
	}
}

// HandlePush implements the push webhook contract:
// 403 bad token, 400 malformed envelope, 204 acknowledged (including unknown
// event types and duplicates, which must not be retried), 5xx only for
// unexpected internal failures so the broker redelivers.
func (h *PushHandler) HandlePush(c *gin.Context) {
	if c.Query("token") != h.verificationToken {
		metrics.PushRequestsHandled.WithLabelValues("notification", "forbidden").Inc()
		c.String(403, "Invalid token")
		return
	}

	var req pubsub.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.PushRequestsHandled.WithLabelValues("notification", "invalid").Inc()
		c.String(400, "Bad Request: invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		metrics.PushRequestsHandled.WithLabelValues("notification", "invalid").Inc()
		c.String(400, "Bad Request: invalid payload")
		return
	}

	eventType := events.ResolveType(req.Message.Data, req.Message.Attributes, req.Subscription)
	if eventType == events.TypeUnknown {
		h.logger.Info("Unhandled notification event type, acknowledging",
			zap.String("subscription", req.SubscriptionName()),
		)
		metrics.PushRequestsHandled.WithLabelValues("notification", "unknown_type").Inc()
		c.Status(204)
		return
	}

	ev, err := events.Decode(eventType, req.Message.Data)
	if err != nil {
		// Undecodable payload for a known type: permanent, do not retry.
		h.logger.Warn("Dropping undecodable event payload",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		metrics.PushRequestsHandled.WithLabelValues("notification", "invalid").Inc()
		c.Status(204)
		return
	}

	// Redelivery of the same broker message must not create duplicate
	// notifications.
	if req.Message.MessageID != "" &&
		!h.deduper.AcquireOnce(c.Request.Context(), "notification", req.Message.MessageID) {
		metrics.PushRequestsHandled.WithLabelValues("notification", "duplicate").Inc()
		c.Status(204)
		return
	}

	for _, draft := range service.MapEvent(ev) {
		saved, err := h.store.Insert(c.Request.Context(), draft)
		if err != nil {
			// 5xx tells the broker to retry the whole message. The dedup slot
			// must be given back first, or the retry would be acked as a
			// duplicate and the notification lost for good.
			if req.Message.MessageID != "" {
				h.deduper.Release(c.Request.Context(), "notification", req.Message.MessageID)
			}
			metrics.PushRequestsHandled.WithLabelValues("notification", "error").Inc()
			c.Status(500)
			return
		}

		metrics.NotificationsCreated.WithLabelValues(saved.Type).Inc()

		// Live push is fire-and-forget: the notification is durable and will
		// appear on the next poll regardless.
		h.emitter.EmitToUser(c.Request.Context(), saved.RecipientID, "notification", saved)
	}

	metrics.PushRequestsHandled.WithLabelValues("notification", "handled").Inc()
	c.Status(204)
}
